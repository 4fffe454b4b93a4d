// Package models contains domain types for buildyoursite-engine.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusActive    ProjectStatus = "ACTIVE"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusArchived  ProjectStatus = "ARCHIVED"
)

// ParseProjectStatus normalizes a status to its stored uppercase form.
func ParseProjectStatus(s string) (ProjectStatus, bool) {
	status := ProjectStatus(normalizeDiscriminant(s))
	switch status {
	case ProjectStatusActive, ProjectStatusCompleted, ProjectStatusArchived:
		return status, true
	}
	return "", false
}

// Project is the unit of work a client commissions. It owns all generations,
// edits and feedback.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	ClientName  *string       `json:"client_name,omitempty"`
	Description *string       `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// ProjectCounts holds the number of records a project owns per event kind.
type ProjectCounts struct {
	Generations int64 `json:"generations"`
	Edits       int64 `json:"edits"`
	Feedback    int64 `json:"feedback"`
}

// ProjectDetail is a project together with its counts and most recent records.
type ProjectDetail struct {
	Project
	Counts            ProjectCounts `json:"counts"`
	RecentGenerations []*Generation `json:"recent_generations"`
	RecentEdits       []*Edit       `json:"recent_edits"`
	RecentFeedback    []*Feedback   `json:"recent_feedback"`
}

// ProjectUpdate carries the mutable project fields. Nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string
	ClientName  *string
	Description *string
	Status      *ProjectStatus
}

// JSONBMap is a map type that handles PostgreSQL JSONB serialization.
type JSONBMap map[string]interface{}

// Value implements driver.Valuer for database serialization.
func (j JSONBMap) Value() (driver.Value, error) {
	if j == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(j)
}

// Scan implements sql.Scanner for database deserialization.
func (j *JSONBMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return fmt.Errorf("cannot scan %T into JSONBMap", value)
	}
}

// normalizeDiscriminant converts user supplied enum values such as "full page" or
// "full_page" into the stored form "FULL_PAGE".
func normalizeDiscriminant(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return strings.ToUpper(s)
}
