package models

import (
	"time"

	"github.com/google/uuid"
)

// GenerationType classifies what a generation produced.
type GenerationType string

const (
	GenerationTypeLayout    GenerationType = "LAYOUT"
	GenerationTypeContent   GenerationType = "CONTENT"
	GenerationTypeComponent GenerationType = "COMPONENT"
	GenerationTypeStyle     GenerationType = "STYLE"
	GenerationTypeFullPage  GenerationType = "FULL_PAGE"
	GenerationTypeOther     GenerationType = "OTHER"
)

// ParseGenerationType normalizes t to its stored uppercase form.
// Returns false if t is not a known generation type.
func ParseGenerationType(t string) (GenerationType, bool) {
	gt := GenerationType(normalizeDiscriminant(t))
	switch gt {
	case GenerationTypeLayout, GenerationTypeContent, GenerationTypeComponent,
		GenerationTypeStyle, GenerationTypeFullPage, GenerationTypeOther:
		return gt, true
	}
	return "", false
}

// Generation is one AI-produced HTML artifact attributed to a prompt.
// Generations are immutable once created.
type Generation struct {
	ID             uuid.UUID      `json:"id"`
	ProjectID      uuid.UUID      `json:"project_id"`
	Model          *string        `json:"model,omitempty"`
	Prompt         string         `json:"prompt"`
	Output         string         `json:"output"`
	Temperature    *float64       `json:"temperature,omitempty"`
	GenerationType GenerationType `json:"generation_type"`
	Metadata       JSONBMap       `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}
