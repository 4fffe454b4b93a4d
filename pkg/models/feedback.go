package models

import (
	"time"

	"github.com/google/uuid"
)

// FeedbackType classifies a piece of client feedback.
type FeedbackType string

const (
	FeedbackTypeGeneral       FeedbackType = "GENERAL"
	FeedbackTypeDesign        FeedbackType = "DESIGN"
	FeedbackTypeContent       FeedbackType = "CONTENT"
	FeedbackTypeFunctionality FeedbackType = "FUNCTIONALITY"
	FeedbackTypePerformance   FeedbackType = "PERFORMANCE"
	FeedbackTypeSuggestion    FeedbackType = "SUGGESTION"
)

// ParseFeedbackType normalizes t to its stored uppercase form.
// Returns false if t is not a known feedback type.
func ParseFeedbackType(t string) (FeedbackType, bool) {
	ft := FeedbackType(normalizeDiscriminant(t))
	switch ft {
	case FeedbackTypeGeneral, FeedbackTypeDesign, FeedbackTypeContent,
		FeedbackTypeFunctionality, FeedbackTypePerformance, FeedbackTypeSuggestion:
		return ft, true
	}
	return "", false
}

// Feedback is a rated or unrated comment about a project's output.
// Rating is expected to be 1-5 but the range is not enforced.
type Feedback struct {
	ID         uuid.UUID    `json:"id"`
	ProjectID  uuid.UUID    `json:"project_id"`
	Type       FeedbackType `json:"type"`
	Content    string       `json:"content"`
	Rating     *int         `json:"rating,omitempty"`
	ClientName *string      `json:"client_name,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
