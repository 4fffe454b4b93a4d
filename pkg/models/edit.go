package models

import (
	"time"

	"github.com/google/uuid"
)

// EditType classifies a manual modification.
type EditType string

const (
	EditTypeContentChange     EditType = "CONTENT_CHANGE"
	EditTypeLayoutAdjustment  EditType = "LAYOUT_ADJUSTMENT"
	EditTypeStyleModification EditType = "STYLE_MODIFICATION"
	EditTypeBugFix            EditType = "BUG_FIX"
	EditTypeFeatureAddition   EditType = "FEATURE_ADDITION"
	EditTypeOptimization      EditType = "OPTIMIZATION"
	EditTypeOther             EditType = "OTHER"
)

// ParseEditType normalizes t to its stored uppercase form.
// Returns false if t is not a known edit type.
func ParseEditType(t string) (EditType, bool) {
	et := EditType(normalizeDiscriminant(t))
	switch et {
	case EditTypeContentChange, EditTypeLayoutAdjustment, EditTypeStyleModification,
		EditTypeBugFix, EditTypeFeatureAddition, EditTypeOptimization, EditTypeOther:
		return et, true
	}
	return "", false
}

// Edit is a recorded manual modification of a generation's output.
type Edit struct {
	ID              uuid.UUID  `json:"id"`
	ProjectID       uuid.UUID  `json:"project_id"`
	GenerationID    *uuid.UUID `json:"generation_id,omitempty"`
	OriginalContent string     `json:"original_content"`
	EditedContent   string     `json:"edited_content"`
	EditType        EditType   `json:"edit_type"`
	Reason          *string    `json:"reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Generation is populated by list queries that join the edited generation.
	Generation *Generation `json:"generation,omitempty"`
}
