package models

import (
	"time"

	"github.com/google/uuid"
)

// UsageMetric is the precomputed aggregate for one UTC calendar day.
// Date is the day start and is unique across records.
type UsageMetric struct {
	ID               uuid.UUID `json:"id"`
	Date             time.Time `json:"date"`
	TotalProjects    int       `json:"total_projects"`
	AIGeneratedRatio float64   `json:"ai_generated_ratio"`
	ManualEditRatio  float64   `json:"manual_edit_ratio"`
	GenerationCount  int64     `json:"generation_count"`
	EditCount        int64     `json:"edit_count"`
	FeedbackCount    int64     `json:"feedback_count"`
	AverageRating    *float64  `json:"average_rating,omitempty"`
}

// ProjectActivity is the activity of one project that feeds a daily rollup.
// Ratings holds only non-null feedback ratings.
type ProjectActivity struct {
	ProjectID       uuid.UUID
	CreatedAt       time.Time
	GenerationCount int64
	EditCount       int64
	Ratings         []int
}
