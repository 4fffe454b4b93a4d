package models

// TypeCount is the number of records sharing one discriminant value.
type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// RatingCount is the number of feedback items with a given rating.
type RatingCount struct {
	Rating int   `json:"rating"`
	Count  int64 `json:"count"`
}

// RatingSummary is the average and count of non-null ratings.
// Average is nil when no rated feedback exists.
type RatingSummary struct {
	Average *float64
	Count   int64
}

// FeedbackStats groups a project's feedback by type and by rating.
type FeedbackStats struct {
	ByType   []TypeCount   `json:"by_type"`
	ByRating []RatingCount `json:"by_rating"`
}

// ProjectUsageStats summarizes AI-vs-manual activity for one project.
type ProjectUsageStats struct {
	GenerationCount       int64   `json:"generation_count"`
	EditCount             int64   `json:"edit_count"`
	AIGeneratedPercentage int     `json:"ai_generated_percentage"`
	ManualEditPercentage  int     `json:"manual_edit_percentage"`
	AverageRating         float64 `json:"average_rating"`
	RatingCount           int64   `json:"rating_count"`
}

// FeedbackPattern is a recurring keyword within one feedback type,
// keyed as "<TYPE>-<keyword>".
type FeedbackPattern struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// EditedGenerationType is the number of edits made against generations of one type.
type EditedGenerationType struct {
	GenerationType GenerationType `json:"generation_type"`
	EditCount      int64          `json:"edit_count"`
}
