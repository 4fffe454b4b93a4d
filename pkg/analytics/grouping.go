package analytics

import (
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// Group is the count of items sharing one key.
type Group[K comparable] struct {
	Key   K
	Count int64
}

// CountBy groups items by key and returns the groups in the order their keys
// were first seen. Keys are compared verbatim; no case folding is applied.
func CountBy[T any, K comparable](items []T, key func(T) K) []Group[K] {
	index := make(map[K]int)
	var groups []Group[K]
	for _, item := range items {
		k := key(item)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[K]{Key: k})
		}
		groups[i].Count++
	}
	return groups
}

// GenerationsByType counts generations per generation type.
func GenerationsByType(generations []*models.Generation) []models.TypeCount {
	return toTypeCounts(CountBy(generations, func(g *models.Generation) string {
		return string(g.GenerationType)
	}))
}

// EditsByType counts edits per edit type.
func EditsByType(edits []*models.Edit) []models.TypeCount {
	return toTypeCounts(CountBy(edits, func(e *models.Edit) string {
		return string(e.EditType)
	}))
}

// FeedbackByType counts feedback per feedback type.
func FeedbackByType(feedback []*models.Feedback) []models.TypeCount {
	return toTypeCounts(CountBy(feedback, func(f *models.Feedback) string {
		return string(f.Type)
	}))
}

// FeedbackByRating counts rated feedback per rating. Unrated feedback is skipped.
func FeedbackByRating(feedback []*models.Feedback) []models.RatingCount {
	rated := make([]*models.Feedback, 0, len(feedback))
	for _, f := range feedback {
		if f.Rating != nil {
			rated = append(rated, f)
		}
	}

	groups := CountBy(rated, func(f *models.Feedback) int { return *f.Rating })
	out := make([]models.RatingCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.RatingCount{Rating: g.Key, Count: g.Count})
	}
	return out
}

// RatingSummary averages the non-null ratings in feedback.
func RatingSummary(feedback []*models.Feedback) models.RatingSummary {
	var ratings []int
	for _, f := range feedback {
		if f.Rating != nil {
			ratings = append(ratings, *f.Rating)
		}
	}
	if len(ratings) == 0 {
		return models.RatingSummary{}
	}
	avg := AverageRating(ratings)
	return models.RatingSummary{Average: &avg, Count: int64(len(ratings))}
}

func toTypeCounts(groups []Group[string]) []models.TypeCount {
	out := make([]models.TypeCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, models.TypeCount{Type: g.Key, Count: g.Count})
	}
	return out
}
