package analytics

import (
	"time"

	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// DayStart truncates t to midnight UTC. Rollups are always keyed in UTC so that
// the same instant maps to the same day regardless of server time zone.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeDailyRollup aggregates the activity of every project that existed at
// dayStart into one UsageMetric. Projects created after dayStart are ignored even
// if the caller passes them in.
//
// FeedbackCount is the number of rated feedback items. AverageRating is nil when
// no rated feedback exists. Both ratios are 0 when there was no activity at all.
func ComputeDailyRollup(dayStart time.Time, activity []models.ProjectActivity) *models.UsageMetric {
	metric := &models.UsageMetric{Date: dayStart}

	var ratingSum, ratingCount int64
	for _, a := range activity {
		if a.CreatedAt.After(dayStart) {
			continue
		}
		metric.TotalProjects++
		metric.GenerationCount += a.GenerationCount
		metric.EditCount += a.EditCount
		metric.FeedbackCount += int64(len(a.Ratings))
		for _, r := range a.Ratings {
			ratingSum += int64(r)
			ratingCount++
		}
	}

	if total := metric.GenerationCount + metric.EditCount; total > 0 {
		metric.AIGeneratedRatio = float64(metric.GenerationCount) / float64(total)
		metric.ManualEditRatio = 1 - metric.AIGeneratedRatio
	}

	if ratingCount > 0 {
		avg := float64(ratingSum) / float64(ratingCount)
		metric.AverageRating = &avg
	}

	return metric
}
