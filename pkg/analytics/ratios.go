// Package analytics computes usage statistics from generation, edit and feedback
// records. Functions in this package are pure; storage access lives in the
// repositories and the services that call them.
package analytics

import "math"

// EditRatio returns edits per generation. A project with no generations has an
// edit ratio of exactly 0 regardless of how many edits it has.
func EditRatio(generations, edits int64) float64 {
	if generations == 0 {
		return 0
	}
	return float64(edits) / float64(generations)
}

// UsageSplit returns the whole-number percentages of activity that came from AI
// generations and from manual edits. With no activity at all the split is 0/100.
// The manual share is derived from the rounded AI share so the two always sum to 100.
func UsageSplit(generations, edits int64) (aiPercentage, manualPercentage int) {
	total := generations + edits
	if total == 0 {
		return 0, 100
	}
	aiPercentage = int(math.Round(float64(generations) / float64(total) * 100))
	return aiPercentage, 100 - aiPercentage
}

// AverageRating returns the mean of ratings, or 0 when there are none.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	return float64(sum) / float64(len(ratings))
}

// AverageOrZero collapses an absent average to 0.
func AverageOrZero(avg *float64) float64 {
	if avg == nil {
		return 0
	}
	return *avg
}
