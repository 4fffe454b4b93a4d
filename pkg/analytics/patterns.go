package analytics

import (
	"sort"
	"strings"

	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

// MaxFeedbackPatterns caps the number of patterns DetectFeedbackPatterns returns.
const MaxFeedbackPatterns = 10

// feedbackKeywords is the fixed vocabulary scanned for in feedback content.
var feedbackKeywords = []string{"slow", "fast", "beautiful", "ugly", "confusing", "clear", "broken", "works"}

// FeedbackKeywords returns a copy of the keywords DetectFeedbackPatterns looks for.
func FeedbackKeywords() []string {
	return append([]string(nil), feedbackKeywords...)
}

// DetectFeedbackPatterns counts keyword occurrences per feedback type.
//
// Each feedback item's content is lower-cased and every keyword it contains as a
// substring increments the counter "<TYPE>-<keyword>" once. A single item can
// count towards several patterns. The result is sorted by count descending with
// ties kept in first-seen order, and truncated to MaxFeedbackPatterns entries.
func DetectFeedbackPatterns(feedback []*models.Feedback) []models.FeedbackPattern {
	index := make(map[string]int)
	var patterns []models.FeedbackPattern

	for _, f := range feedback {
		content := strings.ToLower(f.Content)
		for _, keyword := range feedbackKeywords {
			if !strings.Contains(content, keyword) {
				continue
			}
			key := string(f.Type) + "-" + keyword
			i, ok := index[key]
			if !ok {
				i = len(patterns)
				index[key] = i
				patterns = append(patterns, models.FeedbackPattern{Pattern: key})
			}
			patterns[i].Count++
		}
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})

	if len(patterns) > MaxFeedbackPatterns {
		patterns = patterns[:MaxFeedbackPatterns]
	}
	if patterns == nil {
		patterns = []models.FeedbackPattern{}
	}
	return patterns
}
