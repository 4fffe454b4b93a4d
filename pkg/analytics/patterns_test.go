package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

func TestDetectFeedbackPatterns(t *testing.T) {
	feedback := []*models.Feedback{
		{Type: models.FeedbackTypePerformance, Content: "Page load is SLOW"},
		{Type: models.FeedbackTypePerformance, Content: "still slow on mobile"},
		{Type: models.FeedbackTypePerformance, Content: "checkout is fast"},
	}

	patterns := DetectFeedbackPatterns(feedback)

	assert.Equal(t, []models.FeedbackPattern{
		{Pattern: "PERFORMANCE-slow", Count: 2},
		{Pattern: "PERFORMANCE-fast", Count: 1},
	}, patterns)
}

func TestDetectFeedbackPatterns_MultipleKeywordsPerItem(t *testing.T) {
	feedback := []*models.Feedback{
		{Type: models.FeedbackTypeDesign, Content: "Beautiful layout but the nav is confusing"},
	}

	patterns := DetectFeedbackPatterns(feedback)

	assert.ElementsMatch(t, []models.FeedbackPattern{
		{Pattern: "DESIGN-beautiful", Count: 1},
		{Pattern: "DESIGN-confusing", Count: 1},
	}, patterns)
}

func TestDetectFeedbackPatterns_SubstringMatch(t *testing.T) {
	// "works" is found inside "networks"; the scan is a plain substring match.
	patterns := DetectFeedbackPatterns([]*models.Feedback{
		{Type: models.FeedbackTypeFunctionality, Content: "social networks widget"},
	})

	require.Len(t, patterns, 1)
	assert.Equal(t, "FUNCTIONALITY-works", patterns[0].Pattern)
}

func TestDetectFeedbackPatterns_CappedAndDescending(t *testing.T) {
	types := []models.FeedbackType{
		models.FeedbackTypeGeneral, models.FeedbackTypeDesign, models.FeedbackTypeContent,
	}
	var feedback []*models.Feedback
	for i, ft := range types {
		for _, kw := range FeedbackKeywords() {
			for n := 0; n <= i; n++ {
				feedback = append(feedback, &models.Feedback{Type: ft, Content: fmt.Sprintf("it is %s", kw)})
			}
		}
	}

	patterns := DetectFeedbackPatterns(feedback)

	require.Len(t, patterns, MaxFeedbackPatterns)
	for i := 1; i < len(patterns); i++ {
		assert.GreaterOrEqual(t, patterns[i-1].Count, patterns[i].Count)
	}
	assert.Equal(t, 3, patterns[0].Count)
	assert.Equal(t, "CONTENT-slow", patterns[0].Pattern)
}

func TestDetectFeedbackPatterns_NoMatches(t *testing.T) {
	patterns := DetectFeedbackPatterns([]*models.Feedback{
		{Type: models.FeedbackTypeGeneral, Content: "no keywords here"},
	})
	assert.NotNil(t, patterns)
	assert.Empty(t, patterns)
}
