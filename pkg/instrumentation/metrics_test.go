package instrumentation

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.EventRecorded("generation", "LAYOUT")
		m.RollupFinished(time.Second, 3, nil)
		m.GenerationFinished("gpt-4", time.Second, 10, 20, nil)
		m.ToolCallFinished("health", "success", time.Millisecond)
	})
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestMetrics_RecordsEventsAndRollups(t *testing.T) {
	m := New()

	m.EventRecorded("feedback", "DESIGN")
	m.EventRecorded("feedback", "DESIGN")
	m.RollupFinished(50*time.Millisecond, 4, nil)
	m.RollupFinished(time.Millisecond, 0, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsRecorded.WithLabelValues("feedback", "DESIGN")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RollupsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RollupsTotal.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RollupProjects))
}

func TestMetrics_RecordsGenerationTokens(t *testing.T) {
	m := New()

	m.GenerationFinished("gpt-4", time.Second, 120, 900, nil)
	m.GenerationFinished("gpt-4", time.Second, 0, 0, errors.New("rate limit"))

	assert.Equal(t, 120.0, testutil.ToFloat64(m.LLMTokensUsed.WithLabelValues("gpt-4", "prompt")))
	assert.Equal(t, 900.0, testutil.ToFloat64(m.LLMTokensUsed.WithLabelValues("gpt-4", "completion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationsTotal.WithLabelValues("gpt-4", "error")))
}

func TestMetrics_RecordsToolCalls(t *testing.T) {
	m := New()

	m.ToolCallFinished("project_usage_stats", "success", time.Millisecond)
	m.ToolCallFinished("project_usage_stats", "tool_error", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("project_usage_stats", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCallsTotal.WithLabelValues("project_usage_stats", "tool_error")))
}

func TestMetrics_HandlerExposesCollectors(t *testing.T) {
	m := New()
	m.EventRecorded("edit", "BUG_FIX")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `buildyoursite_events_recorded_total{kind="edit",type="BUG_FIX"} 1`)
}
