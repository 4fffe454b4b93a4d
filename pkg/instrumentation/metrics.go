// Package instrumentation exposes Prometheus collectors for event tracking,
// rollups and website generation.
package instrumentation

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "buildyoursite"

// Metrics holds the engine's collectors. A nil *Metrics is valid and records nothing,
// which keeps tests and tools free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	EventsRecorded   *prometheus.CounterVec
	RollupsTotal     *prometheus.CounterVec
	RollupDuration   prometheus.Histogram
	RollupProjects   prometheus.Gauge
	GenerationsTotal *prometheus.CounterVec
	GenerationTime   *prometheus.HistogramVec
	LLMTokensUsed    *prometheus.CounterVec
	ToolCallsTotal   *prometheus.CounterVec
	ToolCallDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them, plus the Go and process
// collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		EventsRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_recorded_total",
				Help:      "Generations, edits and feedback recorded, by kind and type",
			},
			[]string{"kind", "type"},
		),

		RollupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "daily_rollups_total",
				Help:      "Daily usage rollups attempted, by outcome",
			},
			[]string{"status"},
		),

		RollupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "daily_rollup_duration_seconds",
				Help:      "Daily usage rollup duration in seconds, including lock wait",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
		),

		RollupProjects: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "daily_rollup_total_projects",
				Help:      "Projects included in the most recent daily rollup",
			},
		),

		GenerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_generations_total",
				Help:      "Website generation calls, by model and outcome",
			},
			[]string{"model", "status"},
		),

		GenerationTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "llm_generation_duration_seconds",
				Help:      "Website generation duration in seconds, including retries",
				Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"model"},
		),

		LLMTokensUsed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_used_total",
				Help:      "LLM tokens used by website generation",
			},
			[]string{"model", "type"},
		),

		ToolCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mcp_tool_calls_total",
				Help:      "MCP tool calls, by tool and outcome",
			},
			[]string{"tool", "status"},
		),

		ToolCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mcp_tool_call_duration_seconds",
				Help:      "MCP tool call duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.EventsRecorded,
		m.RollupsTotal,
		m.RollupDuration,
		m.RollupProjects,
		m.GenerationsTotal,
		m.GenerationTime,
		m.LLMTokensUsed,
		m.ToolCallsTotal,
		m.ToolCallDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// EventRecorded counts one stored generation, edit or feedback item.
func (m *Metrics) EventRecorded(kind, eventType string) {
	if m == nil {
		return
	}
	m.EventsRecorded.WithLabelValues(kind, eventType).Inc()
}

// RollupFinished records the outcome of one daily rollup.
func (m *Metrics) RollupFinished(elapsed time.Duration, totalProjects int, err error) {
	if m == nil {
		return
	}
	m.RollupDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.RollupsTotal.WithLabelValues("error").Inc()
		return
	}
	m.RollupsTotal.WithLabelValues("success").Inc()
	m.RollupProjects.Set(float64(totalProjects))
}

// GenerationFinished records one website generation call.
func (m *Metrics) GenerationFinished(model string, elapsed time.Duration, promptTokens, completionTokens int, err error) {
	if m == nil {
		return
	}
	m.GenerationTime.WithLabelValues(model).Observe(elapsed.Seconds())
	if err != nil {
		m.GenerationsTotal.WithLabelValues(model, "error").Inc()
		return
	}
	m.GenerationsTotal.WithLabelValues(model, "success").Inc()
	m.LLMTokensUsed.WithLabelValues(model, "prompt").Add(float64(promptTokens))
	m.LLMTokensUsed.WithLabelValues(model, "completion").Add(float64(completionTokens))
}

// ToolCallFinished records one MCP tool call. status is "success", "tool_error"
// for results flagged IsError, or "error" for protocol failures.
func (m *Metrics) ToolCallFinished(tool, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ToolCallDuration.WithLabelValues(tool).Observe(elapsed.Seconds())
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
}
