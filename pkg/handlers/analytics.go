package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// DailyMetricsRequest selects the day to roll up. An empty date means today (UTC).
type DailyMetricsRequest struct {
	Date string `json:"date,omitempty"`
}

// AnalyticsHandler exposes cross-project usage analytics.
type AnalyticsHandler struct {
	usage  services.UsageAnalytics
	logger *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(usage services.UsageAnalytics, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{usage: usage, logger: logger}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("POST /api/analytics/daily", scope(h.CalculateDaily))
	mux.HandleFunc("GET /api/analytics/history", scope(h.History))
	mux.HandleFunc("GET /api/analytics/patterns", scope(h.Patterns))
	mux.HandleFunc("GET /api/analytics/most-edited-types", scope(h.MostEditedTypes))
}

// CalculateDaily handles POST /api/analytics/daily
// The body is optional; {"date":"2024-03-10"} recomputes a past day.
func (h *AnalyticsHandler) CalculateDaily(w http.ResponseWriter, r *http.Request) {
	var req DailyMetricsRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", h.logger)
		return
	}

	var date *time.Time
	if req.Date != "" {
		parsed, err := parseDay(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD or RFC 3339", h.logger)
			return
		}
		date = &parsed
	}

	metric, err := h.usage.CalculateDailyMetrics(r.Context(), date)
	if err != nil {
		writeServiceError(w, err, "daily_metrics_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, metric, h.logger)
}

// History handles GET /api/analytics/history?days=
func (h *AnalyticsHandler) History(w http.ResponseWriter, r *http.Request) {
	days, ok := parseOptionalInt(w, r, "days", h.logger)
	if !ok {
		return
	}

	metrics, err := h.usage.HistoricalMetrics(r.Context(), days)
	if err != nil {
		writeServiceError(w, err, "usage_history_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, metrics, h.logger)
}

// Patterns handles GET /api/analytics/patterns?projectId=
// Without a project the scan covers all feedback.
func (h *AnalyticsHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	projectID, ok := parseOptionalProjectID(w, r, h.logger)
	if !ok {
		return
	}

	patterns, err := h.usage.RecurringFeedbackPatterns(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "feedback_patterns_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, patterns, h.logger)
}

// MostEditedTypes handles GET /api/analytics/most-edited-types
func (h *AnalyticsHandler) MostEditedTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.usage.MostEditedGenerationTypes(r.Context())
	if err != nil {
		writeServiceError(w, err, "most_edited_types_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, types, h.logger)
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
