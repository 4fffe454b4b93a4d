package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// AverageRatingResponse is the mean rating of a project's rated feedback.
type AverageRatingResponse struct {
	AverageRating float64 `json:"average_rating"`
}

// FeedbackHandler handles collecting and summarizing client feedback.
type FeedbackHandler struct {
	collector services.FeedbackCollector
	usage     services.UsageAnalytics
	logger    *zap.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(collector services.FeedbackCollector, usage services.UsageAnalytics, logger *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{collector: collector, usage: usage, logger: logger}
}

// RegisterRoutes registers the feedback handler's routes on the given mux.
func (h *FeedbackHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}/feedback", scope(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/feedback", scope(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}/feedback/stats", scope(h.Stats))
	mux.HandleFunc("GET /api/projects/{pid}/feedback/average-rating", scope(h.AverageRating))
	mux.HandleFunc("GET /api/projects/{pid}/feedback/patterns", scope(h.Patterns))
}

// List handles GET /api/projects/{pid}/feedback?type=
func (h *FeedbackHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	feedback, err := h.collector.ListFeedback(r.Context(), projectID, r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err, "list_feedback_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, feedback, h.logger)
}

// Create handles POST /api/projects/{pid}/feedback
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.CollectFeedbackInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.ProjectID = projectID

	feedback, err := h.collector.CollectFeedback(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "collect_feedback_failed", h.logger)
		return
	}
	writeData(w, http.StatusCreated, feedback, h.logger)
}

// Stats handles GET /api/projects/{pid}/feedback/stats
func (h *FeedbackHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.collector.FeedbackStats(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "feedback_stats_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, stats, h.logger)
}

// AverageRating handles GET /api/projects/{pid}/feedback/average-rating
func (h *FeedbackHandler) AverageRating(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	avg, err := h.collector.AverageRating(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "average_rating_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, AverageRatingResponse{AverageRating: avg}, h.logger)
}

// Patterns handles GET /api/projects/{pid}/feedback/patterns
func (h *FeedbackHandler) Patterns(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	patterns, err := h.usage.RecurringFeedbackPatterns(r.Context(), &projectID)
	if err != nil {
		writeServiceError(w, err, "feedback_patterns_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, patterns, h.logger)
}
