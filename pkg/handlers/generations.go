package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// GenerationsHandler handles logging and listing AI generations.
type GenerationsHandler struct {
	promptLogger services.PromptLogger
	logger       *zap.Logger
}

// NewGenerationsHandler creates a new generations handler.
func NewGenerationsHandler(promptLogger services.PromptLogger, logger *zap.Logger) *GenerationsHandler {
	return &GenerationsHandler{promptLogger: promptLogger, logger: logger}
}

// RegisterRoutes registers the generations handler's routes on the given mux.
func (h *GenerationsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}/generations", scope(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/generations", scope(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}/generations/stats", scope(h.Stats))
}

// List handles GET /api/projects/{pid}/generations?type=
func (h *GenerationsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	generations, err := h.promptLogger.ListGenerations(r.Context(), projectID, r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err, "list_generations_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, generations, h.logger)
}

// Create handles POST /api/projects/{pid}/generations
func (h *GenerationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.LogGenerationInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.ProjectID = projectID

	generation, err := h.promptLogger.LogGeneration(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "log_generation_failed", h.logger)
		return
	}
	writeData(w, http.StatusCreated, generation, h.logger)
}

// Stats handles GET /api/projects/{pid}/generations/stats
func (h *GenerationsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.promptLogger.GenerationStats(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "generation_stats_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, stats, h.logger)
}
