package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// EditRatioResponse is the edits-per-generation ratio of a project.
type EditRatioResponse struct {
	EditRatio float64 `json:"edit_ratio"`
}

// EditsHandler handles tracking and reporting manual edits.
type EditsHandler struct {
	editTracker services.EditTracker
	logger      *zap.Logger
}

// NewEditsHandler creates a new edits handler.
func NewEditsHandler(editTracker services.EditTracker, logger *zap.Logger) *EditsHandler {
	return &EditsHandler{editTracker: editTracker, logger: logger}
}

// RegisterRoutes registers the edits handler's routes on the given mux.
func (h *EditsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/projects/{pid}/edits", scope(h.List))
	mux.HandleFunc("POST /api/projects/{pid}/edits", scope(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}/edits/stats", scope(h.Stats))
	mux.HandleFunc("GET /api/projects/{pid}/edits/ratio", scope(h.Ratio))
}

// List handles GET /api/projects/{pid}/edits?type=
func (h *EditsHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	edits, err := h.editTracker.ListEdits(r.Context(), projectID, r.URL.Query().Get("type"))
	if err != nil {
		writeServiceError(w, err, "list_edits_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, edits, h.logger)
}

// Create handles POST /api/projects/{pid}/edits
func (h *EditsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.TrackEditInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	req.ProjectID = projectID

	edit, err := h.editTracker.TrackEdit(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "track_edit_failed", h.logger)
		return
	}
	writeData(w, http.StatusCreated, edit, h.logger)
}

// Stats handles GET /api/projects/{pid}/edits/stats
func (h *EditsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.editTracker.EditStats(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "edit_stats_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, stats, h.logger)
}

// Ratio handles GET /api/projects/{pid}/edits/ratio
func (h *EditsHandler) Ratio(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	ratio, err := h.editTracker.EditRatio(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "edit_ratio_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, EditRatioResponse{EditRatio: ratio}, h.logger)
}
