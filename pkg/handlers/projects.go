package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// ScopeMiddleware wraps a handler with its per-request database scope.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// ProjectsHandler handles project-related HTTP requests.
type ProjectsHandler struct {
	projectService services.ProjectService
	usage          services.UsageAnalytics
	logger         *zap.Logger
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(projectService services.ProjectService, usage services.UsageAnalytics, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{
		projectService: projectService,
		usage:          usage,
		logger:         logger,
	}
}

// RegisterRoutes registers the projects handler's routes on the given mux.
func (h *ProjectsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/projects", scope(h.List))
	mux.HandleFunc("POST /api/projects", scope(h.Create))
	mux.HandleFunc("GET /api/projects/{pid}", scope(h.Get))
	mux.HandleFunc("PUT /api/projects/{pid}", scope(h.Update))
	mux.HandleFunc("GET /api/projects/{pid}/usage", scope(h.Usage))
}

// List handles GET /api/projects?status=
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.List(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, err, "list_projects_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, projects, h.logger)
}

// Create handles POST /api/projects
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateProjectInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "create_project_failed", h.logger)
		return
	}
	writeData(w, http.StatusCreated, project, h.logger)
}

// Get handles GET /api/projects/{pid}
// Returns the project with record counts and its most recent records.
func (h *ProjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	detail, err := h.projectService.Get(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "get_project_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, detail, h.logger)
}

// Update handles PUT /api/projects/{pid}
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.UpdateProjectInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	project, err := h.projectService.Update(r.Context(), projectID, &req)
	if err != nil {
		writeServiceError(w, err, "update_project_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, project, h.logger)
}

// Usage handles GET /api/projects/{pid}/usage
func (h *ProjectsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	stats, err := h.usage.ProjectUsageStats(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, err, "project_usage_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, stats, h.logger)
}
