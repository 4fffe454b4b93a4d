package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// GenerateHandler runs LLM generations for a project.
type GenerateHandler struct {
	generation services.GenerationService
	logger     *zap.Logger
}

// NewGenerateHandler creates a new generate handler. A nil service disables
// the routes with 503 responses.
func NewGenerateHandler(generation services.GenerationService, logger *zap.Logger) *GenerateHandler {
	return &GenerateHandler{generation: generation, logger: logger}
}

// RegisterRoutes registers the generate handler's routes on the given mux.
// The routes run without a pinned database scope so a slow LLM call does not
// hold a pool connection; repositories fall back to the pool.
func (h *GenerateHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate", h.requireLLM(h.Generate))
	mux.HandleFunc("POST /api/generate/improve", h.requireLLM(h.Improve))
	mux.HandleFunc("POST /api/generate/regenerate-section", h.requireLLM(h.RegenerateSection))
}

func (h *GenerateHandler) requireLLM(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.generation == nil {
			writeError(w, http.StatusServiceUnavailable, "llm_not_configured",
				"Generation requires LLM_API_KEY and LLM_MODEL", h.logger)
			return
		}
		next(w, r)
	}
}

// Generate handles POST /api/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req services.GenerateInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	out, err := h.generation.Generate(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "generation_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, out, h.logger)
}

// Improve handles POST /api/generate/improve
func (h *GenerateHandler) Improve(w http.ResponseWriter, r *http.Request) {
	var req services.ImproveInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	out, err := h.generation.Improve(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "improve_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, out, h.logger)
}

// RegenerateSection handles POST /api/generate/regenerate-section
func (h *GenerateHandler) RegenerateSection(w http.ResponseWriter, r *http.Request) {
	var req services.RegenerateSectionInput
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	out, err := h.generation.RegenerateSection(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, "regenerate_section_failed", h.logger)
		return
	}
	writeData(w, http.StatusOK, out, h.logger)
}
