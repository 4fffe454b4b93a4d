package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProjectID extracts and validates the project ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: pid
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "pid", "invalid_project_id", "Invalid project ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorCode, errorMessage, logger)
		return uuid.Nil, false
	}
	return id, true
}

// parseOptionalProjectID reads the projectId query parameter. A missing value
// returns nil and true.
func parseOptionalProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*uuid.UUID, bool) {
	raw := r.URL.Query().Get("projectId")
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_project_id", "Invalid project ID format", logger)
		return nil, false
	}
	return &id, true
}

// parseOptionalInt reads an integer query parameter. A missing value returns nil and true.
func parseOptionalInt(w http.ResponseWriter, r *http.Request, name string, logger *zap.Logger) (*int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Query parameter "+name+" must be an integer", logger)
		return nil, false
	}
	return &n, true
}
