package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseProjectID(t *testing.T) {
	logger := zap.NewNop()

	tests := []struct {
		name      string
		pathValue string
		wantOK    bool
	}{
		{"valid UUID", "550e8400-e29b-41d4-a716-446655440000", true},
		{"invalid UUID", "not-a-uuid", false},
		{"empty UUID", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.SetPathValue("pid", tt.pathValue)
			rec := httptest.NewRecorder()

			id, ok := ParseProjectID(rec, req, logger)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.pathValue, id.String())
				return
			}
			assert.Equal(t, uuid.Nil, id)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, "invalid_project_id", resp["error"])
		})
	}
}

func TestParseUUID_CustomErrorMessages(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.SetPathValue("gid", "not-valid")
	rec := httptest.NewRecorder()

	_, ok := parseUUID(rec, req, "gid", "invalid_generation_id", "Invalid generation ID format", zap.NewNop())

	assert.False(t, ok)
	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "invalid_generation_id", resp["error"])
	assert.Equal(t, "Invalid generation ID format", resp["message"])
}

func TestParseOptionalProjectID(t *testing.T) {
	logger := zap.NewNop()
	id := uuid.New()

	got, ok := parseOptionalProjectID(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil), logger)
	assert.True(t, ok)
	assert.Nil(t, got)

	got, ok = parseOptionalProjectID(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?projectId="+id.String(), nil), logger)
	require.True(t, ok)
	assert.Equal(t, id, *got)

	rec := httptest.NewRecorder()
	_, ok = parseOptionalProjectID(rec, httptest.NewRequest(http.MethodGet, "/x?projectId=abc", nil), logger)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseOptionalInt(t *testing.T) {
	logger := zap.NewNop()

	got, ok := parseOptionalInt(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil), "days", logger)
	assert.True(t, ok)
	assert.Nil(t, got)

	got, ok = parseOptionalInt(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?days=-3", nil), "days", logger)
	require.True(t, ok)
	assert.Equal(t, -3, *got, "range checks belong to the service")

	rec := httptest.NewRecorder()
	_, ok = parseOptionalInt(rec, httptest.NewRequest(http.MethodGet, "/x?days=1.5", nil), "days", logger)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
