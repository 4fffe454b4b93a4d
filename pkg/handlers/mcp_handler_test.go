package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/mcp"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
)

func newTestMCPMux() *http.ServeMux {
	mcpServer := mcp.NewServer("buildyoursite-engine", "test-version", nil, zap.NewNop())
	mcpServer.RegisterAnalyticsTools(&stubUsageAnalytics{}, false)

	mux := http.NewServeMux()
	NewMCPHandler(mcpServer, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func postMCP(mux *http.ServeMux, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestMCPHandler_ToolsList(t *testing.T) {
	mux := newTestMCPMux()

	rec := postMCP(mux, `{"jsonrpc":"2.0","method":"tools/list","id":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, "2.0", response.JSONRPC)
	assert.Equal(t, 1, response.ID)
	assert.Len(t, response.Result.Tools, 5)
}

func TestMCPHandler_ToolsCall(t *testing.T) {
	mux := newTestMCPMux()

	rec := postMCP(mux, `{"jsonrpc":"2.0","method":"tools/call","params":{"name":"most_edited_generation_types"},"id":2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var response struct {
		Result struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.NotEmpty(t, response.Result.Content)

	var types []models.EditedGenerationType
	require.NoError(t, json.Unmarshal([]byte(response.Result.Content[0].Text), &types))
	assert.Empty(t, types)
}

func TestMCPHandler_RejectsNonPOST(t *testing.T) {
	mux := newTestMCPMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}
