package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func serveMCP(t *testing.T, requestBody, responseBody string) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, requestBody, string(body), "body must be restored for the MCP server")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(responseBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewBufferString(requestBody))
	MCPRequestLogger(zap.New(core))(handler).ServeHTTP(httptest.NewRecorder(), req)
	return logs
}

func TestMCPRequestLogger_Success(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"daily_usage_history","arguments":{"days":7}}}`,
		`{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"[]"}]}}`)

	require.Equal(t, 2, logs.Len())
	request := logs.All()[0]
	assert.Equal(t, "MCP request", request.Message)
	assert.Equal(t, "tools/call", request.ContextMap()["method"])
	assert.Equal(t, "daily_usage_history", request.ContextMap()["tool"])
	assert.Equal(t, map[string]any{"days": float64(7)}, request.ContextMap()["arguments"])

	response := logs.All()[1]
	assert.Equal(t, "MCP response success", response.Message)
	assert.NotNil(t, response.ContextMap()["duration"])
}

func TestMCPRequestLogger_ProtocolError(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope"}}`,
		`{"jsonrpc":"2.0","id":1,"error":{"code":-32602,"message":"tool not found"}}`)

	require.Equal(t, 2, logs.Len())
	response := logs.All()[1]
	assert.Equal(t, "MCP response error", response.Message)
	assert.Equal(t, int64(-32602), response.ContextMap()["error_code"])
	assert.Equal(t, "tool not found", response.ContextMap()["error_message"])
}

func TestMCPRequestLogger_ToolError(t *testing.T) {
	logs := serveMCP(t,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"project_usage_stats","arguments":{"project_id":"x"}}}`,
		`{"jsonrpc":"2.0","id":1,"result":{"isError":true,"content":[{"type":"text","text":"{\"error\":true,\"code\":\"invalid_parameters\",\"message\":\"bad id\"}"}]}}`)

	require.Equal(t, 2, logs.Len())
	response := logs.All()[1]
	assert.Equal(t, "MCP tool error", response.Message)
	assert.Equal(t, "invalid_parameters", response.ContextMap()["error_code"])
}

func TestMCPRequestLogger_UnparseableBodies(t *testing.T) {
	logs := serveMCP(t, `not json`, `also not json`)

	messages := make([]string, 0, logs.Len())
	for _, entry := range logs.All() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "Failed to parse MCP request JSON")
	assert.Contains(t, messages, "Failed to parse MCP response JSON")
}

func TestMCPRequestLogger_NilLogger_PassesThrough(t *testing.T) {
	called := false
	handler := MCPRequestLogger(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp", nil))
	assert.True(t, called)
}

func TestSanitizeArguments(t *testing.T) {
	long := strings.Repeat("a", maxLoggedArgumentLen+50)

	got := sanitizeArguments(map[string]any{
		"project_id": "9f0c",
		"api_key":    "sk-live",
		"Auth_Token": "abc",
		"note":       long,
		"days":       float64(30),
	})

	assert.Equal(t, "9f0c", got["project_id"])
	assert.Equal(t, "[REDACTED]", got["api_key"])
	assert.Equal(t, "[REDACTED]", got["Auth_Token"])
	assert.Equal(t, long[:maxLoggedArgumentLen]+"...", got["note"])
	assert.Equal(t, float64(30), got["days"])
	assert.Nil(t, sanitizeArguments(nil))
}
