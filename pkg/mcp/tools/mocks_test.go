package tools

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// mockUsageAnalytics records its arguments and returns canned results.
type mockUsageAnalytics struct {
	stats    *models.ProjectUsageStats
	patterns []models.FeedbackPattern
	history  []*models.UsageMetric
	types    []models.EditedGenerationType
	err      error

	statsProjectID   uuid.UUID
	patternProjectID *uuid.UUID
	historyDays      *int
}

var _ services.UsageAnalytics = (*mockUsageAnalytics)(nil)

func (m *mockUsageAnalytics) ProjectUsageStats(ctx context.Context, projectID uuid.UUID) (*models.ProjectUsageStats, error) {
	m.statsProjectID = projectID
	return m.stats, m.err
}

func (m *mockUsageAnalytics) CalculateDailyMetrics(ctx context.Context, date *time.Time) (*models.UsageMetric, error) {
	return nil, m.err
}

func (m *mockUsageAnalytics) HistoricalMetrics(ctx context.Context, days *int) ([]*models.UsageMetric, error) {
	m.historyDays = days
	return m.history, m.err
}

func (m *mockUsageAnalytics) RecurringFeedbackPatterns(ctx context.Context, projectID *uuid.UUID) ([]models.FeedbackPattern, error) {
	m.patternProjectID = projectID
	return m.patterns, m.err
}

func (m *mockUsageAnalytics) MostEditedGenerationTypes(ctx context.Context) ([]models.EditedGenerationType, error) {
	return m.types, m.err
}

// toolResponse is a tools/call response decoded from JSON.
type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r toolResponse) text(t *testing.T) string {
	t.Helper()
	require.Nil(t, r.Error, "unexpected JSON-RPC error")
	require.NotEmpty(t, r.Result.Content)
	return r.Result.Content[0].Text
}

// callTool sends a tools/call request through the server and decodes the response.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	params := map[string]any{"name": name}
	if args != nil {
		params["arguments"] = args
	}
	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  params,
	})
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), request)
	resultBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var response toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	return response
}

// decodeToolError parses the structured error carried by an error result.
func decodeToolError(t *testing.T, r toolResponse) ErrorResponse {
	t.Helper()
	require.True(t, r.Result.IsError, "expected an error result")
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(r.text(t)), &errResp))
	return errResp
}
