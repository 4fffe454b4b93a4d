package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
	"github.com/buildyoursite/buildyoursite-engine/pkg/llm"
	"github.com/buildyoursite/buildyoursite-engine/pkg/models"
	"github.com/buildyoursite/buildyoursite-engine/pkg/repositories/memory"
	"github.com/buildyoursite/buildyoursite-engine/pkg/retry"
	"github.com/buildyoursite/buildyoursite-engine/pkg/services"
)

// passthroughScope stands in for database.WithScope when no database is used.
func passthroughScope(h http.HandlerFunc) http.HandlerFunc { return h }

// testAPI is every REST handler mounted over in-memory repositories.
type testAPI struct {
	mux   *http.ServeMux
	repos memory.Repositories
	gen   *llm.MockGenerator
	now   time.Time
}

type testAPIOption func(*testAPIConfig)

type testAPIConfig struct {
	usage      services.UsageAnalytics
	disableLLM bool
}

// withUsage replaces the usage analytics service, for error mapping tests.
func withUsage(usage services.UsageAnalytics) testAPIOption {
	return func(c *testAPIConfig) { c.usage = usage }
}

func withoutLLM() testAPIOption {
	return func(c *testAPIConfig) { c.disableLLM = true }
}

func newTestAPI(t *testing.T, opts ...testAPIOption) *testAPI {
	t.Helper()
	var cfg testAPIConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zap.NewNop()
	api := &testAPI{
		mux:   http.NewServeMux(),
		repos: memory.NewStore().Repositories(),
		gen:   llm.NewMockGenerator(),
		now:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	repos := api.repos

	usage := cfg.usage
	if usage == nil {
		usage = services.NewUsageAnalytics(services.UsageAnalyticsDeps{
			Projects:     repos.Projects,
			Generations:  repos.Generations,
			Edits:        repos.Edits,
			Feedback:     repos.Feedback,
			UsageMetrics: repos.UsageMetrics,
			Now:          func() time.Time { return api.now },
		}, logger)
	}
	promptLogger := services.NewPromptLogger(repos.Projects, repos.Generations, nil, logger)

	var generation services.GenerationService
	if !cfg.disableLLM {
		generation = services.NewGenerationService(repos.Projects, api.gen, promptLogger,
			&config.LLMConfig{Temperature: 0.7, MaxTokens: 4000}, nil, logger,
			services.WithRetryConfig(&retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}))
	}

	NewProjectsHandler(services.NewProjectService(repos.Projects, repos.Generations, repos.Edits, repos.Feedback, logger), usage, logger).
		RegisterRoutes(api.mux, passthroughScope)
	NewGenerationsHandler(promptLogger, logger).RegisterRoutes(api.mux, passthroughScope)
	NewEditsHandler(services.NewEditTracker(repos.Projects, repos.Generations, repos.Edits, nil, logger), logger).
		RegisterRoutes(api.mux, passthroughScope)
	NewFeedbackHandler(services.NewFeedbackCollector(repos.Projects, repos.Feedback, nil, logger), usage, logger).
		RegisterRoutes(api.mux, passthroughScope)
	NewAnalyticsHandler(usage, logger).RegisterRoutes(api.mux, passthroughScope)
	NewGenerateHandler(generation, logger).RegisterRoutes(api.mux)
	return api
}

// do sends a request with an optional JSON body through the mux.
func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) project(t *testing.T, name string) *models.Project {
	t.Helper()
	p := &models.Project{Name: name, Status: models.ProjectStatusActive}
	require.NoError(t, a.repos.Projects.Create(context.Background(), p))
	return p
}

// decodeData decodes a successful ApiResponse envelope and its data into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

// decodeErrorCode returns the error field of an error response.
func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body["error"]
}

// stubUsageAnalytics fails every cross-project operation with err.
type stubUsageAnalytics struct {
	services.UsageAnalytics
	err error
}

func (s *stubUsageAnalytics) CalculateDailyMetrics(ctx context.Context, date *time.Time) (*models.UsageMetric, error) {
	return nil, s.err
}

func (s *stubUsageAnalytics) HistoricalMetrics(ctx context.Context, days *int) ([]*models.UsageMetric, error) {
	return nil, s.err
}

func (s *stubUsageAnalytics) MostEditedGenerationTypes(ctx context.Context) ([]models.EditedGenerationType, error) {
	return nil, s.err
}
