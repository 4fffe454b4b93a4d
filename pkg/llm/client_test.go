package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOpenAITestServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_Generate(t *testing.T) {
	var received map[string]any
	server := newOpenAITestServer(t, func(w http.ResponseWriter, body map[string]any) {
		received = body
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4-0613",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "<html><body>Bakery</body></html>"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 17, "total_tokens": 59}
		}`))
	})

	client, err := NewClient(&Config{Endpoint: server.URL + "/", Model: "gpt-4", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)

	ctx := WithGenerationContext(context.Background(), uuid.New(), "FULL_PAGE")
	result, err := client.Generate(ctx, &GenerateRequest{
		Prompt:       "A landing page for a bakery",
		SystemPrompt: "You are a web developer",
		Temperature:  0.7,
		MaxTokens:    4000,
	})
	require.NoError(t, err)

	assert.Equal(t, "<html><body>Bakery</body></html>", result.Content)
	assert.Equal(t, "gpt-4-0613", result.Model)
	assert.Equal(t, 42, result.PromptTokens)
	assert.Equal(t, 17, result.CompletionTokens)
	assert.Equal(t, 59, result.TotalTokens)

	require.NotNil(t, received)
	assert.Equal(t, "gpt-4", received["model"])
	assert.EqualValues(t, 4000, received["max_tokens"])
	messages, ok := received["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "A landing page for a bakery", messages[1].(map[string]any)["content"])
}

func TestClient_Generate_RateLimited(t *testing.T) {
	server := newOpenAITestServer(t, func(w http.ResponseWriter, body map[string]any) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests", "code": "rate_limit_exceeded"}}`))
	})

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "gpt-4", APIKey: "sk-test"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	require.Error(t, err)

	var llmErr *Error
	require.ErrorAs(t, err, &llmErr)
	assert.Equal(t, ErrorTypeRateLimited, llmErr.Type)
	assert.Equal(t, 429, llmErr.StatusCode)
	assert.Equal(t, "gpt-4", llmErr.Model)
	assert.True(t, IsRetryable(err))
}

func TestClient_Generate_NoChoices(t *testing.T) {
	server := newOpenAITestServer(t, func(w http.ResponseWriter, body map[string]any) {
		_, _ = w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "model": "gpt-4", "choices": []}`))
	})

	client, err := NewClient(&Config{Endpoint: server.URL, Model: "gpt-4"}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
	assert.False(t, IsRetryable(err))
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(&Config{Model: "gpt-4"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, DefaultOpenAIEndpoint, client.GetEndpoint())
	assert.Equal(t, "gpt-4", client.GetModel())

	_, err = NewClient(&Config{}, zap.NewNop())
	assert.Error(t, err)
}
