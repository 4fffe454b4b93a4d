package llm

import (
	"context"
	"sync"
)

// MockGenerator is a configurable mock for testing generation flows.
// Set the function fields to control behavior in tests.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns a result echoing the prompt.
	GenerateFunc func(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Endpoint is returned by GetEndpoint. Defaults to "http://mock-endpoint".
	Endpoint string

	mu       sync.Mutex
	requests []*GenerateRequest
}

// NewMockGenerator creates a new mock with sensible defaults.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{
		Content:          "<html><body>" + req.Prompt + "</body></html>",
		Model:            m.Model,
		PromptTokens:     len(req.Prompt),
		CompletionTokens: 10,
		TotalTokens:      len(req.Prompt) + 10,
	}, nil
}

// GetModel implements Generator.
func (m *MockGenerator) GetModel() string {
	return m.Model
}

// GetEndpoint implements Generator.
func (m *MockGenerator) GetEndpoint() string {
	return m.Endpoint
}

// Requests returns the requests received so far.
func (m *MockGenerator) Requests() []*GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*GenerateRequest(nil), m.requests...)
}

var _ Generator = (*MockGenerator)(nil)
