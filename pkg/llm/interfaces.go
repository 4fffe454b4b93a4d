// Package llm provides the HTML generation clients used by the website builder.
package llm

import (
	"context"
)

// GenerateRequest is one prompt sent to a generation model.
type GenerateRequest struct {
	Prompt       string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

// GenerateResult is the model output together with usage stats.
type GenerateResult struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator produces website HTML from a natural language prompt.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// Generate runs a single completion.
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// Ensure both providers implement Generator at compile time.
var (
	_ Generator = (*Client)(nil)
	_ Generator = (*AnthropicClient)(nil)
)
