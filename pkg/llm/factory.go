package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/buildyoursite/buildyoursite-engine/pkg/config"
)

// NewGenerator creates the client for the configured provider.
func NewGenerator(cfg *config.LLMConfig, logger *zap.Logger) (Generator, error) {
	clientCfg := &Config{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		Timeout:  cfg.Timeout,
	}

	switch cfg.Provider {
	case config.LLMProviderOpenAI, "":
		client, err := NewClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create openai client: %w", err)
		}
		return client, nil
	case config.LLMProviderAnthropic:
		client, err := NewAnthropicClient(clientCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
