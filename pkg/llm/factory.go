package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewClient creates a client for the configured provider. The provider
// set is closed; OpenAI-compatible endpoints (including local servers)
// use the "openai" provider with a custom Endpoint.
func NewClient(cfg *Config, logger *zap.Logger) (Client, error) {
	switch cfg.Provider {
	case "", "openai":
		return NewOpenAIClient(cfg, logger)
	case "anthropic":
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
