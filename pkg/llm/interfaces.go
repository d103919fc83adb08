// Package llm provides text-generation clients for SQL translation.
package llm

import "context"

// Client is the text-generation backend used by the translator.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// GenerateResponse generates a completion for the prompt under the
	// given system instruction, bounded by maxTokens.
	GenerateResponse(ctx context.Context, prompt, systemMessage string, maxTokens int) (string, error)

	// Model returns the configured model name.
	Model() string
}

// Config holds configuration for creating a client.
type Config struct {
	Provider  string // "openai" (any OpenAI-compatible endpoint) or "anthropic"
	Endpoint  string // base URL for OpenAI-compatible endpoints
	Model     string
	APIKey    string
	MaxTokens int // default completion budget when a caller passes 0
}
