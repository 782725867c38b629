// Package llm drafts text through OpenAI-compatible or Anthropic chat models.
package llm

import (
	"context"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// LLMClient defines the interface for LLM operations.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a single chat completion.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetProvider returns the provider name ("openai" or "anthropic").
	GetProvider() string
}

// GenerateResponseResult holds the completion text and token usage.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	// Truncated is set when the model stopped at the max token limit.
	Truncated bool
}

// Config holds configuration for creating an LLM client.
type Config struct {
	Provider  string // "openai" or "anthropic"
	Endpoint  string // Base URL, e.g. "https://api.openai.com/v1"
	Model     string
	APIKey    string // Optional for local OpenAI-compatible endpoints
	MaxTokens int
}

var (
	_ LLMClient = (*Client)(nil)
	_ LLMClient = (*AnthropicClient)(nil)
)
