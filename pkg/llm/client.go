package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client talks to OpenAI-compatible chat completion endpoints, including
// local servers such as Ollama or vLLM.
type Client struct {
	client    *openai.Client
	endpoint  string
	model     string
	maxTokens int
	logger    *zap.Logger
}

// NewClient creates a new OpenAI-compatible LLM client.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	switch {
	case cfg.Endpoint == "":
		return nil, errors.New("endpoint is required")
	case cfg.Model == "":
		return nil, errors.New("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &Client{
		client:    openai.NewClientWithConfig(clientConfig),
		endpoint:  clientConfig.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		logger:    logger.Named("llm").With(zap.String("provider", ProviderOpenAI)),
	}, nil
}

// GenerateResponse sends one system and one user message and returns the first choice.
func (c *Client) GenerateResponse(
	ctx context.Context,
	prompt string,
	systemMessage string,
	temperature float64,
) (*GenerateResponseResult, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(temperature),
		MaxTokens:   c.maxTokens,
	}

	c.logger.Debug("LLM request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(prompt)),
		zap.Float64("temperature", temperature))
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("LLM request failed", zap.Duration("elapsed", elapsed), zap.Error(err))
		llmErr := ClassifyError(err)
		llmErr.Model = c.model
		llmErr.Endpoint = c.endpoint
		return nil, llmErr
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{Type: ErrorTypeEmpty, Message: "no choices in response", Retryable: true, Model: c.model}
	}
	choice := resp.Choices[0]
	if strings.TrimSpace(choice.Message.Content) == "" {
		return nil, &Error{Type: ErrorTypeEmpty, Message: "no content in response", Retryable: true, Model: c.model}
	}

	result := &GenerateResponseResult{
		Content:          choice.Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
		Truncated:        choice.FinishReason == openai.FinishReasonLength,
	}

	c.logger.Info("LLM request completed",
		zap.Int("prompt_tokens", result.PromptTokens),
		zap.Int("completion_tokens", result.CompletionTokens),
		zap.Bool("truncated", result.Truncated),
		zap.Duration("elapsed", elapsed))
	return result, nil
}

// GetModel returns the configured model name.
func (c *Client) GetModel() string {
	return c.model
}

// GetProvider returns "openai".
func (c *Client) GetProvider() string {
	return ProviderOpenAI
}
