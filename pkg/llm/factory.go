package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// New creates the client for cfg.Provider.
func New(cfg *Config, logger *zap.Logger) (LLMClient, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return NewClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
