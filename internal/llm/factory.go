package llm

import (
	"context"
	"fmt"

	"go-paper-orders/internal/config"

	"go.uber.org/zap"
)

// NewCapability builds the configured provider. LLM_PROVIDER=none yields
// ErrDisabled.
func NewCapability(ctx context.Context, cfg *config.Config, log *zap.Logger) (Capability, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAICapability(OpenAIConfig{
			APIKey:     cfg.LLMAPIKey,
			BaseURL:    cfg.LLMBaseURL,
			Model:      cfg.LLMModel,
			Timeout:    cfg.LLMTimeout,
			MaxRetries: 2,
		}, log), nil
	case config.ProviderGemini:
		return NewGeminiCapability(ctx, cfg.LLMAPIKey, cfg.LLMModel, log)
	case config.ProviderNone, "":
		return nil, ErrDisabled
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.LLMProvider)
	}
}
