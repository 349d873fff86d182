package llm

import (
	"context"
	"fmt"

	"github.com/sandevgo/hashia/internal/config"
	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

// NewProvider creates the completer selected by configuration.
func NewProvider(ctx context.Context, cfg *config.ProviderConfig, systemInstruction string) (core.Completer, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting llm provider")

	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGemini(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.Model, systemInstruction, cfg.Timeout), nil
	case config.ProviderOpenAI:
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model, systemInstruction, cfg.Timeout), nil
	case config.ProviderAnthropic:
		return NewAnthropic("", cfg.AnthropicAPIKey, cfg.Model, systemInstruction, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
