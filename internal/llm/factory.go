package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/timestables/internal/logger"
	"github.com/abhisek/timestables/internal/store"
)

// NewProvider builds the configured backend wrapped as
// caller -> retry -> logging -> base. A nil recorder skips request
// recording.
func NewProvider(ctx context.Context, cfg Config, recorder store.LLMRequestLog, log *logger.Logger) (Provider, error) {
	cfg = cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		base Provider
		err  error
	)
	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI, ProviderOpenRouter:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	log.Info("llm provider ready", "provider", cfg.Provider, "model", base.ModelID())
	return WithRetry(WithLogging(base, cfg.Provider, recorder, log), cfg.Retry), nil
}
