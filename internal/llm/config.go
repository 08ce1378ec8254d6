package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint used for the
// openrouter provider.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// Config selects and configures the LLM backend for generated distractors.
type Config struct {
	Provider string `mapstructure:"provider"`

	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Retry     RetryConfig     `mapstructure:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `mapstructure:"timeout"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenAIConfig also serves OpenRouter and other compatible endpoints
// through BaseURL.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// RetryConfig controls backoff on transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns the mock provider with short retries. Distractor
// generation has a tight budget so waits stay small.
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderMock,
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     time.Second,
			Multiplier:  2.0,
		},
		Timeout: 10 * time.Second,
	}
}

// ConfigFromEnv reads TIMESTABLES_LLM_* variables on top of DefaultConfig,
// e.g. TIMESTABLES_LLM_PROVIDER and TIMESTABLES_LLM_OPENAI_API_KEY.
func ConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetEnvPrefix("TIMESTABLES_LLM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range []string{
		"provider", "timeout",
		"anthropic.api_key", "anthropic.model",
		"openai.api_key", "openai.model", "openai.base_url",
		"gemini.api_key", "gemini.model",
		"retry.max_attempts", "retry.initial_wait", "retry.max_wait", "retry.multiplier",
	} {
		_ = v.BindEnv(k)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode LLM config: %w", err)
	}
	return cfg.normalize(), nil
}

// normalize maps the openrouter alias onto the OpenAI client.
func (c Config) normalize() Config {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == ProviderOpenRouter && c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = OpenRouterBaseURL
	}
	return c
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("TIMESTABLES_LLM_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI, ProviderOpenRouter:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("TIMESTABLES_LLM_OPENAI_API_KEY is required for the %s provider", c.Provider)
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("TIMESTABLES_LLM_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderMock:
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be >= 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
