package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Provider names.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures an LLM provider. An empty Provider means
// no LLM is configured.
type Config struct {
	Provider string `mapstructure:"provider" yaml:"provider" validate:"omitempty,oneof=anthropic openai gemini openrouter mock"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic" yaml:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai" yaml:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini" yaml:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter" yaml:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry" yaml:"retry"`

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"`
	Model  string `mapstructure:"model" yaml:"model"`
}

type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"`
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// RetryConfig configures exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts" validate:"gte=1"`
	InitialWait time.Duration `mapstructure:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait" yaml:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier" yaml:"multiplier" validate:"gte=1"`
}

// DefaultConfig returns the defaults with no provider selected.
func DefaultConfig() Config {
	return Config{
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// Discover fills in a provider from the vendors' standard API key
// variables when cfg has none selected (Anthropic, then OpenAI, Gemini
// and OpenRouter). It reports whether a provider is selected afterwards.
func Discover(cfg Config) (Config, bool) {
	if cfg.Provider != "" {
		return cfg, true
	}
	vendors := []struct {
		env      string
		provider string
		set      func(string)
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic, func(k string) { cfg.Anthropic.APIKey = k }},
		{"OPENAI_API_KEY", ProviderOpenAI, func(k string) { cfg.OpenAI.APIKey = k }},
		{"GEMINI_API_KEY", ProviderGemini, func(k string) { cfg.Gemini.APIKey = k }},
		{"OPENROUTER_API_KEY", ProviderOpenRouter, func(k string) { cfg.OpenRouter.APIKey = k }},
	}
	for _, p := range vendors {
		if k := os.Getenv(p.env); k != "" {
			cfg.Provider = p.provider
			p.set(k)
			return cfg, true
		}
	}
	return cfg, false
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case ProviderAnthropic:
		key = c.Anthropic.APIKey
	case ProviderOpenAI:
		key = c.OpenAI.APIKey
	case ProviderGemini:
		key = c.Gemini.APIKey
	case ProviderOpenRouter:
		key = c.OpenRouter.APIKey
	case ProviderMock:
		return nil
	case "":
		return fmt.Errorf("no LLM provider configured")
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("PROOFCHECK_LLM_%s_API_KEY is required for the %s provider", strings.ToUpper(c.Provider), c.Provider)
	}
	return nil
}
