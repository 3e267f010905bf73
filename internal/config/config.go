// Package config loads proofcheck settings. Precedence, highest first:
// flags, PROOFCHECK_* environment variables, the config file, defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/proofcheck/internal/batch"
	"github.com/abhisek/proofcheck/internal/engine"
	"github.com/abhisek/proofcheck/internal/explain"
	"github.com/abhisek/proofcheck/internal/export"
	"github.com/abhisek/proofcheck/internal/llm"
	"github.com/abhisek/proofcheck/internal/rules"
	"github.com/abhisek/proofcheck/internal/textmodel"
)

// EnvPrefix prefixes every environment override, e.g.
// PROOFCHECK_BATCH_WORKERS.
const EnvPrefix = "PROOFCHECK"

// Config is the full application configuration.
type Config struct {
	Engine  engine.Config  `mapstructure:"engine" yaml:"engine"`
	Rules   rules.Config   `mapstructure:"rules" yaml:"rules"`
	Model   ModelConfig    `mapstructure:"model" yaml:"model"`
	Batch   BatchConfig    `mapstructure:"batch" yaml:"batch"`
	Store   StoreConfig    `mapstructure:"store" yaml:"store"`
	Log     LogConfig      `mapstructure:"log" yaml:"log"`
	LLM     llm.Config     `mapstructure:"llm" yaml:"llm"`
	Explain explain.Config `mapstructure:"explain" yaml:"explain"`
}

type ModelConfig struct {
	// BundleDir holds vectorizer.json and classifier.json. Empty runs
	// rules-only.
	BundleDir        string  `mapstructure:"bundle_dir" yaml:"bundle_dir"`
	DecisionBoundary float64 `mapstructure:"decision_boundary" yaml:"decision_boundary" validate:"gt=0,lt=1"`
}

type BatchConfig struct {
	Workers       int  `mapstructure:"workers" yaml:"workers" validate:"gte=1"`
	AllowRules    bool `mapstructure:"allow_rules" yaml:"allow_rules"`
	PreviewLength int  `mapstructure:"preview_length" yaml:"preview_length" validate:"gte=0"`
}

type StoreConfig struct {
	// Path overrides the default database location.
	Path     string `mapstructure:"path" yaml:"path"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns every setting at its default.
func Default() Config {
	return Config{
		Engine: engine.DefaultConfig(),
		Rules:  rules.DefaultConfig(),
		Model:  ModelConfig{DecisionBoundary: textmodel.DefaultDecisionBoundary},
		Batch: BatchConfig{
			Workers:       batch.DefaultWorkers,
			AllowRules:    false,
			PreviewLength: export.DefaultPreviewLength,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		LLM:     llm.DefaultConfig(),
		Explain: explain.DefaultConfig(),
	}
}

var validate = validator.New()

// Validate checks field constraints. LLM credentials are checked only
// when explanations are enabled, after vendor key discovery.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Explain.Enabled {
		llmCfg, _ := llm.Discover(c.LLM)
		if err := llmCfg.Validate(); err != nil {
			return fmt.Errorf("explain.enabled requires an LLM: %w", err)
		}
	}
	return nil
}

// SetDefaults registers every default key on v, which also makes each
// key resolvable from the environment.
func SetDefaults(v *viper.Viper) error {
	m, err := toMap(Default())
	if err != nil {
		return err
	}
	walk(m, "", v.SetDefault)
	return nil
}

// Configure applies defaults and environment binding to v.
func Configure(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return SetDefaults(v)
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultPath is ~/.proofcheck/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".proofcheck", "config.yaml"), nil
}

// WriteDefault writes the defaults to path. An existing file is left
// untouched and reported as an error.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	header := "# proofcheck configuration\n" +
		"# Environment overrides use PROOFCHECK_<SECTION>_<KEY>, e.g. PROOFCHECK_BATCH_WORKERS=8.\n\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o600)
}

// Redacted returns a copy of c with API keys masked, for display.
func (c Config) Redacted() Config {
	c.LLM.Anthropic.APIKey = mask(c.LLM.Anthropic.APIKey)
	c.LLM.OpenAI.APIKey = mask(c.LLM.OpenAI.APIKey)
	c.LLM.Gemini.APIKey = mask(c.LLM.Gemini.APIKey)
	c.LLM.OpenRouter.APIKey = mask(c.LLM.OpenRouter.APIKey)
	return c
}

func mask(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}

func toMap(cfg Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal defaults: %w", err)
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal defaults: %w", err)
	}
	return m, nil
}

func walk(m map[string]any, prefix string, set func(string, any)) {
	for k, val := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok {
			walk(sub, key, set)
			continue
		}
		set(key, val)
	}
}
