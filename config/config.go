// Package config loads pipeline configuration from YAML with environment
// variable overrides.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("uiflow.yaml").
//	    WithEnvPrefix("UIFLOW").
//	    Load()
//
// Precedence: defaults, then the YAML file, then environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/uiflow/llm"
	"github.com/BaSui01/uiflow/validate"
)

// Config is the full pipeline configuration.
type Config struct {
	// Provider is the LLM transport configuration consumed by the client.
	Provider llm.ProviderConfig `yaml:"provider"`

	// Retry bounds the self-correction loop.
	Retry RetryConfig `yaml:"retry"`

	// Tokens is the design-token catalog for the style-compliance layer.
	// Nil selects the built-in catalog.
	Tokens *validate.TokenCatalog `yaml:"tokens,omitempty"`

	// Components is an optional component catalog, keyed by type name.
	// The surrounding application usually injects its own Catalog instead.
	Components map[string]*validate.PropSchema `yaml:"components,omitempty"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log"`
}

// RetryConfig configures the retry controller.
type RetryConfig struct {
	// MaxRetries bounds attempts per run, including the first.
	MaxRetries int `yaml:"max_retries"`
	// Timeout bounds each individual attempt.
	Timeout time.Duration `yaml:"timeout"`
	// InitialDelay enables exponential backoff between attempts when > 0.
	InitialDelay time.Duration `yaml:"initial_delay"`
	// MaxDelay caps the backoff.
	MaxDelay time.Duration `yaml:"max_delay"`
	// IncludePreviousOutput embeds the previous raw output in retry prompts.
	IncludePreviousOutput bool `yaml:"include_previous_output"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is json or console.
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Provider: llm.ProviderConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
			Timeout:  60 * time.Second,
		},
		Retry: RetryConfig{
			MaxRetries: 3,
			Timeout:    90 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Loader loads configuration with the defaults -> file -> env precedence.
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader creates a Loader with the UIFLOW env prefix.
func NewLoader() *Loader {
	return &Loader{envPrefix: "UIFLOW"}
}

// WithConfigPath sets the YAML file path. Empty skips file loading.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix overrides the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load resolves the configuration.
func (l *Loader) Load() (*Config, error) {
	cfg := Default()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	l.applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides scalar settings from the environment.
func (l *Loader) applyEnv(cfg *Config) {
	set := func(key string, apply func(string)) {
		if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok && v != "" {
			apply(v)
		}
	}

	set("PROVIDER", func(v string) { cfg.Provider.Provider = v })
	set("API_KEY", func(v string) { cfg.Provider.APIKey = v })
	set("MODEL", func(v string) { cfg.Provider.Model = v })
	set("ENDPOINT", func(v string) { cfg.Provider.Endpoint = v })
	set("MAX_RETRIES", func(v string) {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Retry.MaxRetries = n
		}
	})
	set("TIMEOUT", func(v string) {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retry.Timeout = d
		}
	})
	set("LOG_LEVEL", func(v string) { cfg.Log.Level = v })
	set("LOG_FORMAT", func(v string) { cfg.Log.Format = v })

	// Provider-native key variables are honored as a fallback, matching
	// what users already export for other tooling.
	if cfg.Provider.APIKey == "" {
		switch strings.ToLower(cfg.Provider.Provider) {
		case "anthropic":
			cfg.Provider.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
}

// Validate rejects configurations that cannot produce a working pipeline.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Provider.Provider) {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider %q", c.Provider.Provider)
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("retry.max_retries must be at least 1")
	}
	return nil
}

// Catalog builds a validate.Catalog from the configured components, or nil
// when none are configured.
func (c *Config) Catalog() validate.Catalog {
	if len(c.Components) == 0 {
		return nil
	}
	return validate.MapCatalog(c.Components)
}
