// Package config loads deepresearch settings from an optional file, the
// environment and an optional .env file, and validates them before any
// model client is built.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DEEPRESEARCH_MODEL_NAME or DEEPRESEARCH_SERVER_ADDRESS.
const EnvPrefix = "DEEPRESEARCH"

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	WorkflowAdvisory = "advisory"
	WorkflowStrict   = "strict"
)

// ErrMissingAPIKey is returned when the environment variable named by
// model.api_key_env is unset or empty.
var ErrMissingAPIKey = errors.New("missing API key")

// Config contains all runtime settings.
type Config struct {
	Model         ModelConfig  `mapstructure:"model" json:"model" validate:"required"`
	Workflow      string       `mapstructure:"workflow" json:"workflow" validate:"required,oneof=advisory strict"`
	MaxModelCalls int          `mapstructure:"max_model_calls" json:"max_model_calls" validate:"min=0"`
	Log           LogConfig    `mapstructure:"log" json:"log"`
	Server        ServerConfig `mapstructure:"server" json:"server"`
}

// ModelConfig selects and parameterizes the model provider.
type ModelConfig struct {
	Provider            string  `mapstructure:"provider" json:"provider" validate:"required,oneof=openai anthropic"`
	Name                string  `mapstructure:"name" json:"name"`
	BaseURL             string  `mapstructure:"base_url" json:"base_url,omitempty" validate:"omitempty,url"`
	APIKeyEnv           string  `mapstructure:"api_key_env" json:"api_key_env"`
	Temperature         float64 `mapstructure:"temperature" json:"temperature" validate:"min=0,max=2"`
	MaxCompletionTokens int64   `mapstructure:"max_completion_tokens" json:"max_completion_tokens" validate:"min=0"`

	// APIKey is resolved from APIKeyEnv and never serialized.
	APIKey string `mapstructure:"-" json:"-"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format string `mapstructure:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// ServerConfig controls the HTTP front-end.
type ServerConfig struct {
	Address string `mapstructure:"address" json:"address" validate:"required"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:            ProviderOpenAI,
			Temperature:         0.7,
			MaxCompletionTokens: 4096,
		},
		Workflow:      WorkflowAdvisory,
		MaxModelCalls: 25,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
	}
}

// LoadDotEnv loads environment variables from the given .env files (default
// ".env"). Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}

// LoadOptions tweaks Load.
type LoadOptions struct {
	// SkipAPIKey leaves Model.APIKey empty instead of failing with
	// ErrMissingAPIKey. Used by commands that never call the model.
	SkipAPIKey bool
}

// Load reads configuration from path (YAML, JSON or TOML; empty path skips
// the file), applies DEEPRESEARCH_* environment overrides, fills provider
// defaults, validates the result and resolves the API key.
func Load(path string, optFns ...func(o *LoadOptions)) (*Config, error) {
	opts := LoadOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", path)
		}

		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if opts.SkipAPIKey {
		return cfg, nil
	}

	if err := cfg.ResolveAPIKey(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("model.provider", d.Model.Provider)
	v.SetDefault("model.name", d.Model.Name)
	v.SetDefault("model.base_url", d.Model.BaseURL)
	v.SetDefault("model.api_key_env", d.Model.APIKeyEnv)
	v.SetDefault("model.temperature", d.Model.Temperature)
	v.SetDefault("model.max_completion_tokens", d.Model.MaxCompletionTokens)
	v.SetDefault("workflow", d.Workflow)
	v.SetDefault("max_model_calls", d.MaxModelCalls)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("server.address", d.Server.Address)
}

// applyProviderDefaults fills model name, base URL and key variable for the
// selected provider when they were left empty.
func (c *Config) applyProviderDefaults() {
	c.Model.Provider = strings.ToLower(strings.TrimSpace(c.Model.Provider))
	c.Workflow = strings.ToLower(strings.TrimSpace(c.Workflow))

	switch c.Model.Provider {
	case ProviderOpenAI:
		if c.Model.Name == "" {
			c.Model.Name = "gemini-2.5-flash"
		}
		if c.Model.BaseURL == "" {
			c.Model.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
		}
		if c.Model.APIKeyEnv == "" {
			c.Model.APIKeyEnv = "GEMINI_API_KEY"
		}
	case ProviderAnthropic:
		if c.Model.Name == "" {
			c.Model.Name = "claude-3-5-sonnet-20241022"
		}
		if c.Model.APIKeyEnv == "" {
			c.Model.APIKeyEnv = "ANTHROPIC_API_KEY"
		}
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}

	if c.Model.Name == "" {
		return fmt.Errorf("model.name cannot be empty")
	}

	if c.Model.APIKeyEnv == "" {
		return fmt.Errorf("model.api_key_env cannot be empty")
	}

	return nil
}

// ResolveAPIKey reads the API key from the configured environment variable.
func (c *Config) ResolveAPIKey() error {
	key := strings.TrimSpace(os.Getenv(c.Model.APIKeyEnv))
	if key == "" {
		return fmt.Errorf("%w: environment variable %s is not set", ErrMissingAPIKey, c.Model.APIKeyEnv)
	}

	c.Model.APIKey = key

	return nil
}

// Strict reports whether the fixed search, summarize, synthesize pipeline
// replaces the tool-calling manager.
func (c *Config) Strict() bool { return c.Workflow == WorkflowStrict }

// String returns an indented JSON rendering with the API key masked.
func (c *Config) String() string {
	cp := *c

	masked := struct {
		*Config
		APIKey string `json:"api_key,omitempty"`
	}{Config: &cp}

	if c.Model.APIKey != "" {
		masked.APIKey = "***"
	}

	data, err := json.MarshalIndent(masked, "", "  ")
	if err != nil {
		return fmt.Sprintf("config: %v", err)
	}

	return string(data)
}
