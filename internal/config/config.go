// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete tagbot configuration.
type Config struct {
	Mistral   MistralConfig   `toml:"mistral"`
	Telegram  TelegramConfig  `toml:"telegram"`
	Tags      TagsConfig      `toml:"tags"`
	Help      HelpConfig      `toml:"help"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Logging   LoggingConfig   `toml:"logging"`
}

// MistralConfig configures the model client shared by all generators.
type MistralConfig struct {
	// Token is the Mistral API key. Required.
	Token string `toml:"token"`
	// BaseURL overrides the chat-completions endpoint (tests, proxies).
	BaseURL string `toml:"base_url"`
	// Model is the target model id.
	Model string `toml:"model"`
	// Temperature in [0, 2] applied to all generators except the
	// persona-override branch of the help answerer.
	Temperature float64 `toml:"temperature"`
	// RandomSeed makes model output reproducible across runs.
	RandomSeed int64 `toml:"random_seed"`
	// TimeoutSecs bounds one completion call.
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond rate-limits outbound completion calls across
	// all generators. Zero disables limiting.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	// Burst is the rate limiter burst size.
	Burst int `toml:"burst"`
}

// TelegramConfig configures the chat transport.
type TelegramConfig struct {
	// Token is the Telegram bot token. Required.
	Token string `toml:"token"`
	// PollTimeoutSecs is the long-poll timeout for getUpdates.
	PollTimeoutSecs int `toml:"poll_timeout_secs"`
	// Debug enables the transport library's request logging.
	Debug bool `toml:"debug"`
}

// TagsConfig configures the tag extractor.
type TagsConfig struct {
	// MaxTags caps the parsed tag list. Zero means unlimited.
	MaxTags int `toml:"max_tags"`
}

// HelpConfig configures the help answerer.
type HelpConfig struct {
	// EasterEggChance is the probability in [0, 1] of the sentient
	// assistant persona. Zero disables it. Reloadable at runtime.
	EasterEggChance float64 `toml:"easter_egg_chance"`
}

// TelemetryConfig configures usage recording.
type TelemetryConfig struct {
	// Enabled turns token-usage recording on.
	Enabled bool `toml:"enabled"`
	// DBPath is the SQLite database file. Empty means
	// ~/.tagbot/usage.db.
	DBPath string `toml:"db_path"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of: debug, info, warn, error.
	Level string `toml:"level"`
	// Format is "console" or "json".
	Format string `toml:"format"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with default values. Tokens are left empty
// and must come from the file or the environment.
func Default() *Config {
	return &Config{
		Mistral: MistralConfig{
			Model:             "mistral-tiny",
			Temperature:       0.5,
			RandomSeed:        123,
			TimeoutSecs:       60,
			RequestsPerSecond: 1,
			Burst:             3,
		},
		Telegram: TelegramConfig{
			PollTimeoutSecs: 30,
		},
		Tags: TagsConfig{
			MaxTags: 6,
		},
		Help: HelpConfig{
			EasterEggChance: 0,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// SetDefaults fills zero-valued fields from Default. Booleans are left
// as decoded.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Mistral.Model == "" {
		c.Mistral.Model = def.Mistral.Model
	}
	if c.Mistral.TimeoutSecs == 0 {
		c.Mistral.TimeoutSecs = def.Mistral.TimeoutSecs
	}
	if c.Mistral.Burst == 0 {
		c.Mistral.Burst = def.Mistral.Burst
	}
	if c.Telegram.PollTimeoutSecs == 0 {
		c.Telegram.PollTimeoutSecs = def.Telegram.PollTimeoutSecs
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// ConfigDir returns the tagbot configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tagbot"), nil
}

// ConfigPath returns the default config file path, honoring the
// TAGBOT_CONFIG override.
func ConfigPath() (string, error) {
	if path := os.Getenv("TAGBOT_CONFIG"); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDBPath returns the default usage database path.
func DefaultDBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "usage.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load resolves and loads the configuration: defaults, then the config
// file if present, then environment overrides, then validation.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads the configuration from an explicit file path. The
// file must exist.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - TAGBOT_MISTRAL_TOKEN: mistral.token
//   - TAGBOT_TELEGRAM_TOKEN: telegram.token
//   - TAGBOT_MODEL: mistral.model
//   - TAGBOT_TEMPERATURE: mistral.temperature
//   - TAGBOT_RANDOM_SEED: mistral.random_seed
//   - TAGBOT_EASTER_EGG_CHANCE: help.easter_egg_chance
//   - TAGBOT_LOG_LEVEL: logging.level
func (c *Config) ApplyEnvOverrides() {
	if token := os.Getenv("TAGBOT_MISTRAL_TOKEN"); token != "" {
		c.Mistral.Token = token
	}
	if token := os.Getenv("TAGBOT_TELEGRAM_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if model := os.Getenv("TAGBOT_MODEL"); model != "" {
		c.Mistral.Model = model
	}
	if temp := os.Getenv("TAGBOT_TEMPERATURE"); temp != "" {
		if v, err := strconv.ParseFloat(temp, 64); err == nil {
			c.Mistral.Temperature = v
		}
	}
	if seed := os.Getenv("TAGBOT_RANDOM_SEED"); seed != "" {
		if v, err := strconv.ParseInt(seed, 10, 64); err == nil {
			c.Mistral.RandomSeed = v
		}
	}
	if chance := os.Getenv("TAGBOT_EASTER_EGG_CHANCE"); chance != "" {
		if v, err := strconv.ParseFloat(chance, 64); err == nil {
			c.Help.EasterEggChance = v
		}
	}
	if level := os.Getenv("TAGBOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns all problems at once.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Mistral.Token == "" {
		errs = append(errs, ValidationError{
			Field:   "mistral.token",
			Message: "required (set TAGBOT_MISTRAL_TOKEN or mistral.token)",
		})
	}
	if c.Telegram.Token == "" {
		errs = append(errs, ValidationError{
			Field:   "telegram.token",
			Message: "required (set TAGBOT_TELEGRAM_TOKEN or telegram.token)",
		})
	}
	if c.Mistral.Temperature < 0 || c.Mistral.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "mistral.temperature",
			Message: fmt.Sprintf("must be in [0, 2], got %v", c.Mistral.Temperature),
		})
	}
	if c.Mistral.BaseURL != "" {
		if _, err := url.Parse(c.Mistral.BaseURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "mistral.base_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if c.Mistral.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "mistral.requests_per_second",
			Message: "cannot be negative",
		})
	}
	if c.Telegram.PollTimeoutSecs < 1 || c.Telegram.PollTimeoutSecs > 90 {
		errs = append(errs, ValidationError{
			Field:   "telegram.poll_timeout_secs",
			Message: fmt.Sprintf("must be in [1, 90], got %d", c.Telegram.PollTimeoutSecs),
		})
	}
	if c.Tags.MaxTags < 0 {
		errs = append(errs, ValidationError{
			Field:   "tags.max_tags",
			Message: "cannot be negative",
		})
	}
	if c.Help.EasterEggChance < 0 || c.Help.EasterEggChance > 1 {
		errs = append(errs, ValidationError{
			Field:   "help.easter_egg_chance",
			Message: fmt.Sprintf("must be in [0, 1], got %v", c.Help.EasterEggChance),
		})
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: console, json", c.Logging.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
