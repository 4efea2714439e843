package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"hn-sentiment/prompt"
)

// DefaultPath is read when no config file is named. It may be absent.
const DefaultPath = "hn-sentiment.yaml"

// Default models per provider.
const (
	DefaultOpenRouterModel = "anthropic/claude-haiku-4.5"
	DefaultAnthropicModel  = "claude-haiku-4-5"
)

// Config holds all application configuration.
type Config struct {
	Provider          string           `yaml:"provider"`
	APIKey            string           `yaml:"api_key"`
	Model             string           `yaml:"model"`
	Temperature       float64          `yaml:"temperature"`
	Concurrency       int              `yaml:"concurrency"`
	HNBaseURL         string           `yaml:"hn_base_url"`
	LLMBaseURL        string           `yaml:"llm_base_url"`
	RequestTimeoutSec int              `yaml:"request_timeout_secs"`
	HNRequestsPerSec  float64          `yaml:"hn_requests_per_sec"`
	DBPath            string           `yaml:"db_path"`
	LogLevel          string           `yaml:"log_level"`
	Templates         prompt.Templates `yaml:"templates"`
	TelegramToken     string           `yaml:"telegram_token"`
	ChatID            int64            `yaml:"chat_id"`
	RefreshTime       string           `yaml:"refresh_time"`
	Timezone          string           `yaml:"timezone"`
	MetricsAddr       string           `yaml:"metrics_addr"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		Provider:          "openrouter",
		Model:             DefaultOpenRouterModel,
		Temperature:       0.3,
		Concurrency:       8,
		HNBaseURL:         "https://hacker-news.firebaseio.com",
		RequestTimeoutSec: 30,
		HNRequestsPerSec:  20,
		DBPath:            "./hn-sentiment.db",
		LogLevel:          "info",
		RefreshTime:       "06:00",
		Timezone:          "UTC",
	}
}

// Load reads a YAML config file and returns a validated Config.
// HN_SENTIMENT_CONFIG overrides path and HN_SENTIMENT_DB overrides the
// database path. An empty path means DefaultPath, which is allowed to be
// missing. The API key falls back to OPENROUTER_API_KEY or
// ANTHROPIC_API_KEY depending on the provider.
func Load(path string) (Config, error) {
	if envPath := os.Getenv("HN_SENTIMENT_CONFIG"); envPath != "" {
		path = envPath
	}
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	cfg := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	case optional && errors.Is(err, fs.ErrNotExist):
		slog.Debug("no config file, using defaults", "path", path)
	default:
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}

	// The OpenRouter slug is not a valid Anthropic model ID.
	if cfg.Provider == "anthropic" && cfg.Model == DefaultOpenRouterModel {
		cfg.Model = DefaultAnthropicModel
	}

	if envDB := os.Getenv("HN_SENTIMENT_DB"); envDB != "" {
		cfg.DBPath = envDB
	}

	if cfg.APIKey == "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			cfg.APIKey = os.Getenv("OPENROUTER_API_KEY")
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that values are present and in range. The API key is
// checked separately by RequireAPIKey since read-only commands do not need it.
func (c *Config) Validate() error {
	if c.Provider != "openrouter" && c.Provider != "anthropic" {
		return fmt.Errorf("invalid provider %q: must be openrouter or anthropic", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("invalid temperature %v: must be between 0 and 2", c.Temperature)
	}
	if c.Concurrency < 1 || c.Concurrency > 8 {
		return fmt.Errorf("invalid concurrency %d: must be between 1 and 8", c.Concurrency)
	}
	if c.RequestTimeoutSec <= 0 {
		return fmt.Errorf("request_timeout_secs must be positive")
	}
	if c.HNRequestsPerSec < 0 {
		return fmt.Errorf("hn_requests_per_sec must not be negative")
	}
	if c.HNBaseURL == "" {
		return fmt.Errorf("hn_base_url is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if c.TelegramToken != "" && c.ChatID == 0 {
		return fmt.Errorf("chat_id is required when telegram_token is set")
	}

	if err := ValidateTime(c.RefreshTime); err != nil {
		return err
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// RequireAPIKey reports an error naming the environment variable to set
// when no API key is configured.
func (c *Config) RequireAPIKey() error {
	if c.APIKey != "" {
		return nil
	}
	env := "OPENROUTER_API_KEY"
	if c.Provider == "anthropic" {
		env = "ANTHROPIC_API_KEY"
	}
	return fmt.Errorf("api_key is required (set it in the config file or %s)", env)
}

// RequestTimeout returns the per-request HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// NotificationsEnabled reports whether Telegram digests should be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramToken != "" && c.ChatID != 0
}

// ParseLogLevel maps a log_level value to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q: must be debug, info, warn or error", s)
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
