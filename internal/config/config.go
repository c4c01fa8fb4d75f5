// Package config provides configuration management for the journal.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Journal       JournalConfig      `mapstructure:"journal"`
	Generation    GenerationConfig   `mapstructure:"generation"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// JournalConfig holds journal storage configuration.
type JournalConfig struct {
	DBPath   string `mapstructure:"db_path"`
	Currency string `mapstructure:"currency"`
}

// GenerationConfig holds reflection generation pacing.
type GenerationConfig struct {
	OnStartup          bool `mapstructure:"on_startup"`
	MinIntervalSeconds int  `mapstructure:"min_interval_seconds"`
	BatchSize          int  `mapstructure:"batch_size"`
	YieldMillis        int  `mapstructure:"yield_millis"`
}

// MinInterval returns the minimum re-trigger interval as a duration.
func (g GenerationConfig) MinInterval() time.Duration {
	return time.Duration(g.MinIntervalSeconds) * time.Second
}

// YieldDelay returns the inter-batch yield as a duration.
func (g GenerationConfig) YieldDelay() time.Duration {
	return time.Duration(g.YieldMillis) * time.Millisecond
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Console    bool   `mapstructure:"console"`
	File       bool   `mapstructure:"file"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// NotificationConfig holds notification configuration.
type NotificationConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Level   string        `mapstructure:"level"` // all, errors_only
	Webhook WebhookConfig `mapstructure:"webhook"`
}

// WebhookConfig holds webhook notification configuration.
type WebhookConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/trading-journal"
	}
	return filepath.Join(home, ".config", "trading-journal")
}

// Load loads configuration from the specified directory. If configDir
// is empty, the default config directory is used. A missing config file
// produces a template plus defaults rather than an error.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("journal.db_path", filepath.Join(configDir, "journal.db"))
	v.SetDefault("journal.currency", "USD")
	v.SetDefault("generation.on_startup", true)
	v.SetDefault("generation.min_interval_seconds", 30)
	v.SetDefault("generation.batch_size", 8)
	v.SetDefault("generation.yield_millis", 25)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.file", true)
	v.SetDefault("logging.file_path", filepath.Join(configDir, "logs", "journal.log"))
	v.SetDefault("logging.max_size", 50)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("notifications.enabled", true)
	v.SetDefault("notifications.level", "all")
	v.SetDefault("notifications.webhook.enabled", false)
	v.SetDefault("notifications.webhook.url", "")
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("JOURNAL_DB_PATH"); v != "" {
		cfg.Journal.DBPath = v
	}
	if v := os.Getenv("JOURNAL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("JOURNAL_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Webhook.URL = v
		cfg.Notifications.Webhook.Enabled = true
	}
	if v := os.Getenv("JOURNAL_GENERATION_INTERVAL"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.Generation.MinIntervalSeconds = secs
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path must be set")
	}
	// Rapid storage-change events must collapse into one generation
	// pass; anything under 30s defeats the throttle.
	if c.Generation.MinIntervalSeconds < 30 {
		return fmt.Errorf("generation.min_interval_seconds must be at least 30, got %d", c.Generation.MinIntervalSeconds)
	}
	if c.Generation.BatchSize < 1 {
		return fmt.Errorf("generation.batch_size must be positive")
	}
	switch c.Notifications.Level {
	case "", "all", "errors_only":
	default:
		return fmt.Errorf("notifications.level must be 'all' or 'errors_only', got %q", c.Notifications.Level)
	}
	if c.Notifications.Webhook.Enabled && c.Notifications.Webhook.URL == "" {
		return fmt.Errorf("notifications.webhook.url must be set when the webhook is enabled")
	}
	return nil
}

func writeTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	template := `# trading-journal configuration

[journal]
# db_path = "~/.config/trading-journal/journal.db"
currency = "USD"

[generation]
on_startup = true
min_interval_seconds = 30
batch_size = 8
yield_millis = 25

[logging]
level = "info"
console = false
file = true

[notifications]
enabled = true
level = "all"

[notifications.webhook]
enabled = false
url = ""
`
	return os.WriteFile(path, []byte(template), 0644)
}
