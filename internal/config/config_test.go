package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "journal.db"), cfg.Journal.DBPath)
	assert.Equal(t, "USD", cfg.Journal.Currency)
	assert.True(t, cfg.Generation.OnStartup)
	assert.Equal(t, 30*time.Second, cfg.Generation.MinInterval())
	assert.Equal(t, 8, cfg.Generation.BatchSize)
	assert.Equal(t, 25*time.Millisecond, cfg.Generation.YieldDelay())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Notifications.Enabled)
	assert.False(t, cfg.Notifications.Webhook.Enabled)

	// A template config is written for the next run.
	_, err = os.Stat(filepath.Join(dir, "config.toml"))
	assert.NoError(t, err)
}

func TestLoadReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := `
[journal]
db_path = "/tmp/custom.db"
currency = "EUR"

[generation]
on_startup = false
min_interval_seconds = 60

[notifications]
enabled = false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Journal.DBPath)
	assert.Equal(t, "EUR", cfg.Journal.Currency)
	assert.False(t, cfg.Generation.OnStartup)
	assert.Equal(t, time.Minute, cfg.Generation.MinInterval())
	assert.False(t, cfg.Notifications.Enabled)
	// Unspecified sections fall back to defaults.
	assert.Equal(t, 8, cfg.Generation.BatchSize)
}

func TestLoadRejectsShortInterval(t *testing.T) {
	dir := t.TempDir()
	content := `
[generation]
min_interval_seconds = 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0644))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_interval_seconds")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("JOURNAL_DB_PATH", "/tmp/env.db")
	t.Setenv("JOURNAL_LOG_LEVEL", "debug")
	t.Setenv("JOURNAL_WEBHOOK_URL", "https://example.com/hook")
	t.Setenv("JOURNAL_GENERATION_INTERVAL", "90")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.Journal.DBPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Notifications.Webhook.Enabled)
	assert.Equal(t, "https://example.com/hook", cfg.Notifications.Webhook.URL)
	assert.Equal(t, 90*time.Second, cfg.Generation.MinInterval())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Journal:    JournalConfig{DBPath: "/tmp/j.db"},
			Generation: GenerationConfig{MinIntervalSeconds: 30, BatchSize: 8},
		}
	}

	assert.NoError(t, valid().Validate())

	noDB := valid()
	noDB.Journal.DBPath = ""
	assert.Error(t, noDB.Validate())

	badBatch := valid()
	badBatch.Generation.BatchSize = 0
	assert.Error(t, badBatch.Validate())

	badLevel := valid()
	badLevel.Notifications.Level = "verbose"
	assert.Error(t, badLevel.Validate())

	webhookNoURL := valid()
	webhookNoURL.Notifications.Webhook.Enabled = true
	assert.Error(t, webhookNoURL.Validate())
}
