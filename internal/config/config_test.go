package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mauv0809/sabo-club/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SABO_CONFIG", "")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "sabo.db", cfg.DBName)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 72*time.Hour, cfg.Challenge.TTL())
	assert.Equal(t, 5.0, cfg.RateLimit.PerSecond)
	assert.Equal(t, 10, cfg.RateLimit.Burst)
	assert.Equal(t, "Asia/Ho_Chi_Minh", cfg.Location().String())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("SABO_CONFIG", "")
	t.Setenv("SABO_DB_NAME", ":memory:")
	t.Setenv("SABO_PORT", "9090")
	t.Setenv("SABO_SLACK_TOKEN", "xoxb-test")
	t.Setenv("SABO_SLACK_CHANNEL_ID", "C123")
	t.Setenv("SABO_TURSO_PRIMARY_URL", "libsql://club.turso.io")
	t.Setenv("SABO_CHALLENGE_TTL_HOURS", "24")
	t.Setenv("SABO_RATE_LIMIT_BURST", "3")
	t.Setenv("SABO_GCP_PROJECT", "sabo")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DBName)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "xoxb-test", cfg.Slack.Token)
	assert.Equal(t, "C123", cfg.Slack.ChannelID)
	assert.Equal(t, "libsql://club.turso.io", cfg.Turso.PrimaryURL)
	assert.Equal(t, 24*time.Hour, cfg.Challenge.TTL())
	assert.Equal(t, 3, cfg.RateLimit.Burst)
	assert.Equal(t, "sabo", cfg.ProjectID)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sabo.yaml")
	yaml := "port: \"7070\"\ntimezone: UTC\nchallenge_ttl_hours: 48\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("SABO_CONFIG", path)
	t.Setenv("SABO_CHALLENGE_TTL_HOURS", "12")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, 12*time.Hour, cfg.Challenge.TTL(), "env wins over the file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("SABO_CONFIG", "")

	t.Run("missing file", func(t *testing.T) {
		t.Setenv("SABO_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := config.Load()
		assert.Error(t, err)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		t.Setenv("SABO_CHALLENGE_TTL_HOURS", "0")
		_, err := config.Load()
		assert.ErrorContains(t, err, "challenge_ttl_hours")
	})

	t.Run("bad timezone", func(t *testing.T) {
		t.Setenv("SABO_TIMEZONE", "Mars/Olympus")
		_, err := config.Load()
		assert.ErrorContains(t, err, "invalid timezone")
	})
}
