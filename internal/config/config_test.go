package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()

	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("APPROVAL_BASE_URL", "https://approval.example")
	t.Setenv("APPROVAL_TOKEN", "secret")
	t.Setenv("DB_USER", "bot")
	t.Setenv("DB_PASSWORD", "pass")
	t.Setenv("DB_NAME", "badgebot")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 2880, cfg.PollMaxAttempts)
	assert.Equal(t, 24*time.Hour, cfg.SLADeadline)
	assert.Equal(t, 10*time.Minute, cfg.SLASweepInterval)
	assert.Contains(t, cfg.DSN(), "dbname=badgebot")
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_INTERVAL", "5s")
	t.Setenv("POLL_MAX_ATTEMPTS", "10")
	t.Setenv("SLA_DEADLINE", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.PollMaxAttempts)
	assert.Equal(t, time.Hour, cfg.SLADeadline)
}

func TestLoadMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()

	require.Error(t, err)
}

func TestLoadBadDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("POLL_INTERVAL", "soon")

	_, err := Load()

	require.Error(t, err)
}
