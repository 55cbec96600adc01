package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "ledger:events", cfg.EventsChannel)
	assert.Equal(t, "ledger:events:log", cfg.EventsStream)
	assert.Equal(t, 500*time.Millisecond, cfg.EventsTimeout)
	assert.Equal(t, 1024, cfg.EventsBuffer)
	assert.True(t, cfg.MetricsEnabled)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "Production")
	t.Setenv("SESSION_SECRET", "prod-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("ALLOW_CROSS_SITE_DEV", "TRUE")
	t.Setenv("EVENTS_TIMEOUT_MS", "250")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "prod-secret", cfg.SessionSecret)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)
	assert.True(t, cfg.AllowCrossSiteDev)
	assert.Equal(t, 250*time.Millisecond, cfg.EventsTimeout)
	assert.False(t, cfg.MetricsEnabled)
}

func TestLoad_ProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}
