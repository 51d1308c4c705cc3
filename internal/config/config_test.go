package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_ADDR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 5*time.Minute, cfg.JWT.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.False(t, cfg.Redis.Enabled())
	assert.Contains(t, cfg.Database.GetDSN(), "host=localhost")
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/stock")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("PRIMARY_ADMIN_EMAIL", "boss@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres://u:p@db:5432/stock", cfg.Database.GetDSN())
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 2*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, "boss@example.com", cfg.PrimaryAdmin.Email)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("JWT_TTL", "forever")

	_, err := Load()
	assert.Error(t, err)
}
