package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "power_projects.db", cfg.DatabaseDSN)
	assert.Equal(t, 50, cfg.ActivityFeedLimit)
	assert.Equal(t, 100, cfg.StreamMaxPerProject)
	assert.Equal(t, 30*time.Second, cfg.StreamHeartbeat)
	assert.True(t, cfg.EnableRateLimit)
}

func TestGetEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9090")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=localhost user=pp dbname=pp")
	t.Setenv("ACTIVITY_FEED_LIMIT", "25")
	t.Setenv("STREAM_HEARTBEAT_INTERVAL", "10s")
	t.Setenv("ENABLE_RATE_LIMIT", "false")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, "host=localhost user=pp dbname=pp", cfg.DatabaseDSN)
	assert.Equal(t, 25, cfg.ActivityFeedLimit)
	assert.Equal(t, 10*time.Second, cfg.StreamHeartbeat)
	assert.False(t, cfg.EnableRateLimit)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "not-a-number")
	t.Setenv("TEST_DURATION_BAD", "soon")
	t.Setenv("TEST_BOOL_YES", "yes")

	assert.Equal(t, 42, getEnvInt("TEST_INT_BAD", 42))
	assert.Equal(t, time.Minute, getEnvDuration("TEST_DURATION_BAD", time.Minute))
	assert.True(t, getEnvBool("TEST_BOOL_YES", false))
	assert.Equal(t, "fallback", getEnv("TEST_UNSET_KEY", "fallback"))
}
