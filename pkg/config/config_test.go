package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper to build a minimal valid config that can be tweaked in tests.
func validBaseConfig() *Config {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = true
	cfg.RateLimiting.HTTP.RequestsPerSecond = 10
	cfg.RateLimiting.HTTP.Burst = 20
	cfg.RateLimiting.HTTP.MaxConcurrent = 5
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 50
	cfg.RateLimiting.WebSocket.Burst = 100
	cfg.RateLimiting.WebSocket.MaxMessageSizeBytes = 65536
	return cfg
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, ":8081", cfg.Signal.Address)
}

func TestValidate_RateLimitingDisabled_AllowsZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimiting.Enabled = false
	cfg.RateLimiting.HTTP.RequestsPerSecond = 0
	cfg.RateLimiting.HTTP.Burst = 0
	cfg.RateLimiting.WebSocket.MessagesPerSecond = 0
	cfg.RateLimiting.WebSocket.Burst = 0

	assert.NoError(t, cfg.Validate())
}

func TestValidate_InvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"http rps must be > 0", func(c *Config) { c.RateLimiting.HTTP.RequestsPerSecond = 0 }},
		{"http burst must be > 0", func(c *Config) { c.RateLimiting.HTTP.Burst = 0 }},
		{"http max concurrent must be >= 0", func(c *Config) { c.RateLimiting.HTTP.MaxConcurrent = -1 }},
		{"ws messages per second must be > 0", func(c *Config) { c.RateLimiting.WebSocket.MessagesPerSecond = 0 }},
		{"ws burst must be > 0", func(c *Config) { c.RateLimiting.WebSocket.Burst = 0 }},
		{"ws max message size must be >= 0", func(c *Config) { c.RateLimiting.WebSocket.MaxMessageSizeBytes = -1 }},
		{"pong must exceed ping", func(c *Config) { c.Signal.PongTimeout = c.Signal.PingInterval }},
		{"send buffer must be > 0", func(c *Config) { c.Signal.SendBuffer = 0 }},
		{"unknown store driver", func(c *Config) { c.Store.Driver = "sqlite" }},
		{"redis needs address", func(c *Config) {
			c.Store.Driver = StoreRedis
			c.Redis.Address = ""
		}},
		{"postgres needs dsn", func(c *Config) {
			c.Store.Driver = StorePostgres
			c.Postgres.DSN = ""
		}},
		{"jwt secret required", func(c *Config) { c.Auth.JWTSecret = "" }},
		{"lock timeout must be > 0", func(c *Config) { c.Locking.Timeout = 0 }},
		{"tracing sample rate bounded", func(c *Config) {
			c.Tracing.Enabled = true
			c.Tracing.SampleRate = 1.5
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validBaseConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Address, cfg.Server.Address)
}

func TestLoad_ReadsYAMLOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  address: ":9000"
store:
  driver: redis
redis:
  address: "redis:6379"
signal:
  ping_interval: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, StoreRedis, cfg.Store.Driver)
	assert.Equal(t, "redis:6379", cfg.Redis.Address)
	assert.Equal(t, 5*time.Second, cfg.Signal.PingInterval)
	// untouched sections keep their defaults
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("QUEUECAST_SERVER_ADDRESS", ":7070")
	t.Setenv("QUEUECAST_STORE_DRIVER", "POSTGRES")
	t.Setenv("QUEUECAST_POSTGRES_DSN", "postgres://u:p@db/q")
	t.Setenv("QUEUECAST_JWT_SECRET", "s3cret")
	t.Setenv("QUEUECAST_COOKIE_SECURE", "true")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.Address)
	assert.Equal(t, StorePostgres, cfg.Store.Driver)
	assert.Equal(t, "postgres://u:p@db/q", cfg.Postgres.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.CookieSecure)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
