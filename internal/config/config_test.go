package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 15, cfg.Cache.TTLMinutes)
	assert.Equal(t, 3, cfg.Sync.IntervalHours)
	assert.Equal(t, "Africa/Gaborone", cfg.Sync.Timezone)
	assert.Equal(t, 10.0, cfg.Sync.AlertThresholdPct)
	assert.Equal(t, "Gaborone", cfg.Sync.FallbackRegion)
	assert.Equal(t, 3, cfg.ExternalAPI.MaxAttempts)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown cache backend", func(c *Config) { c.Cache.Backend = "memcached" }, "unsupported cache backend"},
		{"redis without addr", func(c *Config) { c.Cache.Backend = "redis"; c.Cache.Redis.Addr = "" }, "cache.redis.addr"},
		{"zero ttl", func(c *Config) { c.Cache.TTLMinutes = 0 }, "ttl_minutes"},
		{"zero attempts", func(c *Config) { c.ExternalAPI.MaxAttempts = 0 }, "max_attempts"},
		{"interval too large", func(c *Config) { c.Sync.IntervalHours = 25 }, "interval_hours"},
		{"bad timezone", func(c *Config) { c.Sync.Timezone = "Mars/Olympus" }, "timezone"},
		{"zero threshold", func(c *Config) { c.Sync.AlertThresholdPct = 0 }, "alert_threshold_pct"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"bucket without region", func(c *Config) { c.Archive.Bucket = "b"; c.Archive.Region = "" }, "archive.region"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[cache]
backend = "redis"
ttl_minutes = 30

[cache.redis]
addr = "redis.internal:6379"

[sync]
interval_hours = 6
alert_threshold_pct = 5.0

[server]
port = 9090
cors_origins = ["https://app.example.test"]
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30, cfg.Cache.TTLMinutes)
	assert.Equal(t, "redis.internal:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 6, cfg.Sync.IntervalHours)
	assert.Equal(t, 5.0, cfg.Sync.AlertThresholdPct)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.test"}, cfg.Server.CORSOrigins)

	// Untouched sections keep their defaults.
	assert.Equal(t, "Africa/Gaborone", cfg.Sync.Timezone)
	assert.Equal(t, 3, cfg.ExternalAPI.MaxAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("AGRI_SERVER_PORT", "3000")
	t.Setenv("AGRI_CACHE_TTL_MINUTES", "45")
	t.Setenv("AGRI_SYNC_ALERT_THRESHOLD_PCT", "7.5")
	t.Setenv("AGRI_SERVER_CORS_ORIGINS", "https://a.test, https://b.test")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 45, cfg.Cache.TTLMinutes)
	assert.Equal(t, 7.5, cfg.Sync.AlertThresholdPct)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.Server.CORSOrigins)
}

func TestCacheTTL(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL())

	cfg.Cache.TTLMinutes = 5
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL())
}
