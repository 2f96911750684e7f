// Package config defines the top-level configuration for the AgriConnect
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by AGRI_* environment variables.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Cache       CacheConfig       `toml:"cache"`
	ExternalAPI ExternalAPIConfig `toml:"external_api"`
	Sync        SyncConfig        `toml:"sync"`
	Archive     ArchiveConfig     `toml:"archive"`
	Server      ServerConfig      `toml:"server"`
	Notify      NotifyConfig      `toml:"notify"`
	LogLevel    string            `toml:"log_level"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// CacheConfig selects and tunes the price-cache backend.
type CacheConfig struct {
	// Backend is "memory" (default) or "redis".
	Backend    string `toml:"backend"`
	TTLMinutes int    `toml:"ttl_minutes"`

	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis connection parameters for the distributed cache
// backend.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// ExternalAPIConfig holds parameters for the external market-price feed.
type ExternalAPIConfig struct {
	BaseURL           string `toml:"base_url"`
	MaxAttempts       int    `toml:"max_attempts"`
	AttemptTimeoutSec int    `toml:"attempt_timeout_sec"`
	BackoffBaseSec    int    `toml:"backoff_base_sec"`
}

// SyncConfig holds sync scheduling and alerting parameters.
type SyncConfig struct {
	// IntervalHours is the recurring grid: the scheduler fires at the top of
	// every Nth hour in Timezone.
	IntervalHours int    `toml:"interval_hours"`
	Timezone      string `toml:"timezone"`
	BootDelaySec  int    `toml:"boot_delay_sec"`
	// AlertThresholdPct is the minimum absolute percentage swing that
	// triggers farmer notifications.
	AlertThresholdPct float64 `toml:"alert_threshold_pct"`
	// FallbackRegion is the region name unmatched external markets map to.
	FallbackRegion string `toml:"fallback_region"`
}

// ArchiveConfig holds object-storage parameters for price-history exports.
// Archiving is disabled when Bucket is empty.
type ArchiveConfig struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	RetentionDays  int    `toml:"retention_days"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey protects mutating endpoints; empty disables the check.
	APIKey string `toml:"api_key"`
}

// NotifyConfig holds operator notification channels for degraded sync runs.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with sane defaults for local
// development. Load layers the TOML file and environment on top of this.
func Defaults() Config {
	return Config{
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			Database:     "agriconnect",
			User:         "agriconnect",
			SSLMode:      "disable",
			PoolMaxConns: 10,
			PoolMinConns: 2,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLMinutes: 15,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		ExternalAPI: ExternalAPIConfig{
			MaxAttempts:       3,
			AttemptTimeoutSec: 10,
			BackoffBaseSec:    2,
		},
		Sync: SyncConfig{
			IntervalHours:     3,
			Timezone:          "Africa/Gaborone",
			BootDelaySec:      5,
			AlertThresholdPct: 10,
			FallbackRegion:    "Gaborone",
		},
		Archive: ArchiveConfig{
			Region:        "us-east-1",
			RetentionDays: 90,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for values that would prevent the
// application from operating. It returns the first problem found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Cache.Backend) {
	case "", "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unsupported cache backend %q", c.Cache.Backend)
	}

	if c.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("config: cache.ttl_minutes must be positive")
	}
	if c.ExternalAPI.MaxAttempts <= 0 {
		return fmt.Errorf("config: external_api.max_attempts must be positive")
	}
	if c.Sync.IntervalHours <= 0 || c.Sync.IntervalHours > 24 {
		return fmt.Errorf("config: sync.interval_hours must be in [1, 24]")
	}
	if _, err := time.LoadLocation(c.Sync.Timezone); err != nil {
		return fmt.Errorf("config: invalid sync.timezone %q: %w", c.Sync.Timezone, err)
	}
	if c.Sync.AlertThresholdPct <= 0 {
		return fmt.Errorf("config: sync.alert_threshold_pct must be positive")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server.port %d", c.Server.Port)
	}
	if c.Archive.Bucket != "" && c.Archive.Region == "" {
		return fmt.Errorf("config: archive.region is required when archive.bucket is set")
	}
	return nil
}

// CacheTTL returns the configured cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}
