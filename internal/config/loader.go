package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies AGRI_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. A missing file is not an
// error: defaults plus environment overrides still produce a usable config.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known AGRI_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Database ──
	setStr(&cfg.Database.DSN, "AGRI_DATABASE_DSN")
	setStr(&cfg.Database.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Database.Host, "AGRI_DATABASE_HOST")
	setInt(&cfg.Database.Port, "AGRI_DATABASE_PORT")
	setStr(&cfg.Database.Database, "AGRI_DATABASE_NAME")
	setStr(&cfg.Database.User, "AGRI_DATABASE_USER")
	setStr(&cfg.Database.Password, "AGRI_DATABASE_PASSWORD")
	setStr(&cfg.Database.SSLMode, "AGRI_DATABASE_SSLMODE")
	setInt(&cfg.Database.PoolMaxConns, "AGRI_DATABASE_POOL_MAX_CONNS")
	setInt(&cfg.Database.PoolMinConns, "AGRI_DATABASE_POOL_MIN_CONNS")
	setBool(&cfg.Database.RunMigrations, "AGRI_DATABASE_RUN_MIGRATIONS")

	// ── Cache ──
	setStr(&cfg.Cache.Backend, "AGRI_CACHE_BACKEND")
	setInt(&cfg.Cache.TTLMinutes, "AGRI_CACHE_TTL_MINUTES")
	setStr(&cfg.Cache.Redis.Addr, "AGRI_REDIS_ADDR")
	setStr(&cfg.Cache.Redis.Password, "AGRI_REDIS_PASSWORD")
	setInt(&cfg.Cache.Redis.DB, "AGRI_REDIS_DB")
	setInt(&cfg.Cache.Redis.PoolSize, "AGRI_REDIS_POOL_SIZE")
	setInt(&cfg.Cache.Redis.MaxRetries, "AGRI_REDIS_MAX_RETRIES")
	setBool(&cfg.Cache.Redis.TLSEnabled, "AGRI_REDIS_TLS_ENABLED")

	// ── External API ──
	setStr(&cfg.ExternalAPI.BaseURL, "AGRI_EXTERNAL_API_BASE_URL")
	setInt(&cfg.ExternalAPI.MaxAttempts, "AGRI_EXTERNAL_API_MAX_ATTEMPTS")
	setInt(&cfg.ExternalAPI.AttemptTimeoutSec, "AGRI_EXTERNAL_API_ATTEMPT_TIMEOUT_SEC")
	setInt(&cfg.ExternalAPI.BackoffBaseSec, "AGRI_EXTERNAL_API_BACKOFF_BASE_SEC")

	// ── Sync ──
	setInt(&cfg.Sync.IntervalHours, "AGRI_SYNC_INTERVAL_HOURS")
	setStr(&cfg.Sync.Timezone, "AGRI_SYNC_TIMEZONE")
	setInt(&cfg.Sync.BootDelaySec, "AGRI_SYNC_BOOT_DELAY_SEC")
	setFloat64(&cfg.Sync.AlertThresholdPct, "AGRI_SYNC_ALERT_THRESHOLD_PCT")
	setStr(&cfg.Sync.FallbackRegion, "AGRI_SYNC_FALLBACK_REGION")

	// ── Archive ──
	setStr(&cfg.Archive.Endpoint, "AGRI_ARCHIVE_ENDPOINT")
	setStr(&cfg.Archive.Region, "AGRI_ARCHIVE_REGION")
	setStr(&cfg.Archive.Bucket, "AGRI_ARCHIVE_BUCKET")
	setStr(&cfg.Archive.AccessKey, "AGRI_ARCHIVE_ACCESS_KEY")
	setStr(&cfg.Archive.SecretKey, "AGRI_ARCHIVE_SECRET_KEY")
	setBool(&cfg.Archive.UseSSL, "AGRI_ARCHIVE_USE_SSL")
	setBool(&cfg.Archive.ForcePathStyle, "AGRI_ARCHIVE_FORCE_PATH_STYLE")
	setInt(&cfg.Archive.RetentionDays, "AGRI_ARCHIVE_RETENTION_DAYS")

	// ── Server ──
	setInt(&cfg.Server.Port, "AGRI_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "AGRI_SERVER_API_KEY")
	if v := os.Getenv("AGRI_SERVER_CORS_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.Server.CORSOrigins = origins
	}

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "AGRI_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "AGRI_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "AGRI_NOTIFY_DISCORD_WEBHOOK_URL")

	setStr(&cfg.LogLevel, "AGRI_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
