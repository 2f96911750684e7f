package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	s3blob "github.com/dondie52/agriconnect/internal/blob/s3"
	memcache "github.com/dondie52/agriconnect/internal/cache/memory"
	rediscache "github.com/dondie52/agriconnect/internal/cache/redis"
	"github.com/dondie52/agriconnect/internal/config"
	"github.com/dondie52/agriconnect/internal/domain"
	"github.com/dondie52/agriconnect/internal/notify"
	"github.com/dondie52/agriconnect/internal/pipeline"
	"github.com/dondie52/agriconnect/internal/platform/amis"
	"github.com/dondie52/agriconnect/internal/store/postgres"
)

// Dependencies bundles everything the application needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Database
	DB            *postgres.Client
	Crops         domain.CropStore
	Regions       domain.RegionStore
	Prices        domain.PriceStore
	History       domain.PriceHistoryStore
	Users         domain.UserStore
	Notifications domain.NotificationStore

	// Cache
	PriceCache domain.PriceCache

	// External feed
	Fetcher *amis.Client

	// Archival (nil unless archive storage is configured)
	Archiver *pipeline.Archiver

	// Operator notifications
	Ops *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them with a cleanup function for shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.DB = pgClient
	deps.Crops = postgres.NewCropStore(pool)
	deps.Regions = postgres.NewRegionStore(pool)
	deps.Prices = postgres.NewPriceStore(pool)
	deps.History = postgres.NewPriceHistoryStore(pool)
	deps.Users = postgres.NewUserStore(pool)
	deps.Notifications = postgres.NewNotificationStore(pool)

	// --- Price cache ---
	switch strings.ToLower(cfg.Cache.Backend) {
	case "redis":
		redisClient, err := rediscache.New(ctx, rediscache.ClientConfig{
			Addr:       cfg.Cache.Redis.Addr,
			Password:   cfg.Cache.Redis.Password,
			DB:         cfg.Cache.Redis.DB,
			PoolSize:   cfg.Cache.Redis.PoolSize,
			MaxRetries: cfg.Cache.Redis.MaxRetries,
			TLSEnabled: cfg.Cache.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.PriceCache = rediscache.NewPriceCache(redisClient, cfg.CacheTTL(), logger)
	default:
		deps.PriceCache = memcache.NewPriceCache(cfg.CacheTTL())
	}

	// --- External feed ---
	deps.Fetcher = amis.NewClient(amis.Config{
		BaseURL:     cfg.ExternalAPI.BaseURL,
		MaxAttempts: cfg.ExternalAPI.MaxAttempts,
		BackoffBase: time.Duration(cfg.ExternalAPI.BackoffBaseSec) * time.Second,
		Timeout:     time.Duration(cfg.ExternalAPI.AttemptTimeoutSec) * time.Second,
	}, logger)

	// --- Archive storage (optional) ---
	if cfg.Archive.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.Archive.Endpoint,
			Region:         cfg.Archive.Region,
			Bucket:         cfg.Archive.Bucket,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			UseSSL:         cfg.Archive.UseSSL,
			ForcePathStyle: cfg.Archive.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		retention := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
		deps.Archiver = pipeline.NewArchiver(deps.History, s3blob.NewWriter(s3Client), retention, logger)
	}

	// --- Operator notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Ops = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	return deps, cleanup, nil
}
