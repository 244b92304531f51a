package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/sibyl-protocol/sibyl/internal/blob/s3"
	"github.com/sibyl-protocol/sibyl/internal/cache/redis"
	"github.com/sibyl-protocol/sibyl/internal/config"
	"github.com/sibyl-protocol/sibyl/internal/domain"
	"github.com/sibyl-protocol/sibyl/internal/notify"
	"github.com/sibyl-protocol/sibyl/internal/store/memory"
	"github.com/sibyl-protocol/sibyl/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application needs.
// It is constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Storage
	Tx        domain.Tx
	Protocols domain.ProtocolStore
	Markets   domain.MarketStore
	Positions domain.PositionStore
	Ledger    domain.TokenLedger
	Audit     domain.AuditStore

	// Redis-backed components. All nil in memory mode except Locks, which
	// falls back to in-process mutexes.
	Locks       domain.LockManager
	MarketCache domain.MarketCache
	RateLimiter domain.RateLimiter
	SignalBus   domain.SignalBus

	// Blob storage; only set when archival is enabled.
	BlobWriter domain.BlobWriter
	Archiver   *s3blob.Archiver

	// Notifications
	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	switch strings.ToLower(cfg.Storage) {
	case "memory":
		store := memory.New()
		deps.Tx = store
		deps.Protocols = store
		deps.Markets = store.Markets()
		deps.Positions = store.Positions()
		deps.Ledger = store.Ledger()
		deps.Audit = store.Audit()
		deps.Locks = memory.NewLockManager()

	case "postgres":
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
		deps.Tx = pgClient
		deps.Protocols = postgres.NewProtocolStore(pool)
		deps.Markets = postgres.NewMarketStore(pool)
		deps.Positions = postgres.NewPositionStore(pool)
		deps.Ledger = postgres.NewLedgerStore(pool)
		deps.Audit = postgres.NewAuditStore(pool)

		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.Locks = redis.NewLockManager(redisClient)
		deps.MarketCache = redis.NewMarketCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)

	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unsupported storage %q", cfg.Storage)
	}

	// --- S3 blob storage (only when audit archival is enabled) ---
	if cfg.Archive.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobWriter = s3blob.NewWriter(s3Client)
		deps.Archiver = s3blob.NewArchiver(deps.BlobWriter, deps.Audit, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}
