package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/rosca_app/internal/adapters/database/pgsql"
	"github.com/SscSPs/rosca_app/internal/adapters/database/sqlite"
	"github.com/SscSPs/rosca_app/internal/adapters/events"
	"github.com/SscSPs/rosca_app/internal/adapters/lock"
	"github.com/SscSPs/rosca_app/internal/adapters/memory"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/core/services"
	"github.com/SscSPs/rosca_app/internal/platform/config"
	"github.com/SscSPs/rosca_app/internal/platform/metrics"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/SscSPs/rosca_app/pkg/database"
	"github.com/redis/go-redis/v9"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	repos    portsrepo.RepositoryProvider
	metrics  *metrics.Metrics
	services *portssvc.ServiceContainer
	redis    *redis.Client
	posthog  *utils.PosthogClientWrapper
	closers  []func()
}

// newApp opens storage and the optional integrations, then builds the services.
// Close must be called even when an error is returned.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics.New()}

	repos, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return a, fmt.Errorf("failed to initialize %s storage: %w", cfg.StorageDriver, err)
	}
	a.repos = repos
	a.onClose(closeStorage)

	opts := []services.GroupServiceOption{services.WithMetrics(a.metrics)}

	joinCodes, err := utils.NewJoinCodeGenerator(cfg.JoinCodeMachineID)
	if err != nil {
		return a, fmt.Errorf("failed to initialize join code generator: %w", err)
	}
	opts = append(opts, services.WithJoinCodeGenerator(joinCodes))

	// Redis backs the cross-instance group lock and the shared rate limit store.
	if cfg.RedisURL != "" {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return a, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(redisOpts)
		a.onClose(func() {
			if cerr := a.redis.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return a, fmt.Errorf("failed to ping redis: %w", err)
		}
		opts = append(opts, services.WithLocker(lock.NewRedisLocker(a.redis, cfg.LockTTL, cfg.LockWait, logger)))
		logger.Info("Using redis group locks")
	} else {
		opts = append(opts, services.WithLocker(lock.NewLocalLocker()))
		logger.Warn("REDIS_URL not set, group locks are local to this process")
	}

	var notifiers events.Fanout
	if cfg.NatsURL != "" {
		notifier, err := events.NewNatsNotifier(events.NatsConfig{
			URL:           cfg.NatsURL,
			SubjectPrefix: cfg.NatsSubjectPrefix,
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		}, logger)
		if err != nil {
			return a, err
		}
		a.onClose(notifier.Close)
		notifiers = append(notifiers, notifier)
		logger.Info("Publishing group events to NATS", slog.String("subject_prefix", cfg.NatsSubjectPrefix))
	}

	a.posthog = utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogEndpoint, logger)
	a.onClose(a.posthog.Close)
	if a.posthog.IsInitialized() {
		notifiers = append(notifiers, events.NewPosthogNotifier(a.posthog))
	}

	if len(notifiers) == 0 {
		opts = append(opts, services.WithNotifier(events.LogNotifier{Logger: logger}))
	} else {
		opts = append(opts, services.WithNotifier(notifiers))
	}

	a.services = services.NewServiceContainer(cfg, repos, opts...)
	return a, nil
}

func (a *app) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStorage builds the repositories for the configured driver and returns
// a func releasing its connections.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage, all data is lost on restart")
		return portsrepo.RepositoryProvider{
			GroupRepo: memory.NewGroupRepository(),
			UserRepo:  memory.NewUserDirectory(),
			AuditRepo: memory.NewAuditLog(),
			Ledger:    memory.NewLedger(),
		}, func() {}, nil

	case config.StorageSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, func() {}, err
		}
		logger.Info("SQLite store opened", slog.String("path", cfg.SQLitePath))
		return store.Repositories(), func() {
			if err := store.Close(); err != nil {
				logger.Error("Error closing sqlite store", slog.String("error", err.Error()))
			}
		}, nil

	default:
		// Initialize database connection pool (for application use)
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, func() {}, err
		}
		logger.Info("Database connection pool established.")

		if cfg.RunMigrations {
			logger.Info("Running database migrations...")
			if err := database.RunMigrations(cfg.DatabaseURL, migrationsSource, logger); err != nil {
				database.ClosePgxPool(dbPool)
				return portsrepo.RepositoryProvider{}, func() {}, err
			}
		}
		return pgsql.NewRepositoryProvider(dbPool), func() { database.ClosePgxPool(dbPool) }, nil
	}
}
