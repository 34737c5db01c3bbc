// Package bootstrap wires storage, adapters and services from configuration. Both the API
// server and the admin CLI build their runtime through it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/manan0901/Vibecoder-sub000/internal/adapters/cache/redis"
	"github.com/manan0901/Vibecoder-sub000/internal/adapters/gateway/razorpay"
	"github.com/manan0901/Vibecoder-sub000/internal/adapters/notify"
	"github.com/manan0901/Vibecoder-sub000/internal/adapters/storage/s3"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/core/services"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/config"
	"github.com/manan0901/Vibecoder-sub000/internal/platform/metrics"
	"github.com/manan0901/Vibecoder-sub000/internal/repositories/database/memory"
	"github.com/manan0901/Vibecoder-sub000/internal/repositories/database/pgsql"
	"github.com/manan0901/Vibecoder-sub000/internal/utils"
	"github.com/manan0901/Vibecoder-sub000/pkg/database"
)

// Options tweak Build for the calling binary.
type Options struct {
	// RunMigrations applies pending migrations before the pool is used.
	RunMigrations bool
}

// App is a fully wired runtime. Close releases every client Build opened.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Services *portssvc.ServiceContainer
	Repos    portsrepo.RepositoryProvider
	Metrics  *metrics.Metrics
	Posthog  *utils.PosthogClientWrapper
	Runner   *services.SideEffectRunner

	// Catalog is set for the memory storage driver so callers can seed it.
	Catalog *memory.Catalog

	closers []func()
}

// Build connects every configured backend. Optional backends with empty settings are skipped.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	if err := app.buildStorage(ctx, opts); err != nil {
		return nil, err
	}

	deps := services.Dependencies{
		Gateway: razorpay.NewClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout),
		Metrics: app.Metrics,
	}

	if cfg.RedisAddr != "" {
		client, err := redis.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		deps.Cache = redis.NewStatusCache(client, cfg.StatusCacheTTL)
		deps.Deduper = redis.NewWebhookDeduper(client, cfg.WebhookDedupeTTL)
	}

	app.Posthog = utils.InitializePosthogClient(cfg.PosthogAPIKey, cfg.PosthogHost, logger)
	app.closers = append(app.closers, app.Posthog.Close)

	sinks := []external.Notifier{notify.LogNotifier{}}
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.NewRabbitMQNotifier(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = publisher.Close() })
		sinks = append(sinks, publisher)
	}
	if app.Posthog.IsInitialized() {
		sinks = append(sinks, notify.NewAnalyticsNotifier(app.Posthog))
	}
	deps.Notifier = notify.NewFanout(sinks...)

	if cfg.S3Bucket != "" {
		archiver, err := s3.NewReceiptArchiver(s3.Options{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKeyID:  cfg.AWSKeyID,
			SecretKey:    cfg.AWSSecret,
			DisableSSL:   strings.HasPrefix(cfg.S3Endpoint, "http://"),
			CreateBucket: cfg.S3Endpoint != "",
		}, logger)
		if err != nil {
			return nil, err
		}
		deps.Archiver = archiver
	}

	app.Runner = services.NewSideEffectRunner(cfg.SideEffects, false).WithRunnerMetrics(app.Metrics)
	deps.SideEffects = app.Runner

	container, err := services.NewServiceContainer(cfg, app.Repos, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to build services: %w", err)
	}
	app.Services = container
	ok = true
	return app, nil
}

func (a *App) buildStorage(ctx context.Context, opts Options) error {
	switch a.Config.StorageDriver {
	case config.StorageMemory:
		a.Logger.Warn("Using in-memory ledger; data is lost on restart")
		store := memory.NewTransactionStore()
		a.Catalog = memory.NewCatalog()
		a.Repos = portsrepo.RepositoryProvider{TransactionRepo: store, ProjectStore: a.Catalog, BuyerStore: a.Catalog}
		return nil

	case config.StoragePostgres:
		if opts.RunMigrations {
			a.Logger.Info("Running database migrations...")
			changed, err := database.RunMigrations(a.Config.DatabaseURL, a.Config.MigrationsDir, database.MigrateUp, a.Logger)
			if err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
			if changed {
				a.Logger.Info("Database migrations applied successfully.")
			} else {
				a.Logger.Info("No new migrations to apply.")
			}
		}
		pool, err := database.NewPgxPool(ctx, a.Config.DatabaseURL, a.Config.EnableDBCheck)
		if err != nil {
			return fmt.Errorf("failed to initialize database pool: %w", err)
		}
		a.closers = append(a.closers, func() { database.ClosePgxPool(pool) })
		a.Repos = pgsql.NewRepositoryProvider(pool)
		return nil
	}
	return fmt.Errorf("unknown storage driver %q", a.Config.StorageDriver)
}

// Close releases clients in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
