package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nexumi/nexumi-core/internal/analytics"
	"github.com/nexumi/nexumi-core/internal/config"
	"github.com/nexumi/nexumi-core/internal/database/redis"
	"github.com/nexumi/nexumi-core/internal/event"
	"github.com/nexumi/nexumi-core/internal/guild"
	"github.com/nexumi/nexumi-core/internal/handler"
	"github.com/nexumi/nexumi-core/internal/marketplace"
	"github.com/nexumi/nexumi-core/internal/player"
	"github.com/nexumi/nexumi-core/internal/repository"
	"github.com/nexumi/nexumi-core/internal/scheduler"
	"github.com/nexumi/nexumi-core/internal/server"
	"github.com/nexumi/nexumi-core/internal/telemetry"
	"github.com/nexumi/nexumi-core/internal/validation"
	"github.com/nexumi/nexumi-core/internal/worker"
	"github.com/nexumi/nexumi-core/internal/world"
)

// App is the fully wired core: substrate, services, background workers and
// the HTTP server.
type App struct {
	Config       *config.Config
	Substrate    *Substrate
	Repositories *Repositories
	Bus          *event.MemoryBus
	Publisher    *event.ResilientPublisher

	Players     player.Service
	Worlds      world.Service
	Marketplace marketplace.Service
	Guilds      guild.Service
	Analytics   *analytics.Sink

	Pool      *worker.Pool
	Scheduler *scheduler.Scheduler
	Server    *server.Server

	redis         *redis.Analytics
	shutdownTrace func(context.Context) error
}

// Options customise the wiring for callers other than the serve command
type Options struct {
	// Approver decides guild applications; nil rejects every application
	Approver guild.Approver
	// Substrate replaces the store selected by the configuration
	Substrate *Substrate
}

// Build opens the substrate and wires every component. Nothing runs in the
// background until Start.
func Build(ctx context.Context, cfg *config.Config, opts Options) (app *App, err error) {
	app = &App{Config: cfg, shutdownTrace: func(context.Context) error { return nil }}
	defer func() {
		if err != nil {
			app.closeResources(ctx)
		}
	}()

	app.shutdownTrace, err = telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.ServiceName,
		Version:     cfg.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedSetupTracing, err)
	}
	slog.Info(LogMsgTracingInitialized, "enabled", cfg.OTelEnabled && cfg.OTelEndpoint != "")

	app.Substrate = opts.Substrate
	if app.Substrate == nil {
		if app.Substrate, err = OpenSubstrate(ctx, cfg); err != nil {
			return nil, err
		}
	}

	registry, err := validation.NewRegistry()
	if err != nil {
		return nil, err
	}
	app.Repositories = InitializeRepositories(app.Substrate.Docs, registry, StoreConfig(cfg))

	app.Bus, app.Publisher, err = InitializeEventSystem(cfg)
	if err != nil {
		return nil, err
	}

	analyticsRepo, err := app.analyticsRepository(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.AnalyticsDeadLetterPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.AnalyticsDeadLetterPath), DirPermission); err != nil {
			return nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
		}
	}
	app.Analytics, err = analytics.NewSink(analyticsRepo, registry, analytics.Config{
		QueueSize:       cfg.AnalyticsQueueSize,
		Workers:         cfg.AnalyticsWorkers,
		MaxAttempts:     cfg.RetryMaxAttempts,
		InitialInterval: cfg.RetryInitialInterval,
		MaxInterval:     cfg.RetryMaxInterval,
		DeadLetterPath:  cfg.AnalyticsDeadLetterPath,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedCreateSink, err)
	}
	RegisterEventHandlers(app.Bus, app.Analytics)

	repos := app.Repositories
	app.Players = player.NewService(repos.Players, app.Publisher, player.Config{
		StartingCurrency: cfg.StartingCurrency,
		DefaultWorldID:   cfg.DefaultWorldID,
	})
	app.Worlds = world.NewService(repos.Worlds, world.CacheConfig{
		Size: cfg.WorldCacheSize,
		TTL:  cfg.WorldCacheTTL,
	})
	app.Marketplace = marketplace.NewService(repos.Players, repos.Listings, app.Publisher, marketplace.Config{
		ListingTTL:     cfg.ListingTTL,
		SweepBatchSize: cfg.SweepBatchSize,
	})
	app.Guilds = guild.NewService(repos.Guilds, repos.Players, opts.Approver, app.Publisher, guild.Config{
		DefaultMaxMembers: cfg.DefaultGuildCapacity,
	})

	app.Pool = worker.NewPool(cfg.WorkerCount, cfg.WorkerQueueSize)
	app.Scheduler = scheduler.New(app.Pool)

	readiness := map[string]handler.Pinger{ReadinessStore: app.Substrate.Docs}
	if app.redis != nil {
		readiness[ReadinessRedis] = app.redis
	}
	app.Server = server.NewServer(server.Config{
		Port:           cfg.Port,
		Version:        cfg.Version,
		ServiceName:    cfg.ServiceName,
		JWTSecret:      cfg.JWTSecret,
		TrustedProxies: cfg.TrustedProxies,
		RateLimit:      cfg.RateLimit,
		RateWindow:     cfg.RateWindow,
	}, server.Services{
		Players:     app.Players,
		Worlds:      app.Worlds,
		Marketplace: app.Marketplace,
		Guilds:      app.Guilds,
		Analytics:   app.Analytics,
		Readiness:   readiness,
	})

	return app, nil
}

func (a *App) analyticsRepository(ctx context.Context) (repository.Analytics, error) {
	cfg := a.Config
	if cfg.AnalyticsBackend != config.AnalyticsBackendRedis {
		slog.Info(LogMsgAnalyticsBackend, "backend", config.AnalyticsBackendStore)
		return analytics.NewStoreRepository(a.Repositories.Analytics), nil
	}

	rcfg := redis.DefaultConfig()
	rcfg.URL = cfg.RedisURL
	if cfg.AnalyticsStream != "" {
		rcfg.Stream = cfg.AnalyticsStream
	}
	if cfg.AnalyticsStreamMaxLen > 0 {
		rcfg.MaxLen = cfg.AnalyticsStreamMaxLen
	}

	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	repo, err := redis.New(ctx, rcfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedOpenRedis, err)
	}
	a.redis = repo
	slog.Info(LogMsgAnalyticsBackend, "backend", config.AnalyticsBackendRedis, "stream", rcfg.Stream)
	return repo, nil
}

// Start launches the analytics workers, the worker pool and the expiry sweep
func (a *App) Start() {
	a.Analytics.Start()
	a.Pool.Start()
	a.Scheduler.Schedule(SweepJobName, a.Config.SweepInterval, &marketplace.ExpireJob{
		Service: a.Marketplace,
		Batch:   a.Config.SweepBatchSize,
	})
}

// closeResources releases what Build opened when wiring fails part way
func (a *App) closeResources(ctx context.Context) {
	if a.Publisher != nil {
		_ = a.Publisher.Shutdown(ctx)
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.Substrate != nil {
		a.Substrate.Close()
	}
	_ = a.shutdownTrace(ctx)
}
