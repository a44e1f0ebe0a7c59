package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/SadnessofAtlantis/kibana/internal/adapter/httpserver"
	"github.com/SadnessofAtlantis/kibana/internal/adapter/metrics"
	"github.com/SadnessofAtlantis/kibana/internal/adapter/postgres"
	"github.com/SadnessofAtlantis/kibana/internal/adapter/redis"
	"github.com/SadnessofAtlantis/kibana/internal/app"
	"github.com/SadnessofAtlantis/kibana/internal/platform/config"
	"github.com/SadnessofAtlantis/kibana/internal/platform/logging"
	"github.com/SadnessofAtlantis/kibana/internal/platform/version"
	"github.com/SadnessofAtlantis/kibana/internal/settings"
	"github.com/SadnessofAtlantis/kibana/internal/status"
)

const (
	componentUI       = "ui"
	componentPostgres = "postgres"
	componentRedis    = "redis"

	breakerDelay = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build the UI plan and serve applications",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func setupDB(cfg *config.Config, tracer *postgres.QueryTracer) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return pool, nil
}

func setupRedis(ctx context.Context, cfg *config.Config, observer *metrics.DependencyMetrics, clock clockwork.Clock) (*goredis.Client, error) {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, settings cache is memory only")
		return nil, nil
	}
	client, err := redis.NewClient(ctx, cfg.RedisURL,
		redis.NewMetricsHook(observer, clock),
		redis.NewCircuitBreakerHook(breakerDelay, observer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func runGracefulShutdown(srv *httpserver.Server, monitor *status.Monitor) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		monitor.Stop()
		close(done)
	}()

	return done
}

func runServe(cmd *cobra.Command, _ []string) error {
	clock := clockwork.NewRealClock()
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	cfg := loadConfig()
	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Version)

	registry := metrics.NewRegistry()
	depMetrics := metrics.NewDependencyMetrics(registry)

	pool, err := setupDB(cfg, postgres.NewQueryTracer(depMetrics, clock))
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := setupRedis(ctx, cfg, depMetrics, clock)
	if err != nil {
		return err
	}

	// Pass nil explicitly when Redis is disabled to avoid a typed-nil Cmdable
	var cmdable goredis.Cmdable
	if redisClient != nil {
		cmdable = redisClient
		defer func() { _ = redisClient.Close() }()
	}

	settingsRepo := postgres.NewSettingsRepo(pool)
	cache := redis.NewSettingsCache(cmdable, settingsRepo, cfg.SettingsCacheTTL, clock, metrics.NewCacheMetrics(registry))
	stopEviction := cache.StartEvictionTimer(time.Minute)
	defer stopEviction()
	if redisClient != nil {
		go redis.NewSettingsInvalidator(redisClient, cache).Start(ctx)
	}

	plan, err := buildPlan(ctx, cfg, metrics.NewBuildMetrics(registry))
	if err != nil {
		return fmt.Errorf("failed to build plan: %w", err)
	}
	slog.Info("UI plan built", "apps", len(plan.Registry.Apps()), "bundles", plan.Bundles.Len(), "cache_key", plan.Env.CacheKey())

	health := status.NewRegistry(clock, componentPostgres)
	health.Green(componentUI, "Ready")
	depMetrics.ObserveComponentState(componentUI, status.StateGreen)

	checks := []status.Check{{Name: componentPostgres, Check: settingsRepo.Ping}}
	serverChecks := []httpserver.HealthCheck{{Name: componentPostgres, Check: settingsRepo.Ping, Degradable: true}}
	if redisClient != nil {
		pingRedis := func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		checks = append(checks, status.Check{Name: componentRedis, Check: pingRedis})
		serverChecks = append(serverChecks, httpserver.HealthCheck{Name: componentRedis, Check: pingRedis})
	}

	monitor := status.NewMonitor(health, checks, cfg.HealthCheckInterval, clock)
	monitor.OnChange(depMetrics.ObserveComponentState)
	monitor.Start(ctx)

	settingsSvc := settings.NewService(plan.Registry.UISettingDefaults(), cache, version.Version)
	info := app.ServerInfo{
		Version:    version.Version,
		BuildNum:   version.Get().BuildNum,
		BuildSha:   version.Commit,
		BasePath:   cfg.ServerBasePath,
		ServerName: cfg.ServerName,
		DevMode:    cfg.DevMode(),
	}
	renderer := app.NewRenderer(plan.Registry, settingsSvc, health, info, metrics.NewRenderMetrics(registry))

	srv, err := httpserver.NewServer(cfg, renderer, health,
		httpserver.WithHealthChecks(serverChecks...),
		httpserver.WithMetrics(metrics.NewHTTPMetrics(registry), metrics.Handler(registry)),
	)
	if err != nil {
		monitor.Stop()
		return fmt.Errorf("failed to create server: %w", err)
	}

	done := runGracefulShutdown(srv, monitor)

	slog.Info("Server starting", "port", cfg.Port, "base_path", cfg.ServerBasePath)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		monitor.Stop()
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	return nil
}
