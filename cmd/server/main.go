// Package main is the entrypoint for the hiretrack API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranshivaraju/hiretrack/internal/activity"
	"github.com/kiranshivaraju/hiretrack/internal/api"
	mw "github.com/kiranshivaraju/hiretrack/internal/api/middleware"
	"github.com/kiranshivaraju/hiretrack/internal/api/response"
	"github.com/kiranshivaraju/hiretrack/internal/cache"
	"github.com/kiranshivaraju/hiretrack/internal/config"
	"github.com/kiranshivaraju/hiretrack/internal/fault"
	"github.com/kiranshivaraju/hiretrack/internal/seed"
	"github.com/kiranshivaraju/hiretrack/internal/service"
	"github.com/kiranshivaraju/hiretrack/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "store", cfg.Store.Driver, "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the store and apply schema migrations
	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Create the cache
	kv, closeCache, err := openCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeCache()

	// 4. Seed on first start
	corpus, err := seed.DefaultCorpus()
	if err != nil {
		return fmt.Errorf("load seed corpus: %w", err)
	}
	gen := seed.NewGenerator(corpus, seed.Counts{
		Jobs:        cfg.Seed.Jobs,
		Candidates:  cfg.Seed.Candidates,
		Assessments: cfg.Seed.Assessments,
	}, cfg.Seed.RandomSeed, time.Now().UTC())
	version, err := seed.Migrate(ctx, st, seed.Steps(gen))
	if err != nil {
		return fmt.Errorf("seed store: %w", err)
	}
	slog.Info("seed data ready", "seed_version", version)

	// 5. Services
	feed := activity.NewLog(kv, cfg.Activity.Capacity)
	svc := api.Services{
		Jobs:        service.NewJobService(st, feed),
		Candidates:  service.NewCandidateService(st, feed),
		Assessments: service.NewAssessmentService(st, feed),
		Activity:    feed,
	}

	// 6. Build router with dependencies
	policy := fault.FromConfig(cfg.Fault, cfg.Seed.RandomSeed)
	if cfg.Fault.Disabled {
		slog.Warn("fault injection disabled")
	}
	deps := api.Dependencies{
		RateLimit:     mw.NewRateLimit(kv, cfg.Server.RateLimitPerMinute),
		Fault:         policy,
		HealthHandler: healthHandler(st, kv),
	}.WithServices(svc)

	router := api.NewRouter(deps)

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// openStore builds the configured store. The returned func releases it.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := store.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connect database: %w", err)
		}
		if err := store.RunMigrations(cfg.Database.URL); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("postgres store ready")
		return store.NewPostgresStore(pool), pool.Close, nil

	case config.DriverSQLite:
		db, err := store.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := store.RunSQLiteMigrations(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		slog.Info("sqlite store ready", "path", cfg.Store.SQLitePath)
		return store.NewSQLiteStore(db), func() { db.Close() }, nil

	default:
		slog.Info("memory store ready")
		return store.NewMemoryStore(), func() {}, nil
	}
}

// openCache dials Redis when configured and falls back to the in-process cache.
func openCache(ctx context.Context, cfg config.RedisConfig) (cache.Cache, func(), error) {
	if cfg.URL == "" {
		slog.Info("using in-process cache")
		return cache.NewMemoryCache(), func() {}, nil
	}

	redisCache, err := cache.NewRedisCache(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("create redis cache: %w", err)
	}
	if err := redisCache.Ping(ctx); err != nil {
		redisCache.Close()
		return nil, nil, fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")
	return redisCache, closeLogged(redisCache), nil
}

func closeLogged(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

// healthHandler checks store and cache connectivity.
func healthHandler(s, c pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{
			"store": "ok",
			"cache": "ok",
		}

		if err := s.Ping(r.Context()); err != nil {
			checks["store"] = "degraded"
		}
		if err := c.Ping(r.Context()); err != nil {
			checks["cache"] = "degraded"
		}

		degraded := checks["store"] != "ok" || checks["cache"] != "ok"
		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
