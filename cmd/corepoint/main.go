package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/FangWolf96/corepoint-ingest/internal/config"
	"github.com/FangWolf96/corepoint-ingest/internal/http/server"
	"github.com/FangWolf96/corepoint-ingest/internal/infra/logging"
	"github.com/FangWolf96/corepoint-ingest/internal/infra/postgres"
	"github.com/FangWolf96/corepoint-ingest/internal/tokens"
)

func main() {
	cfg := config.Load()
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.ReportDB,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tokenCache := setupTokenCache(ctx, cfg)

	app := server.New(server.Deps{Config: cfg, Redis: rdb, Tokens: tokenCache})

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// setupTokenCache wires the Postgres-backed API key store when configured.
// Without a Postgres host the service runs in public mode.
func setupTokenCache(ctx context.Context, cfg config.Config) *tokens.Cache {
	if cfg.Auth.Postgres.Host == "" {
		return nil
	}

	dsn, err := postgres.BuildDSN(cfg.Auth.Postgres)
	if err != nil {
		logging.Error("Invalid postgres config, running without API keys", "error", err)
		return nil
	}

	cache := tokens.NewCache()
	repo := postgres.NewTokenRepository(postgres.NewDB(), dsn)
	reloader := tokens.NewReloader(repo, cache, cfg.Auth.TokenReloadInterval)

	if err := reloader.LoadOnce(ctx); err != nil {
		logging.Error("Failed to load API tokens", "error", err)
	}
	go reloader.Run(ctx)

	return cache
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	// Listen for OS termination signals
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
