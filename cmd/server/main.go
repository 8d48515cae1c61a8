// Command server runs the bookmarks API.
//
// Configuration comes from the environment, optionally seeded from a .env
// file in the working directory. Only JWT_SECRET is required; everything
// else has a default. Redis, RabbitMQ and GitHub sign-in are each enabled
// by setting their variables and degrade gracefully when unreachable.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/config"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/server"
	"github.com/sakif/bookmarks/internal/storage"
)

func main() {
	// === 1. CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	// === 3. STORAGE ===
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		logger.Error("failed to open storage",
			slog.String("backend", cfg.Storage.Backend),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	// === 4. OPTIONAL INFRASTRUCTURE ===
	deps := server.Deps{
		Store:     store,
		Redis:     connectRedis(ctx, cfg, logger),
		Publisher: connectEvents(cfg, logger),
	}
	if cfg.GitHub.Enabled() {
		deps.GitHub = auth.NewGitHubProvider(cfg.GitHub.ClientID, cfg.GitHub.ClientSecret, cfg.GitHub.CallbackURL)
	}

	// === 5. SERVE ===
	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		store.Close()
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// connectRedis returns nil when Redis is not configured or does not answer,
// which turns off caching and rate limiting.
func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) *redis.Client {
	if cfg.Redis.Addr == "" {
		logger.Info("REDIS_ADDR not set; structure cache and rate limiting are disabled")
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable; structure cache and rate limiting are disabled",
			slog.String("addr", cfg.Redis.Addr),
			slog.String("error", err.Error()),
		)
		rdb.Close()
		return nil
	}
	return rdb
}

// connectEvents falls back to logging events when no broker is reachable.
func connectEvents(cfg config.Config, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.NewLogPublisher(logger)
	}

	pub, err := events.DialAMQP(cfg.AMQPURL, cfg.EventsQueue)
	if err != nil {
		logger.Warn("amqp unavailable; events will be logged",
			slog.String("error", err.Error()),
		)
		return events.NewLogPublisher(logger)
	}
	logger.Info("publishing events", slog.String("queue", cfg.EventsQueue))
	return pub
}
