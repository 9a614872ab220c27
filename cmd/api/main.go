package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"mediafeed/api/internal/cache"
	"mediafeed/api/internal/config"
	"mediafeed/api/internal/database"
	"mediafeed/api/internal/feed"
	"mediafeed/api/internal/generate"
	"mediafeed/api/internal/handlers"
	"mediafeed/api/internal/jobs"
	"mediafeed/api/internal/log"
	"mediafeed/api/internal/provider"
	"mediafeed/api/internal/server"
	"mediafeed/api/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	var (
		store  feed.Store
		dbPool *pgxpool.Pool
	)
	switch cfg.Feed.Backend {
	case "postgres":
		dbPool, err = database.NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect postgres")
		}
		pgStore := feed.NewPGStore(dbPool)
		if err := pgStore.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare media schema")
		}
		store = pgStore
	default:
		store, err = feed.NewFileStore(cfg.Feed.FilePath, cfg.Feed.SeedPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open feed file")
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		store = feed.NewCachedStore(store, redisClient, cfg.Redis.PageTTL, logger)
	}

	var objectStore *storage.ObjectStore
	if cfg.Storage.Enabled {
		objectStore, err = storage.NewObjectStore(cfg.Storage)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to init object store")
		}
		if err := objectStore.EnsureBucket(ctx); err != nil {
			logger.Warn().Err(err).Msg("ensure bucket failed")
		}
	}

	registry := provider.NewRegistry(cfg.Providers, &http.Client{})
	dispatcher := generate.NewDispatcher(registry, store, objectStore, cfg.Generate, logger)

	handlerSet := handlers.NewHandlerSet(logger, cfg, store, dispatcher, dbPool, redisClient)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(store, cfg.Feed, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	if db != nil {
		db.Close()
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}

	logger.Info().Msg("server exited cleanly")
}
