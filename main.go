package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"PlaceCache/internal/cache"
	"PlaceCache/internal/cache/placeCache"
	"PlaceCache/internal/cache/store"
	"PlaceCache/internal/config"
	"PlaceCache/internal/http"
	"PlaceCache/internal/logger"
	"PlaceCache/internal/models"
	"PlaceCache/internal/origin"
	"PlaceCache/internal/pagination"
	"PlaceCache/internal/places"
	"PlaceCache/internal/ratelimit"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logSink, err := initializeLogSink(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize log sink: %v", err)
	}

	// Closing the logger drains pending writes and closes the sink
	appLogger := logger.NewDatabaseLogger(logSink)
	defer appLogger.Close()

	startupCtx := logger.NewInternalContext()

	appLogger.LogInfo(startupCtx, logger.OpServerStart, "Starting Place Cache API", map[string]interface{}{
		"version": "1.0.0",
		"config": map[string]interface{}{
			"port":                 cfg.Port,
			"persistent_store":     cfg.PersistentStore,
			"log_sink":             cfg.LogSink,
			"memory_cache_ttl":     cfg.MemoryCacheTTL.Seconds(),
			"persistent_cache_ttl": cfg.PersistentCacheTTL.Seconds(),
		},
	})

	persistent, err := initializeStore(cfg, appLogger)
	if err != nil {
		appLogger.LogError(startupCtx, "store_init", cfg.PersistentStore, "Failed to initialize persistent store", err, models.LogSeverityHigh, nil)
		appLogger.Close()
		log.Fatalf("Failed to initialize persistent store: %v", err)
	}
	defer persistent.Close()

	placeCacheService := placeCache.New(
		cache.NewMemoryCache(cfg.MemoryCacheTTL),
		persistent,
		appLogger,
		placeCache.Settings{MemoryTTL: cfg.MemoryCacheTTL},
	)

	originRate := int64(cfg.OriginRateLimitPerSec)
	originClient := origin.NewHTTPClient(origin.Settings{
		BaseURL:     cfg.OriginBaseURL,
		APIKey:      cfg.OriginAPIKey,
		Timeout:     cfg.OriginTimeout,
		ResultLimit: cfg.OriginResultLimit,
	}, ratelimit.NewTokenBucket(originRate, originRate))

	searchService := places.NewService(placeCacheService, originClient, appLogger, cfg.MaxConcurrentLookups)

	rateLimiter := ratelimit.NewTwoTierRateLimiter(
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.GlobalRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
		int64(cfg.PerIPRateLimitPerSec),
	)
	defer rateLimiter.Close()

	handler := http.NewHandler(
		searchService,
		placeCacheService,
		appLogger,
		pagination.Settings{DefaultLimit: cfg.PaginationDefaultLimit, MaxLimit: cfg.PaginationMaxLimit},
		cfg.MaxBatchSize,
	)

	addr := ":" + cfg.Port
	server := http.NewServer(
		addr,
		handler,
		appLogger,
		rateLimiter,
		cfg.ServerReadTimeout,
		cfg.ServerWriteTimeout,
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	fmt.Printf("Place Cache API listening on %s (store=%s)\n", addr, cfg.PersistentStore)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		appLogger.LogError(startupCtx, logger.OpServerStart, "", "Server failed to start", err, models.LogSeverityHigh, map[string]interface{}{"addr": addr})
		log.Printf("Server failed to start: %v", err)
		return
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(logger.NewInternalContext(), cfg.ServerShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.LogError(ctx, logger.OpServerShutdown, "", "Server shutdown error", err, models.LogSeverityMedium, nil)
		log.Printf("Server shutdown error: %v", err)
		return
	}

	appLogger.LogInfo(ctx, logger.OpServerShutdown, "Server shutdown completed successfully", nil)
}

func initializeLogSink(cfg *config.Config) (logger.Sink, error) {
	switch cfg.LogSink {
	case config.LogSinkDatabase:
		return logger.NewPostgresConnection(cfg.DatabaseURL)
	case config.LogSinkStdout:
		return logger.NewStdoutConnection(), nil
	default:
		return nil, fmt.Errorf("unsupported log sink: %s", cfg.LogSink)
	}
}

func initializeStore(cfg *config.Config, appLogger logger.Service) (store.Service, error) {
	opts := store.Options{
		TTL:            cfg.PersistentCacheTTL,
		ReaperInterval: cfg.ReaperInterval,
	}

	switch cfg.PersistentStore {
	case config.StoreRedis:
		return store.NewRedisStore(cfg.RedisURL, opts)
	case config.StorePostgres:
		return store.NewPostgresStore(cfg.CacheDatabaseURL, opts, appLogger)
	case config.StoreMemory:
		return store.NewMemoryStore(opts, appLogger), nil
	default:
		return nil, fmt.Errorf("unsupported persistent store: %s", cfg.PersistentStore)
	}
}
