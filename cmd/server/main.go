package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"subsidy-concierge/internal/api"
	"subsidy-concierge/internal/common/config"
	"subsidy-concierge/internal/common/database"
	"subsidy-concierge/internal/common/jgrants"
	"subsidy-concierge/internal/common/llm"
	"subsidy-concierge/internal/common/logger"
	"subsidy-concierge/internal/common/observability"
	"subsidy-concierge/internal/dialogue"
	"subsidy-concierge/internal/search"
	"subsidy-concierge/internal/session"
)

// retryWithBackoff retries an operation with exponential backoff.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = operation(); err == nil {
			if attempt > 1 {
				log.Info("Operation succeeded after retry",
					zap.String("operation", operationName),
					zap.Int("attempt", attempt))
			}
			return nil
		}

		if attempt < maxRetries {
			log.Warn("Operation failed, retrying",
				zap.String("operation", operationName),
				zap.Int("attempt", attempt),
				zap.Int("max_retries", maxRetries),
				zap.Duration("retry_delay", delay),
				zap.Error(err))
			time.Sleep(delay)
			delay *= 2
		}
	}

	log.Error("Operation failed after all retries",
		zap.String("operation", operationName),
		zap.Int("max_retries", maxRetries),
		zap.Error(err))
	return err
}

func main() {
	zlog := logger.New(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))
	defer zlog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zlog.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Rebuild the logger now that the configured level and format are known.
	zlog = logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zlog.Sync()

	zlog.Info("Starting subsidy concierge",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment))

	obs := observability.New(cfg.App.Name, os.Getenv("JAEGER_ENDPOINT"))
	defer obs.Shutdown()

	log := logger.NewZapAdapter(zlog)

	// Redis holds every conversation; the server is useless without it.
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var initErr error
		redisClient, initErr = database.NewRedis(cfg.Database.Redis)
		if initErr != nil {
			return initErr
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zlog, "redis_initialization")
	if err != nil {
		zlog.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// Elasticsearch only archives search snapshots, so a missing cluster is
	// tolerated: the orchestrator runs without an archive.
	var archive *search.Archive
	if cfg.Database.Elasticsearch.Enabled {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var initErr error
			esClient, initErr = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if initErr != nil {
				return initErr
			}
			return esClient.Ping()
		}, 5, 2*time.Second, zlog, "elasticsearch_initialization")
		if err != nil {
			zlog.Warn("Elasticsearch unavailable, search archiving disabled", zap.Error(err))
		} else {
			archive = search.NewArchive(esClient, cfg.Database.Elasticsearch.Index)
		}
	}

	oracle := llm.NewClient(cfg.APIs.DeepSeek)
	directory := jgrants.NewClient(cfg.APIs.JGrants)

	orchestrator := search.NewOrchestrator(directory, archive, obs, log, cfg.Search)
	store := session.NewStore(redisClient, log, cfg.Session)
	controller := dialogue.NewController(oracle, orchestrator, store, obs, log, cfg.Dialogue)

	server := api.NewServer(controller, log, redisClient.Ping)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zlog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	zlog.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Error("Graceful shutdown failed", zap.Error(err))
	}

	zlog.Info("Shutdown complete")
}
