package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/user/bookscraper-service/internal/api"
	"github.com/user/bookscraper-service/internal/auth"
	"github.com/user/bookscraper-service/internal/books"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/export"
	"github.com/user/bookscraper-service/internal/monitoring"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/storage"
	"github.com/user/bookscraper-service/internal/task"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}
	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET must be set")
	}

	ctx := context.Background()

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgStore.Close()

	var marker api.ScrapeMarker
	if cfg.RedisAddr != "" {
		redisStore := storage.NewRedisStore(cfg.RedisAddr, cfg.DedupTTL())
		if err := redisStore.Ping(ctx); err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		marker = redisStore
	} else {
		logger.Warn("REDIS_ADDR not set, duplicate-submission check disabled")
	}

	// Initialize Monitoring
	metrics := monitoring.NewMetrics()

	// Initialize Core Scraper
	registry := task.NewRegistry()
	exporter := export.NewWriter(logger)
	runner := scrape.NewRunner(
		registry,
		exporter,
		scrape.ChromeSessionFactory(cfg.PageTimeout(), cfg.SettleDelay()),
		metrics,
		logger,
		scrape.Options{
			Workers:    cfg.ScrapeWorkers,
			QueueSize:  cfg.ScrapeQueueSize,
			ItemDelay:  cfg.ItemDelay(),
			ExportDir:  cfg.ExportDir,
			ExportBase: cfg.ExportBase,
		},
	)
	runner.Start()

	// Initialize Dataset Layer
	datasetPath := filepath.Join(cfg.ExportDir, cfg.ExportBase+".csv")
	bookService := books.NewService(datasetPath, logger)
	if err := bookService.Reload(); err != nil {
		logger.Warn("book dataset not available yet, catalog endpoints will be offline until a scrape completes", zap.Error(err))
	}

	// Initialize Auth + API Server
	tokens := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL())
	server := api.NewServer(cfg, registry, runner, bookService, pgStore, marker, tokens, metrics, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runner.Stop()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
