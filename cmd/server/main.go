package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/lesson-assessment-service/internal/cache"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/config"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/handlers"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/services"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/utils"
	"github.com/SAP-F-2025/lesson-assessment-service/internal/validator"
	"github.com/SAP-F-2025/lesson-assessment-service/pkg"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Environment)
	slog.SetDefault(logger)
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if cfg.AutoMigrate {
		if err := postgres.AutoMigrate(db); err != nil {
			return err
		}
	}

	// Redis only fronts assessment reads, so the service runs without it.
	var cacheService cache.CacheService
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, assessment cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheService = cache.NewRedisCache(redisClient, "lesson-assessment:", logger)
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	}()

	repo := postgres.NewRepository(db, cacheService, cfg.CacheTTL, logger)
	m := metrics.New()
	notifier := services.NewNotificationEventService(publisher, logger)

	svc := handlers.ServiceSet{
		Assessment: services.NewAssessmentService(repo, logger, validator.New()),
		Attempt:    services.NewAttemptService(repo, notifier, m, logger),
		Export:     services.NewExportService(repo, logger),
	}

	var tokenParser handlers.TokenParser
	if client := pkg.NewCasdoorClient(cfg); client != nil {
		tokenParser = client
		logger.Info("Bearer token identity enabled", "endpoint", cfg.Casdoor.Endpoint)
	}

	router := handlers.NewHandlerManager(svc, tokenParser, m, utils.NewSlogLogger(logger)).NewRouter()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
