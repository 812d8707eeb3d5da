package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jwalitptl/fhir-sync-api/internal/config"
	"github.com/jwalitptl/fhir-sync-api/internal/fhir"
	authHandler "github.com/jwalitptl/fhir-sync-api/internal/handler/auth"
	healthHandler "github.com/jwalitptl/fhir-sync-api/internal/handler/health"
	patientHandler "github.com/jwalitptl/fhir-sync-api/internal/handler/patient"
	syncHandler "github.com/jwalitptl/fhir-sync-api/internal/handler/sync"
	"github.com/jwalitptl/fhir-sync-api/internal/middleware"
	"github.com/jwalitptl/fhir-sync-api/internal/repository/postgres"
	"github.com/jwalitptl/fhir-sync-api/internal/router"
	authService "github.com/jwalitptl/fhir-sync-api/internal/service/auth"
	queryService "github.com/jwalitptl/fhir-sync-api/internal/service/query"
	syncService "github.com/jwalitptl/fhir-sync-api/internal/service/sync"
	"github.com/jwalitptl/fhir-sync-api/pkg/logger"
	"github.com/jwalitptl/fhir-sync-api/pkg/messaging/redis"
	"github.com/jwalitptl/fhir-sync-api/pkg/metrics"
	"github.com/jwalitptl/fhir-sync-api/pkg/worker"
)

const (
	dbConnectAttempts = 5
	dbConnectDelay    = 5 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("fhir_sync", "api")

	// The database container may come up after this service; retry is
	// bounded and exhaustion is fatal.
	db, err := postgres.WaitForDB(cfg.Database, dbConnectAttempts, dbConnectDelay, appLogger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := postgres.EnsureSchema(db); err != nil {
		log.Fatal().Err(err).Msg("failed to create database tables")
	}

	// Repositories
	patientRepo := postgres.NewPatientRepository(db)
	observationRepo := postgres.NewObservationRepository(db)
	syncStore := postgres.NewSyncStore(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	fhirClient := fhir.NewClient(cfg.FHIR, appLogger, appMetrics)
	syncSvc := syncService.NewService(fhirClient, syncStore, appLogger, appMetrics)
	querySvc := queryService.NewService(patientRepo, observationRepo)
	authSvc, err := authService.NewService(cfg.Auth)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize auth service")
	}

	// Handlers and middleware
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		patientHandler.NewHandler(querySvc),
		syncHandler.NewHandler(syncSvc, outboxRepo, appLogger),
		healthHandler.NewHandler(db),
		router.Config{RateLimit: rate.Limit(50), RateBurst: 100},
	)
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Outbox processor publishes population events when a broker is
	// configured; the service runs fine without one.
	if cfg.Redis.URL != "" {
		zl := log.Logger
		broker, err := redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &zl)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, worker.OutboxProcessorConfig{
			BatchSize:     cfg.Outbox.BatchSize,
			PollInterval:  cfg.Outbox.PollInterval,
			RetryAttempts: cfg.Outbox.RetryAttempts,
			RetryDelay:    cfg.Outbox.RetryDelay,
		}, appLogger, appMetrics)
		go processor.Start(ctx)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
