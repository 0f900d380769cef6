package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/api"
	"github.com/notifyhub/campaign-mailer/internal/api/handler"
	"github.com/notifyhub/campaign-mailer/internal/app"
	"github.com/notifyhub/campaign-mailer/internal/config"
	"github.com/notifyhub/campaign-mailer/internal/db"
	"github.com/notifyhub/campaign-mailer/internal/idempotency"
	"github.com/notifyhub/campaign-mailer/internal/metrics"
	"github.com/notifyhub/campaign-mailer/internal/provider"
	"github.com/notifyhub/campaign-mailer/internal/relay"
	"github.com/notifyhub/campaign-mailer/internal/repository"
	"github.com/notifyhub/campaign-mailer/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- storage ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	rdb, err := db.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close() //nolint:errcheck

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	q := app.NewQueue(cfg, repository.NewPgJobRepository(pool), m, logger)
	broker := relay.NewRedisBroker(rdb)

	// ---- optional in-process consumer ----
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var stats service.ProviderStats
	pipelineDone := make(chan struct{})
	if cfg.InlineWorkers {
		p, err := app.NewPipeline(cfg, app.Deps{
			Queue:     q,
			Broker:    broker,
			Store:     idempotency.NewRedisStore(rdb),
			Factories: provider.Factories(cfg),
			Metrics:   m,
			Logger:    logger,
		})
		if err != nil {
			logger.Fatal("failed to build pipeline", zap.Error(err))
		}
		stats = p.Registry
		go func() {
			defer close(pipelineDone)
			if err := p.Run(workerCtx); err != nil {
				logger.Error("pipeline stopped", zap.Error(err))
			}
		}()
	} else {
		close(pipelineDone)
	}

	svc := service.NewEmailService(relay.NewPublisher(broker, cfg.RelayChannel), q, stats, logger)

	// ---- HTTP server ----
	checks := map[string]handler.Pinger{
		"postgres": pool.Ping,
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	}
	router := api.NewRouter(svc, checks, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("inline_workers", cfg.InlineWorkers),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop reserving jobs and wait for in-flight sends.
	cancelWorkers()
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout reached with jobs still in flight")
	}

	logger.Info("server stopped cleanly")
}
