package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

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
)

// The worker process consumes the event channel and the email queue. It
// exposes only probes and Prometheus metrics.
func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- storage ----
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	rdb, err := db.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close() //nolint:errcheck

	// ---- pipeline ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	p, err := app.NewPipeline(cfg, app.Deps{
		Queue:     app.NewQueue(cfg, repository.NewPgJobRepository(pool), m, logger),
		Broker:    relay.NewRedisBroker(rdb),
		Store:     idempotency.NewRedisStore(rdb),
		Factories: provider.Factories(cfg),
		Metrics:   m,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal("failed to build pipeline", zap.Error(err))
	}

	srv := &http.Server{
		Addr: ":" + cfg.WorkerHTTPPort,
		Handler: api.NewWorkerRouter(map[string]handler.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, reg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return p.Run(gctx) })
	g.Go(func() error {
		logger.Info("worker metrics listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		return
	}
	logger.Info("worker stopped cleanly")
}
