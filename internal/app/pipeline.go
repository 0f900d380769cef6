// Package app assembles the consumer pipeline shared by the API server (in
// inline mode) and the headless worker binary.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/notifyhub/campaign-mailer/internal/config"
	"github.com/notifyhub/campaign-mailer/internal/dispatch"
	"github.com/notifyhub/campaign-mailer/internal/eventbus"
	"github.com/notifyhub/campaign-mailer/internal/idempotency"
	"github.com/notifyhub/campaign-mailer/internal/metrics"
	"github.com/notifyhub/campaign-mailer/internal/orchestrator"
	"github.com/notifyhub/campaign-mailer/internal/provider"
	"github.com/notifyhub/campaign-mailer/internal/queue"
	"github.com/notifyhub/campaign-mailer/internal/ratelimiter"
	"github.com/notifyhub/campaign-mailer/internal/relay"
	"github.com/notifyhub/campaign-mailer/internal/repository"
	"github.com/notifyhub/campaign-mailer/internal/resolver"
	"github.com/notifyhub/campaign-mailer/internal/rules"
	"github.com/notifyhub/campaign-mailer/internal/worker"
)

// NewQueue builds the email queue from configuration with metric hooks
// attached. Producers and consumers must agree on the name.
func NewQueue(cfg *config.Config, repo repository.JobRepository, m *metrics.Metrics, logger *zap.Logger) *queue.Queue {
	return queue.New(repo, queue.Config{
		Name:              cfg.QueueName,
		Attempts:          cfg.JobAttempts,
		Backoff:           cfg.JobBackoff,
		LockTimeout:       cfg.LockTimeout,
		PollInterval:      cfg.PollInterval,
		CompletedMaxAge:   cfg.CompletedMaxAge,
		CompletedMaxCount: cfg.CompletedMaxCount,
		FailedMaxAge:      cfg.FailedMaxAge,
		FailedMaxCount:    cfg.FailedMaxCount,
	}, logger, m.QueueHooks())
}

// Deps are the externally owned pieces of the pipeline.
type Deps struct {
	Queue     *queue.Queue
	Broker    relay.Broker
	Store     idempotency.Store
	Factories map[provider.Kind]provider.Factory
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Pipeline is the consumer side: relay, bus, orchestrator, worker pool and
// janitor around one queue.
type Pipeline struct {
	Bus      *eventbus.Bus
	Registry *provider.Registry

	relay   *relay.Relay
	pool    *worker.Pool
	janitor *worker.Janitor
	logger  *zap.Logger
}

func NewPipeline(cfg *config.Config, deps Deps) (*Pipeline, error) {
	order := make([]provider.Kind, 0, len(cfg.ProviderOrder))
	for _, name := range cfg.ProviderOrder {
		k, err := provider.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("EMAIL_PROVIDER_ORDER: %w", err)
		}
		order = append(order, k)
	}

	logger, m := deps.Logger, deps.Metrics
	bus := eventbus.New(logger.Named("bus"))

	orchestrator.New(bus, rules.DefaultTable(), resolver.New(cfg.AdminEmail), deps.Queue, logger.Named("orchestrator"), orchestrator.Hooks{
		OnEvent:    m.OnEvent,
		OnEnqueued: m.OnEnqueued,
		OnSkipped:  m.OnSkipped,
	})

	registry := provider.NewRegistry(deps.Factories, m, logger.Named("provider"))
	d := dispatch.New(registry, deps.Store, ratelimiter.New(cfg.ProviderRateLimit), dispatch.Config{
		Timeout:        cfg.ProviderTimeout,
		IdempotencyTTL: cfg.IdempotencyTTL,
		DefaultOrder:   order,
	}, logger.Named("dispatch"), m.DispatchHooks())

	return &Pipeline{
		Bus:      bus,
		Registry: registry,
		relay:    relay.New(deps.Broker, cfg.RelayChannel, bus, logger.Named("relay"), m.RelayHook()),
		pool: worker.NewPool(cfg.WorkerConcurrency, deps.Queue, d, logger.Named("worker"), worker.MetricHooks{
			OnProcessed: m.WorkerHook(),
		}),
		janitor: worker.NewJanitor(deps.Queue, cfg.JanitorInterval, logger.Named("janitor"), m.SetQueueDepth),
		logger:  logger,
	}, nil
}

// Run starts every component and blocks until ctx is cancelled or the relay
// fails. It returns only after in-flight jobs have drained.
func (p *Pipeline) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	p.pool.Start(gctx)
	p.logger.Info("worker pool started", zap.Int("workers", p.pool.Size()))

	g.Go(func() error { return p.relay.Run(gctx) })
	g.Go(func() error {
		p.janitor.Run(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		p.pool.Wait()
		p.logger.Info("worker pool drained")
		return nil
	})

	return g.Wait()
}
