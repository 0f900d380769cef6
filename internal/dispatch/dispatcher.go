// Package dispatch sends one email job through an ordered chain of
// providers with per-attempt timeouts and set-once idempotency markers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/idempotency"
	"github.com/notifyhub/campaign-mailer/internal/provider"
)

// Registry is the part of provider.Registry the dispatcher needs.
type Registry interface {
	Get(ctx context.Context, k provider.Kind) (provider.Sender, error)
	RecordSuccess(k provider.Kind, latency time.Duration)
	RecordFailure(k provider.Kind)
}

// Limiter throttles sends per provider.
type Limiter interface {
	Wait(ctx context.Context, k provider.Kind) error
}

type Config struct {
	Timeout        time.Duration
	IdempotencyTTL time.Duration
	DefaultOrder   []provider.Kind
}

// Hooks carries the metric callbacks injected by main. Nil hooks are no-ops.
type Hooks struct {
	OnSkipped   func()
	OnExhausted func()
}

// Outcome describes a dispatch that did not fail.
type Outcome struct {
	Provider provider.Kind
	Skipped  bool
	Key      string
}

type Dispatcher struct {
	registry Registry
	store    idempotency.Store
	limiter  Limiter
	cfg      Config
	hooks    Hooks
	logger   *zap.Logger
}

func New(registry Registry, store idempotency.Store, limiter Limiter, cfg Config, logger *zap.Logger, hooks Hooks) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if len(cfg.DefaultOrder) == 0 {
		cfg.DefaultOrder = provider.Kinds
	}
	return &Dispatcher{
		registry: registry,
		store:    store,
		limiter:  limiter,
		cfg:      cfg,
		hooks:    hooks,
		logger:   logger,
	}
}

// IdempotencyKey returns the marker key for a job: the explicit key, else
// one derived from the job id, else "" when neither exists.
func IdempotencyKey(jobID string, data domain.EmailJobData) string {
	if data.IdempotencyKey != "" {
		return data.IdempotencyKey
	}
	if jobID != "" {
		return "email:processed:" + jobID
	}
	return ""
}

// Dispatch sends data through the first provider that succeeds. A job whose
// marker is already set is skipped without contacting any provider. When
// every provider fails the marker is released and an *ExhaustedError is
// returned so the queue can retry the whole chain.
func (d *Dispatcher) Dispatch(ctx context.Context, jobID string, data domain.EmailJobData) (Outcome, error) {
	key := IdempotencyKey(jobID, data)
	log := d.logger.With(zap.String("job_id", jobID), zap.String("idempotency_key", key))

	if key != "" {
		acquired, err := d.store.Acquire(ctx, key, d.cfg.IdempotencyTTL)
		if err != nil {
			return Outcome{}, fmt.Errorf("idempotency check: %w", err)
		}
		if !acquired {
			log.Info("email already processed, skipping")
			if d.hooks.OnSkipped != nil {
				d.hooks.OnSkipped()
			}
			return Outcome{Skipped: true, Key: key}, nil
		}
	}

	msg := provider.Message{To: data.To, Subject: data.Subject, HTML: data.HTML}
	var failures []Failure

	for _, name := range d.order(data) {
		k, err := provider.ParseKind(name)
		if err != nil {
			failures = append(failures, Failure{Provider: name, Err: err})
			log.Warn("skipping unknown provider", zap.String("provider", name))
			continue
		}

		start := time.Now()
		err = d.attempt(ctx, k, msg)
		if err == nil {
			latency := time.Since(start)
			d.registry.RecordSuccess(k, latency)
			log.Info("email sent",
				zap.String("provider", string(k)),
				zap.Duration("latency", latency),
			)
			return Outcome{Provider: k, Key: key}, nil
		}

		d.registry.RecordFailure(k)
		retryable := IsRetryable(err)
		failures = append(failures, Failure{Provider: string(k), Err: err, Retryable: retryable})
		log.Warn("provider send failed",
			zap.String("provider", string(k)),
			zap.Bool("retryable", retryable),
			zap.Error(err),
		)
	}

	if key != "" {
		d.settleMarker(ctx, log, key, failures)
	}
	if d.hooks.OnExhausted != nil {
		d.hooks.OnExhausted()
	}
	return Outcome{Key: key}, &ExhaustedError{Failures: failures}
}

// settleMarker releases the marker so a queue retry can send, unless some
// attempt is unsettled. A late success from an abandoned call must not be
// followed by a second send under the same key.
func (d *Dispatcher) settleMarker(ctx context.Context, log *zap.Logger, key string, failures []Failure) {
	for _, f := range failures {
		if f.Unsettled() {
			log.Warn("keeping idempotency marker, an abandoned send may still be delivered",
				zap.String("provider", f.Provider),
				zap.Error(f.Err),
			)
			return
		}
	}
	if err := d.store.Release(context.WithoutCancel(ctx), key); err != nil {
		log.Error("failed to release idempotency marker", zap.Error(err))
	}
}

// order applies providerName > providers > default order.
func (d *Dispatcher) order(data domain.EmailJobData) []string {
	if data.ProviderName != "" {
		return []string{data.ProviderName}
	}
	if len(data.Providers) > 0 {
		return data.Providers
	}
	names := make([]string, len(d.cfg.DefaultOrder))
	for i, k := range d.cfg.DefaultOrder {
		names[i] = string(k)
	}
	return names
}

// attempt races one send against the timeout. The send keeps running in
// its goroutine if the timeout wins; its result is discarded.
func (d *Dispatcher) attempt(ctx context.Context, k provider.Kind, msg provider.Message) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.Timeout)
	defer cancel()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx, k); err != nil {
			return fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	sender, err := d.registry.Get(ctx, k)
	if err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrPanicked, r)
			}
		}()
		done <- sender.SendEmail(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimeout, d.cfg.Timeout)
		}
		return ctx.Err()
	}
}
