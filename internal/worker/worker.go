package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/dispatch"
	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// Processing outcomes reported to MetricHooks.OnProcessed.
const (
	OutcomeSent     = "sent"
	OutcomeSkipped  = "skipped"
	OutcomeRetrying = "retrying"
	OutcomeFailed   = "failed"
)

// JobQueue is the consumer side of the job queue.
type JobQueue interface {
	Reserve(ctx context.Context) (*domain.Job, error)
	Complete(ctx context.Context, j *domain.Job) error
	Fail(ctx context.Context, j *domain.Job, cause error) (bool, error)
}

// Dispatcher sends one job's email.
type Dispatcher interface {
	Dispatch(ctx context.Context, jobID string, data domain.EmailJobData) (dispatch.Outcome, error)
}

// Worker is a single goroutine that continuously reserves jobs from the
// queue, hands them to the dispatcher, and reports the result back so the
// queue can apply its retry policy.
type Worker struct {
	id         int
	q          JobQueue
	dispatcher Dispatcher
	logger     *zap.Logger

	// Hook for metrics, injected by the pool so the worker stays metrics-agnostic.
	onProcessed func(outcome string, latency time.Duration)
}

// NewWorker constructs a worker. onProcessed is optional (nil = no-op).
func NewWorker(
	id int,
	q JobQueue,
	d Dispatcher,
	logger *zap.Logger,
	onProcessed func(string, time.Duration),
) *Worker {
	if onProcessed == nil {
		onProcessed = func(string, time.Duration) {}
	}
	return &Worker{id: id, q: q, dispatcher: d, logger: logger, onProcessed: onProcessed}
}

// Run blocks until ctx is cancelled, processing one job per iteration.
// A job already reserved when ctx is cancelled still runs to completion.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started", zap.Int("id", w.id))
	for {
		j, err := w.q.Reserve(ctx)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopping", zap.Int("id", w.id))
				return
			}
			w.logger.Error("reserve failed", zap.Error(err))
			continue
		}
		w.process(context.WithoutCancel(ctx), j)
	}
}

func (w *Worker) process(ctx context.Context, j *domain.Job) {
	start := time.Now()
	log := w.logger.With(
		zap.String("job_id", j.ID),
		zap.Int("attempt", j.AttemptsMade+1),
		zap.String("event", string(j.Data.EventName)),
	)

	var (
		out dispatch.Outcome
		err error
	)
	if j.Name != domain.JobNameSendEmail {
		err = fmt.Errorf("unsupported job %q", j.Name)
	} else {
		out, err = w.dispatcher.Dispatch(ctx, j.ID, j.Data)
	}
	elapsed := time.Since(start)

	if err != nil {
		w.handleFailure(ctx, log, j, err, elapsed)
		return
	}

	if err := w.q.Complete(ctx, j); err != nil {
		log.Error("failed to mark job completed", zap.Error(err))
		return
	}

	if out.Skipped {
		w.onProcessed(OutcomeSkipped, elapsed)
		log.Debug("duplicate job skipped")
		return
	}
	w.onProcessed(OutcomeSent, elapsed)
	log.Info("job completed", zap.String("provider", string(out.Provider)), zap.Duration("latency", elapsed))
}

// handleFailure hands the error to the queue, which either schedules a
// retry or marks the job permanently failed.
func (w *Worker) handleFailure(ctx context.Context, log *zap.Logger, j *domain.Job, cause error, elapsed time.Duration) {
	retrying, err := w.q.Fail(ctx, j, cause)
	if err != nil {
		log.Error("failed to record job failure", zap.Error(err))
		return
	}

	fields := []zap.Field{zap.Error(cause), zap.Int("attempts_made", j.AttemptsMade)}
	var exhausted *dispatch.ExhaustedError
	if errors.As(cause, &exhausted) {
		fields = append(fields, zap.Int("providers_tried", len(exhausted.Failures)))
	}

	if retrying {
		w.onProcessed(OutcomeRetrying, elapsed)
		log.Warn("job failed, will retry", fields...)
		return
	}
	w.onProcessed(OutcomeFailed, elapsed)
	log.Error("job permanently failed", fields...)
}
