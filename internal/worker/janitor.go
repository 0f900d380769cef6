package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// Maintainer is the housekeeping side of the job queue.
type Maintainer interface {
	Clean(ctx context.Context) (int, error)
	Counts(ctx context.Context) (domain.JobCounts, error)
}

// Janitor applies the queue's retention policy on a fixed interval and
// reports per-state depth after each sweep.
//
// Retries and delayed jobs need no poller here: the queue persists their
// run_at and Reserve picks them up once due.
type Janitor struct {
	q        Maintainer
	interval time.Duration
	onDepth  func(domain.JobCounts)
	logger   *zap.Logger
}

func NewJanitor(q Maintainer, interval time.Duration, logger *zap.Logger, onDepth func(domain.JobCounts)) *Janitor {
	if onDepth == nil {
		onDepth = func(domain.JobCounts) {}
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Janitor{q: q, interval: interval, onDepth: onDepth, logger: logger}
}

// Run sweeps once immediately, then every interval.
// Stops cleanly when ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.logger.Info("queue janitor started", zap.Duration("interval", j.interval))
	j.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("queue janitor stopping")
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs one retention pass and refreshes the depth snapshot.
func (j *Janitor) Sweep(ctx context.Context) {
	removed, err := j.q.Clean(ctx)
	if err != nil {
		j.logger.Error("queue clean error", zap.Error(err))
	} else if removed > 0 {
		j.logger.Info("removed expired jobs", zap.Int("count", removed))
	}

	counts, err := j.q.Counts(ctx)
	if err != nil {
		j.logger.Error("queue count error", zap.Error(err))
		return
	}
	j.onDepth(counts)
}
