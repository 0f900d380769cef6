package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/repository"
)

// Config holds the queue-wide defaults applied by Add and the retention
// applied by Clean.
type Config struct {
	Name            string
	Attempts        int
	Backoff         time.Duration
	DefaultPriority domain.Priority

	// An active job whose lock expires is considered stalled and can be
	// claimed again.
	LockTimeout  time.Duration
	PollInterval time.Duration

	CompletedMaxAge   time.Duration
	CompletedMaxCount int
	FailedMaxAge      time.Duration
	FailedMaxCount    int
}

// DefaultConfig returns the standard email queue policy.
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		Attempts:          3,
		Backoff:           time.Second,
		DefaultPriority:   domain.PriorityMedium,
		LockTimeout:       2 * time.Minute,
		PollInterval:      time.Second,
		CompletedMaxAge:   24 * time.Hour,
		CompletedMaxCount: 1000,
		FailedMaxAge:      7 * 24 * time.Hour,
		FailedMaxCount:    5000,
	}
}

// Hooks observe job lifecycle transitions. They are for observability only;
// the queue never consults them. Nil hooks are no-ops.
type Hooks struct {
	OnWaiting   func(j *domain.Job)
	OnActive    func(j *domain.Job)
	OnCompleted func(j *domain.Job)
	OnRetrying  func(j *domain.Job, delay time.Duration, cause error)
	OnFailed    func(j *domain.Job, cause error)
}

// AddOption overrides a queue default for one job.
type AddOption func(*domain.Job)

func WithPriority(p domain.Priority) AddOption {
	return func(j *domain.Job) {
		if p > 0 {
			j.Priority = p
		}
	}
}

// WithDelay makes the job invisible to Reserve until d has elapsed.
func WithDelay(d time.Duration) AddOption {
	return func(j *domain.Job) {
		if d > 0 {
			j.RunAt = j.RunAt.Add(d)
			j.State = domain.JobDelayed
		}
	}
}

func WithAttempts(n int) AddOption {
	return func(j *domain.Job) {
		if n > 0 {
			j.Attempts = n
		}
	}
}

func WithBackoff(d time.Duration) AddOption {
	return func(j *domain.Job) {
		if d > 0 {
			j.Backoff = d
		}
	}
}

// Queue is a durable, priority-ordered, at-least-once job queue.
//
// Jobs are served by ascending priority and, within a priority, by arrival.
// The queue owns retry scheduling: Fail either reschedules the job with
// exponential backoff or moves it to the terminal failed state.
type Queue struct {
	repo   repository.JobRepository
	cfg    Config
	hooks  Hooks
	logger *zap.Logger

	wake chan struct{}
	now  func() time.Time
}

func New(repo repository.JobRepository, cfg Config, logger *zap.Logger, hooks Hooks) *Queue {
	def := DefaultConfig(cfg.Name)
	if cfg.Attempts < 1 {
		cfg.Attempts = def.Attempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = def.Backoff
	}
	if cfg.DefaultPriority <= 0 {
		cfg.DefaultPriority = def.DefaultPriority
	}
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = def.LockTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &Queue{
		repo:   repo,
		cfg:    cfg,
		hooks:  hooks,
		logger: logger.With(zap.String("queue", cfg.Name)),
		wake:   make(chan struct{}, 1),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (q *Queue) Name() string { return q.cfg.Name }

// Add persists a new job and wakes one local waiter.
func (q *Queue) Add(ctx context.Context, name string, data domain.EmailJobData, opts ...AddOption) (*domain.Job, error) {
	now := q.now()
	j := &domain.Job{
		ID:        uuid.NewString(),
		Queue:     q.cfg.Name,
		Name:      name,
		Data:      data,
		Priority:  q.cfg.DefaultPriority,
		State:     domain.JobWaiting,
		Attempts:  q.cfg.Attempts,
		Backoff:   q.cfg.Backoff,
		RunAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(j)
	}

	if err := q.repo.Insert(ctx, j); err != nil {
		return nil, fmt.Errorf("add job: %w", err)
	}

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.logger.Debug("job added",
		zap.String("job_id", j.ID),
		zap.String("state", string(j.State)),
		zap.Int("priority", int(j.Priority)),
	)
	if j.State == domain.JobWaiting && q.hooks.OnWaiting != nil {
		q.hooks.OnWaiting(j)
	}
	return j, nil
}

// Reserve blocks until a job is ready and claims it for the caller. It
// returns ctx.Err() once ctx is cancelled.
func (q *Queue) Reserve(ctx context.Context) (*domain.Job, error) {
	timer := time.NewTimer(q.cfg.PollInterval)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		j, err := q.repo.Claim(ctx, q.cfg.Name, q.now(), q.cfg.LockTimeout)
		switch {
		case err == nil:
			if q.hooks.OnActive != nil {
				q.hooks.OnActive(j)
			}
			return j, nil
		case errors.Is(err, domain.ErrNotFound):
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			q.logger.Error("claim job failed", zap.Error(err))
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(q.cfg.PollInterval)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.wake:
		case <-timer.C:
		}
	}
}

// Complete marks j as successfully processed.
func (q *Queue) Complete(ctx context.Context, j *domain.Job) error {
	now := q.now()
	if err := q.repo.Complete(ctx, j.ID, now); err != nil {
		return fmt.Errorf("complete job %s: %w", j.ID, err)
	}
	j.State = domain.JobCompleted
	j.FinishedAt = &now
	if q.hooks.OnCompleted != nil {
		q.hooks.OnCompleted(j)
	}
	return nil
}

// Fail records a failed attempt. While attempts remain the job is
// rescheduled after Backoff * 2^(attemptsMade-1); otherwise it becomes
// terminally failed. It reports whether the job will run again.
func (q *Queue) Fail(ctx context.Context, j *domain.Job, cause error) (bool, error) {
	now := q.now()
	made := j.AttemptsMade + 1
	msg := cause.Error()

	if made < j.Attempts {
		delay := BackoffDelay(j.Backoff, made)
		if err := q.repo.Retry(ctx, j.ID, made, now.Add(delay), msg, now); err != nil {
			return false, fmt.Errorf("retry job %s: %w", j.ID, err)
		}
		j.AttemptsMade = made
		j.State = domain.JobDelayed
		j.LastError = &msg
		if q.hooks.OnRetrying != nil {
			q.hooks.OnRetrying(j, delay, cause)
		}
		return true, nil
	}

	if err := q.repo.Fail(ctx, j.ID, made, msg, now); err != nil {
		return false, fmt.Errorf("fail job %s: %w", j.ID, err)
	}
	j.AttemptsMade = made
	j.State = domain.JobFailed
	j.LastError = &msg
	j.FinishedAt = &now
	if q.hooks.OnFailed != nil {
		q.hooks.OnFailed(j, cause)
	}
	return false, nil
}

func (q *Queue) Get(ctx context.Context, id string) (*domain.Job, error) {
	return q.repo.GetByID(ctx, id)
}

func (q *Queue) Counts(ctx context.Context) (domain.JobCounts, error) {
	return q.repo.Counts(ctx, q.cfg.Name)
}

// Clean applies the retention policy to completed and failed jobs and
// returns how many were removed. A zero max age or count disables that
// bound.
func (q *Queue) Clean(ctx context.Context) (int, error) {
	now := q.now()
	total := 0
	for _, r := range []struct {
		state  domain.JobState
		maxAge time.Duration
		keep   int
	}{
		{domain.JobCompleted, q.cfg.CompletedMaxAge, q.cfg.CompletedMaxCount},
		{domain.JobFailed, q.cfg.FailedMaxAge, q.cfg.FailedMaxCount},
	} {
		olderThan := time.Time{}
		if r.maxAge > 0 {
			olderThan = now.Add(-r.maxAge)
		}
		keep := r.keep
		if keep <= 0 {
			keep = int(^uint(0) >> 1)
		}
		n, err := q.repo.Clean(ctx, q.cfg.Name, r.state, olderThan, keep)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// BackoffDelay returns base * 2^(attemptsMade-1).
func BackoffDelay(base time.Duration, attemptsMade int) time.Duration {
	if attemptsMade < 1 {
		return base
	}
	shift := attemptsMade - 1
	if shift > 20 {
		shift = 20
	}
	return base << shift
}
