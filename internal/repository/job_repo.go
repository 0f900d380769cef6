package repository

import (
	"context"
	"time"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// JobRepository defines all persistence operations for queued email jobs.
// The pgx implementation is in pg_job_repo.go.
// Tests use the in-memory implementation (memory_job_repo.go).
type JobRepository interface {
	Insert(ctx context.Context, j *domain.Job) error
	// Claim locks the next ready job of queue until now+lock and marks it
	// active. Ready means waiting or delayed with run_at <= now, or active
	// with an expired lock. Returns domain.ErrNotFound when nothing is ready.
	Claim(ctx context.Context, queue string, now time.Time, lock time.Duration) (*domain.Job, error)
	Complete(ctx context.Context, id string, at time.Time) error
	Retry(ctx context.Context, id string, attemptsMade int, runAt time.Time, errMsg string, at time.Time) error
	Fail(ctx context.Context, id string, attemptsMade int, errMsg string, at time.Time) error
	GetByID(ctx context.Context, id string) (*domain.Job, error)
	Counts(ctx context.Context, queue string) (domain.JobCounts, error)
	// Clean removes finished jobs of state that finished before olderThan,
	// plus the oldest ones beyond keep. Returns the number removed.
	Clean(ctx context.Context, queue string, state domain.JobState, olderThan time.Time, keep int) (int, error)
}
