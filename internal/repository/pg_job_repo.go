package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

const jobColumns = `id, queue, name, data, priority, state, attempts, attempts_made,
	backoff_ms, last_error, run_at, locked_until, finished_at, created_at, updated_at`

type pgJobRepository struct {
	pool *pgxpool.Pool
}

// NewPgJobRepository returns a JobRepository backed by PostgreSQL.
func NewPgJobRepository(pool *pgxpool.Pool) JobRepository {
	return &pgJobRepository{pool: pool}
}

func (r *pgJobRepository) Insert(ctx context.Context, j *domain.Job) error {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return fmt.Errorf("marshal job data: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO email_jobs
			(id, queue, name, data, priority, state, attempts, attempts_made,
			 backoff_ms, run_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		j.ID, j.Queue, j.Name, data, int(j.Priority), j.State, j.Attempts, j.AttemptsMade,
		j.Backoff.Milliseconds(), j.RunAt, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// Claim uses FOR UPDATE SKIP LOCKED so concurrent workers, in this process
// or another, never claim the same ready row.
func (r *pgJobRepository) Claim(ctx context.Context, queue string, now time.Time, lock time.Duration) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE email_jobs
		SET state = 'active', locked_until = $3, updated_at = $2
		WHERE id = (
			SELECT id FROM email_jobs
			WHERE queue = $1
			  AND ((state IN ('waiting','delayed') AND run_at <= $2)
			    OR (state = 'active' AND locked_until < $2))
			ORDER BY priority ASC, seq ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+jobColumns,
		queue, now, now.Add(lock))

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return j, nil
}

func (r *pgJobRepository) Complete(ctx context.Context, id string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE email_jobs
		SET state = 'completed', finished_at = $2, locked_until = NULL, updated_at = $2
		WHERE id = $1`, id, at)
}

func (r *pgJobRepository) Retry(ctx context.Context, id string, attemptsMade int, runAt time.Time, errMsg string, at time.Time) error {
	state := domain.JobDelayed
	if !runAt.After(at) {
		state = domain.JobWaiting
	}
	return r.exec(ctx, `
		UPDATE email_jobs
		SET state = $2, attempts_made = $3, run_at = $4, last_error = $5,
		    locked_until = NULL, updated_at = $6
		WHERE id = $1`, id, state, attemptsMade, runAt, errMsg, at)
}

func (r *pgJobRepository) Fail(ctx context.Context, id string, attemptsMade int, errMsg string, at time.Time) error {
	return r.exec(ctx, `
		UPDATE email_jobs
		SET state = 'failed', attempts_made = $2, last_error = $3,
		    finished_at = $4, locked_until = NULL, updated_at = $4
		WHERE id = $1`, id, attemptsMade, errMsg, at)
}

func (r *pgJobRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM email_jobs WHERE id = $1`, id)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return j, err
}

func (r *pgJobRepository) Counts(ctx context.Context, queue string) (domain.JobCounts, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT state, COUNT(*) FROM email_jobs
		WHERE queue = $1
		GROUP BY state`, queue)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()

	counts := make(domain.JobCounts, len(domain.JobStates))
	for _, s := range domain.JobStates {
		counts[s] = 0
	}
	for rows.Next() {
		var (
			state string
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[domain.JobState(state)] = n
	}
	return counts, rows.Err()
}

func (r *pgJobRepository) Clean(ctx context.Context, queue string, state domain.JobState, olderThan time.Time, keep int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM email_jobs
		WHERE id IN (
			SELECT id FROM (
				SELECT id, finished_at,
				       ROW_NUMBER() OVER (ORDER BY finished_at DESC) AS rn
				FROM email_jobs
				WHERE queue = $1 AND state = $2
			) ranked
			WHERE ranked.finished_at < $3 OR ranked.rn > $4
		)`, queue, state, olderThan, keep)
	if err != nil {
		return 0, fmt.Errorf("clean %s jobs: %w", state, err)
	}
	return int(tag.RowsAffected()), nil
}

// ---- helpers ----

func (r *pgJobRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanJob reads a single job row from any pgx row type.
func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j        domain.Job
		data     []byte
		priority int
		state    string
		backoff  int64
	)
	err := row.Scan(
		&j.ID, &j.Queue, &j.Name, &data, &priority, &state,
		&j.Attempts, &j.AttemptsMade, &backoff, &j.LastError,
		&j.RunAt, &j.LockedUntil, &j.FinishedAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &j.Data); err != nil {
		return nil, fmt.Errorf("decode job %s data: %w", j.ID, err)
	}
	j.Priority = domain.Priority(priority)
	j.State = domain.JobState(state)
	j.Backoff = time.Duration(backoff) * time.Millisecond
	return &j, nil
}
