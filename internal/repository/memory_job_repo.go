package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/notifyhub/campaign-mailer/internal/domain"
)

// MemoryJobRepository is a hand-written, in-memory implementation of
// JobRepository used in unit tests and single-process runs. It honours the
// same claim order as the Postgres implementation.
type MemoryJobRepository struct {
	mu   sync.Mutex
	jobs map[string]*memJob
	seq  int64

	// Optional error overrides, set in tests to simulate failure paths.
	InsertErr error
	ClaimErr  error
}

type memJob struct {
	job domain.Job
	seq int64
}

func NewMemoryJobRepository() *MemoryJobRepository {
	return &MemoryJobRepository{jobs: make(map[string]*memJob)}
}

var _ JobRepository = (*MemoryJobRepository)(nil)

func (m *MemoryJobRepository) Insert(_ context.Context, j *domain.Job) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.jobs[j.ID] = &memJob{job: cloneJob(j), seq: m.seq}
	return nil
}

func (m *MemoryJobRepository) Claim(_ context.Context, queue string, now time.Time, lock time.Duration) (*domain.Job, error) {
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var next *memJob
	for _, mj := range m.jobs {
		if mj.job.Queue != queue || !ready(&mj.job, now) {
			continue
		}
		if next == nil || mj.job.Priority < next.job.Priority ||
			(mj.job.Priority == next.job.Priority && mj.seq < next.seq) {
			next = mj
		}
	}
	if next == nil {
		return nil, domain.ErrNotFound
	}

	until := now.Add(lock)
	next.job.State = domain.JobActive
	next.job.LockedUntil = &until
	next.job.UpdatedAt = now
	out := cloneJob(&next.job)
	return &out, nil
}

func (m *MemoryJobRepository) Complete(_ context.Context, id string, at time.Time) error {
	return m.update(id, func(j *domain.Job) {
		j.State = domain.JobCompleted
		j.FinishedAt = &at
		j.LockedUntil = nil
		j.UpdatedAt = at
	})
}

func (m *MemoryJobRepository) Retry(_ context.Context, id string, attemptsMade int, runAt time.Time, errMsg string, at time.Time) error {
	return m.update(id, func(j *domain.Job) {
		j.State = domain.JobDelayed
		if !runAt.After(at) {
			j.State = domain.JobWaiting
		}
		j.AttemptsMade = attemptsMade
		j.RunAt = runAt
		j.LastError = &errMsg
		j.LockedUntil = nil
		j.UpdatedAt = at
	})
}

func (m *MemoryJobRepository) Fail(_ context.Context, id string, attemptsMade int, errMsg string, at time.Time) error {
	return m.update(id, func(j *domain.Job) {
		j.State = domain.JobFailed
		j.AttemptsMade = attemptsMade
		j.LastError = &errMsg
		j.FinishedAt = &at
		j.LockedUntil = nil
		j.UpdatedAt = at
	})
}

func (m *MemoryJobRepository) GetByID(_ context.Context, id string) (*domain.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mj, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneJob(&mj.job)
	return &out, nil
}

func (m *MemoryJobRepository) Counts(_ context.Context, queue string) (domain.JobCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(domain.JobCounts, len(domain.JobStates))
	for _, s := range domain.JobStates {
		counts[s] = 0
	}
	for _, mj := range m.jobs {
		if mj.job.Queue == queue {
			counts[mj.job.State]++
		}
	}
	return counts, nil
}

func (m *MemoryJobRepository) Clean(_ context.Context, queue string, state domain.JobState, olderThan time.Time, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var finished []*memJob
	for _, mj := range m.jobs {
		if mj.job.Queue == queue && mj.job.State == state {
			finished = append(finished, mj)
		}
	}
	// Newest first, so the rank matches the SQL window.
	sort.Slice(finished, func(i, j int) bool {
		return finishedAt(finished[i]).After(finishedAt(finished[j]))
	})

	removed := 0
	for rank, mj := range finished {
		if finishedAt(mj).Before(olderThan) || rank >= keep {
			delete(m.jobs, mj.job.ID)
			removed++
		}
	}
	return removed, nil
}

// ---- helpers ----

func (m *MemoryJobRepository) update(id string, fn func(*domain.Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mj, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	fn(&mj.job)
	return nil
}

func ready(j *domain.Job, now time.Time) bool {
	switch j.State {
	case domain.JobWaiting, domain.JobDelayed:
		return !j.RunAt.After(now)
	case domain.JobActive:
		return j.LockedUntil != nil && j.LockedUntil.Before(now)
	}
	return false
}

func finishedAt(mj *memJob) time.Time {
	if mj.job.FinishedAt == nil {
		return time.Time{}
	}
	return *mj.job.FinishedAt
}

func cloneJob(j *domain.Job) domain.Job {
	c := *j
	c.Data.Providers = append([]string(nil), j.Data.Providers...)
	return c
}
