package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/queue"
	"github.com/notifyhub/campaign-mailer/internal/repository"
)

func newQueue(t *testing.T, mutate func(*queue.Config)) (*queue.Queue, *repository.MemoryJobRepository) {
	t.Helper()
	repo := repository.NewMemoryJobRepository()
	cfg := queue.DefaultConfig("email-queue")
	cfg.PollInterval = 10 * time.Millisecond
	if mutate != nil {
		mutate(&cfg)
	}
	return queue.New(repo, cfg, zap.NewNop(), queue.Hooks{}), repo
}

func data(to string) domain.EmailJobData {
	return domain.EmailJobData{To: to, Subject: "s", HTML: "<p>b</p>"}
}

func reserve(t *testing.T, q *queue.Queue) *domain.Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	j, err := q.Reserve(ctx)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	return j
}

func TestQueue_AddAppliesDefaults(t *testing.T) {
	q, _ := newQueue(t, nil)

	j, err := q.Add(context.Background(), domain.JobNameSendEmail, data("a@x.com"))
	if err != nil {
		t.Fatal(err)
	}
	if j.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", j.Attempts)
	}
	if j.Backoff != time.Second {
		t.Fatalf("expected 1s backoff, got %s", j.Backoff)
	}
	if j.Priority != domain.PriorityMedium {
		t.Fatalf("expected default priority, got %d", j.Priority)
	}
	if j.State != domain.JobWaiting {
		t.Fatalf("expected waiting, got %s", j.State)
	}
}

// TestQueue_PriorityOrder verifies LOW, HIGH, MEDIUM enqueued in that order
// are served HIGH, MEDIUM, LOW.
func TestQueue_PriorityOrder(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx := context.Background()

	for _, tc := range []struct {
		to string
		p  domain.Priority
	}{
		{"low@x.com", domain.PriorityLow},
		{"high@x.com", domain.PriorityHigh},
		{"medium@x.com", domain.PriorityMedium},
	} {
		if _, err := q.Add(ctx, domain.JobNameSendEmail, data(tc.to), queue.WithPriority(tc.p)); err != nil {
			t.Fatal(err)
		}
	}

	for _, want := range []string{"high@x.com", "medium@x.com", "low@x.com"} {
		got := reserve(t, q)
		if got.Data.To != want {
			t.Fatalf("expected %s, got %s", want, got.Data.To)
		}
	}
}

func TestQueue_ArrivalOrderWithinPriority(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx := context.Background()

	for _, to := range []string{"1@x.com", "2@x.com", "3@x.com"} {
		_, _ = q.Add(ctx, domain.JobNameSendEmail, data(to), queue.WithPriority(domain.PriorityLow))
	}
	for _, want := range []string{"1@x.com", "2@x.com", "3@x.com"} {
		if got := reserve(t, q); got.Data.To != want {
			t.Fatalf("expected %s, got %s", want, got.Data.To)
		}
	}
}

// TestQueue_ReserveCancellation verifies Reserve returns when the context is
// cancelled while blocking.
func TestQueue_ReserveCancellation(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := q.Reserve(ctx)
		done <- err
	}()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Reserve did not return after context cancellation")
	}
}

func TestQueue_DelayedJobIsNotServedEarly(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx := context.Background()

	_, _ = q.Add(ctx, domain.JobNameSendEmail, data("later@x.com"), queue.WithDelay(time.Hour))
	_, _ = q.Add(ctx, domain.JobNameSendEmail, data("now@x.com"), queue.WithPriority(domain.PriorityLow))

	if got := reserve(t, q); got.Data.To != "now@x.com" {
		t.Fatalf("expected now@x.com, got %s", got.Data.To)
	}

	short, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if j, err := q.Reserve(short); err == nil {
		t.Fatalf("expected no ready job, got %s", j.Data.To)
	}
}

// TestQueue_FailRetriesThenFails verifies the attempt cap: with 3 attempts a
// job is retried twice and then ends in the failed state.
func TestQueue_FailRetriesThenFails(t *testing.T) {
	q, _ := newQueue(t, func(c *queue.Config) { c.Backoff = time.Millisecond })
	ctx := context.Background()

	added, _ := q.Add(ctx, domain.JobNameSendEmail, data("a@x.com"))
	cause := errors.New("all providers failed")

	for attempt := 1; attempt <= 3; attempt++ {
		j := reserve(t, q)
		if j.ID != added.ID {
			t.Fatalf("attempt %d: unexpected job %s", attempt, j.ID)
		}
		retrying, err := q.Fail(ctx, j, cause)
		if err != nil {
			t.Fatal(err)
		}
		if want := attempt < 3; retrying != want {
			t.Fatalf("attempt %d: expected retrying=%v", attempt, want)
		}
	}

	got, err := q.Get(ctx, added.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != domain.JobFailed {
		t.Fatalf("expected failed, got %s", got.State)
	}
	if got.AttemptsMade != 3 {
		t.Fatalf("expected 3 attempts made, got %d", got.AttemptsMade)
	}
	if got.LastError == nil || *got.LastError != cause.Error() {
		t.Fatalf("unexpected last error: %v", got.LastError)
	}
}

func TestQueue_CompleteRecordsState(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx := context.Background()

	_, _ = q.Add(ctx, domain.JobNameSendEmail, data("a@x.com"))
	j := reserve(t, q)
	if err := q.Complete(ctx, j); err != nil {
		t.Fatal(err)
	}

	counts, err := q.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts[domain.JobCompleted] != 1 || counts[domain.JobActive] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

// TestQueue_StalledJobIsReclaimed verifies an active job whose lock expired
// can be reserved again.
func TestQueue_StalledJobIsReclaimed(t *testing.T) {
	q, _ := newQueue(t, func(c *queue.Config) { c.LockTimeout = 20 * time.Millisecond })
	ctx := context.Background()

	added, _ := q.Add(ctx, domain.JobNameSendEmail, data("a@x.com"))
	first := reserve(t, q)
	second := reserve(t, q)

	if first.ID != added.ID || second.ID != added.ID {
		t.Fatalf("expected the stalled job to be reclaimed")
	}
}

func TestQueue_CleanAppliesRetention(t *testing.T) {
	q, _ := newQueue(t, func(c *queue.Config) {
		c.CompletedMaxCount = 2
		c.FailedMaxAge = time.Nanosecond
	})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, _ = q.Add(ctx, domain.JobNameSendEmail, data("ok@x.com"))
		if err := q.Complete(ctx, reserve(t, q)); err != nil {
			t.Fatal(err)
		}
	}
	_, _ = q.Add(ctx, domain.JobNameSendEmail, data("bad@x.com"), queue.WithAttempts(1))
	if _, err := q.Fail(ctx, reserve(t, q), errors.New("boom")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)

	removed, err := q.Clean(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removed, got %d", removed)
	}
	counts, _ := q.Counts(ctx)
	if counts[domain.JobCompleted] != 2 || counts[domain.JobFailed] != 0 {
		t.Fatalf("unexpected counts after clean: %v", counts)
	}
}

func TestQueue_HooksObserveLifecycle(t *testing.T) {
	var (
		mu     sync.Mutex
		events []string
	)
	record := func(s string) {
		mu.Lock()
		events = append(events, s)
		mu.Unlock()
	}

	cfg := queue.DefaultConfig("email-queue")
	cfg.Attempts = 2
	cfg.Backoff = time.Millisecond
	cfg.PollInterval = 5 * time.Millisecond
	q := queue.New(repository.NewMemoryJobRepository(), cfg, zap.NewNop(), queue.Hooks{
		OnWaiting:   func(*domain.Job) { record("waiting") },
		OnActive:    func(*domain.Job) { record("active") },
		OnCompleted: func(*domain.Job) { record("completed") },
		OnRetrying:  func(*domain.Job, time.Duration, error) { record("retrying") },
		OnFailed:    func(*domain.Job, error) { record("failed") },
	})
	ctx := context.Background()

	_, _ = q.Add(ctx, domain.JobNameSendEmail, data("a@x.com"))
	_, _ = q.Fail(ctx, reserve(t, q), errors.New("x"))
	_ = q.Complete(ctx, reserve(t, q))

	want := []string{"waiting", "active", "retrying", "active", "completed"}
	mu.Lock()
	defer mu.Unlock()
	if len(events) != len(want) {
		t.Fatalf("expected %v, got %v", want, events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, events)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	for made, want := range map[int]time.Duration{
		1: time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
	} {
		if got := queue.BackoffDelay(time.Second, made); got != want {
			t.Fatalf("attempt %d: expected %s, got %s", made, want, got)
		}
	}
}

// TestQueue_ConcurrentReserve verifies every job is handed out exactly once
// when several consumers reserve at the same time.
func TestQueue_ConcurrentReserve(t *testing.T) {
	q, _ := newQueue(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const total = 200
	for i := 0; i < total; i++ {
		_, _ = q.Add(ctx, domain.JobNameSendEmail, data("a@x.com"))
	}

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				mu.Lock()
				done := len(seen) == total
				mu.Unlock()
				if done || ctx.Err() != nil {
					return
				}
				short, stop := context.WithTimeout(ctx, 50*time.Millisecond)
				j, err := q.Reserve(short)
				stop()
				if err != nil {
					continue
				}
				mu.Lock()
				seen[j.ID]++
				mu.Unlock()
				_ = q.Complete(ctx, j)
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("timeout: only reserved %d/%d jobs", len(seen), total)
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("job %s reserved %d times", id, n)
		}
	}
}
