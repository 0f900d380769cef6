package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Factory builds the client for one transport. It is called at most once
// per successful construction.
type Factory func(ctx context.Context) (Sender, error)

// StatsRecorder receives every success and failure recorded by the registry.
// The metrics package implements it.
type StatsRecorder interface {
	RecordSuccess(provider string, latency time.Duration)
	RecordFailure(provider string)
}

// Stats is a per-transport counter snapshot.
type Stats struct {
	Successes uint64 `json:"successes"`
	Failures  uint64 `json:"failures"`
}

// Registry lazily constructs one Sender per Kind and caches it for the life
// of the process. A failed construction is not cached.
type Registry struct {
	mu        sync.Mutex
	factories map[Kind]Factory
	cells     map[Kind]*cell
	stats     map[Kind]*Stats
	recorder  StatsRecorder
	logger    *zap.Logger
}

func NewRegistry(factories map[Kind]Factory, recorder StatsRecorder, logger *zap.Logger) *Registry {
	return &Registry{
		factories: factories,
		cells:     make(map[Kind]*cell),
		stats:     make(map[Kind]*Stats),
		recorder:  recorder,
		logger:    logger,
	}
}

// cell holds one kind's construction. done is closed once sender or err
// is set.
type cell struct {
	done   chan struct{}
	sender Sender
	err    error
}

// Get returns the cached Sender for k, building it on first use. The build
// runs outside the registry lock, so a slow client for one kind never
// blocks another, and every caller stops waiting when its ctx ends.
func (r *Registry) Get(ctx context.Context, k Kind) (Sender, error) {
	r.mu.Lock()
	c, ok := r.cells[k]
	if !ok {
		factory, configured := r.factories[k]
		if !configured {
			r.mu.Unlock()
			return nil, fmt.Errorf("%s: %w", k, ErrNotConfigured)
		}
		c = &cell{done: make(chan struct{})}
		r.cells[k] = c
		go r.build(context.WithoutCancel(ctx), k, factory, c)
	}
	r.mu.Unlock()

	select {
	case <-c.done:
		if c.err != nil {
			return nil, c.err
		}
		return c.sender, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for %s client: %w", k, ctx.Err())
	}
}

func (r *Registry) build(ctx context.Context, k Kind, factory Factory, c *cell) {
	s, err := factory(ctx)

	r.mu.Lock()
	if err != nil {
		c.err = fmt.Errorf("build %s client: %w", k, err)
		delete(r.cells, k)
	} else {
		c.sender = s
	}
	close(c.done)
	r.mu.Unlock()

	if err == nil {
		r.logger.Info("email provider initialised", zap.String("provider", string(k)))
	}
}

func (r *Registry) counters(k Kind) *Stats {
	s, ok := r.stats[k]
	if !ok {
		s = &Stats{}
		r.stats[k] = s
	}
	return s
}
