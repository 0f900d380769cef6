package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the pool constructor signature clean.
type MetricHooks struct {
	OnProcessed func(outcome string, latency time.Duration)
}

// Pool manages the lifecycle of all workers.
// All workers share the same queue; the queue hands out jobs by priority.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates concurrency identical workers.
func NewPool(
	concurrency int,
	q JobQueue,
	d Dispatcher,
	logger *zap.Logger,
	hooks MetricHooks,
) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	workers := make([]*Worker, concurrency)

	for i := range workers {
		workers[i] = NewWorker(
			i, q, d,
			logger.With(zap.Int("worker_id", i)),
			hooks.OnProcessed,
		)
	}

	return &Pool{workers: workers}
}

// Start launches all workers as goroutines.
// The provided ctx is forwarded to every worker; cancelling it
// stops new reservations across the entire pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every worker has returned after ctx is cancelled.
// Call this after cancelling the context to ensure in-flight jobs finish.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}
