// Package service renders rank cards off the caller's goroutine.
//
// A Renderer owns a bounded job queue and a fixed pool of workers. Render
// hands a job to the pool and waits on its one-shot reply; the CPU-bound
// pipeline never runs on the caller's goroutine. Abandoning the wait does not
// stop a render that has already started; its result is dropped.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/okian/levelcard/internal/adapters/mq/queue"
	"github.com/okian/levelcard/internal/adapters/mq/worker"
	"github.com/okian/levelcard/internal/assets"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

const defaultQueueSize = 256

// Renderer turns card contexts into PNG bytes. It is safe for concurrent use.
type Renderer struct {
	mu sync.RWMutex

	assets    *assets.Registry
	templates *card.Store

	workerCount int
	queueSize   int

	pipeline worker.Pipeline
	queue    *queue.InMemoryQueue
	pool     *worker.Pool

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithWorkerCount sets the pool size. Values below one make Start fail with
// ErrPoolInit.
func WithWorkerCount(count int) Option {
	return func(r *Renderer) {
		r.workerCount = count
	}
}

// WithQueueSize sets how many jobs may wait for a worker. Values below one
// make Start fail with ErrPoolInit.
func WithQueueSize(size int) Option {
	return func(r *Renderer) {
		r.queueSize = size
	}
}

// WithAssets shares an already loaded registry.
func WithAssets(reg *assets.Registry) Option {
	return func(r *Renderer) {
		if reg != nil {
			r.assets = reg
		}
	}
}

// WithTemplates shares an already compiled template store.
func WithTemplates(store *card.Store) Option {
	return func(r *Renderer) {
		if store != nil {
			r.templates = store
		}
	}
}

// WithPipeline replaces the fill, parse, rasterize, encode pipeline the
// workers run.
func WithPipeline(p worker.Pipeline) Option {
	return func(r *Renderer) {
		if p != nil {
			r.pipeline = p
		}
	}
}

// WithLogger sets a custom logger for the renderer.
func WithLogger(logger logger.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New constructs a Renderer. Nothing is allocated until Start.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		workerCount: runtime.NumCPU(),
		queueSize:   defaultQueueSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start loads any missing assets and starts the worker pool. Every failure
// is an ErrPoolInit and should abort startup.
func (r *Renderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("renderer")
	}
	if r.queueSize < 1 {
		return fmt.Errorf("%w: queue size %d", ErrPoolInit, r.queueSize)
	}

	if r.assets == nil {
		reg, err := assets.Load()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPoolInit, err)
		}
		r.assets = reg
	}
	if r.templates == nil {
		store, err := card.NewStore()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPoolInit, err)
		}
		r.templates = store
	}

	if r.pipeline == nil {
		r.pipeline = newPipeline(r.assets, r.templates)
	}

	q := queue.NewInMemoryQueue(queue.WithCapacity(r.queueSize))
	pool, err := worker.NewPool(r.workerCount, q, r.pipeline,
		worker.WithPoolLogger(r.logger.Named("pool")),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPoolInit, err)
	}
	// Workers live until Stop, not until the caller's context ends.
	if err := pool.Start(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("%w: %w", ErrPoolInit, err)
	}

	r.queue = q
	r.pool = pool
	r.started = true
	r.logger.Info(ctx, "renderer started",
		logger.Int("workers", r.workerCount),
		logger.Int("queueSize", r.queueSize),
	)
	return nil
}

// Stop shuts the pool down. Renders in flight finish; queued and later
// renders fail with ErrWorkerLost.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	ctx := context.Background()
	r.logger.Info(ctx, "stopping renderer...")

	if err := r.pool.Shutdown(ctx); err != nil {
		r.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	r.started = false
	r.logger.Info(ctx, "renderer stopped")
}

// Render produces the PNG for c. It blocks until the job's single result
// arrives or ctx ends. Errors wrap one of the package sentinels.
func (r *Renderer) Render(ctx context.Context, c card.Context) ([]byte, error) {
	r.mu.RLock()
	q, started := r.queue, r.started
	r.mu.RUnlock()

	if !started {
		metrics.RecordRender(metrics.OutcomeWorkerLost)
		return nil, fmt.Errorf("%w: renderer is not running", ErrWorkerLost)
	}

	if err := ctx.Err(); err != nil {
		metrics.RecordRender(metrics.OutcomeCancelled)
		return nil, fmt.Errorf("render: %w", err)
	}

	job := queue.NewJob(uuid.NewString(), c)
	if err := q.Enqueue(ctx, job); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			metrics.RecordRender(metrics.OutcomeWorkerLost)
			return nil, fmt.Errorf("%w: %w", ErrWorkerLost, err)
		}
		metrics.RecordRender(metrics.OutcomeCancelled)
		return nil, err
	}

	select {
	case res, ok := <-job.Reply:
		if !ok {
			metrics.RecordRender(metrics.OutcomeWorkerLost)
			return nil, fmt.Errorf("%w: job %s", ErrWorkerLost, job.ID)
		}
		metrics.RecordRender(outcome(res.Err))
		if res.Err != nil {
			metrics.RecordErrorByComponent("renderer", outcome(res.Err))
			return nil, res.Err
		}
		return res.PNG, nil
	case <-ctx.Done():
		metrics.RecordRender(metrics.OutcomeCancelled)
		return nil, fmt.Errorf("render %s: %w", job.ID, ctx.Err())
	}
}

// GetStats returns renderer statistics for monitoring.
func (r *Renderer) GetStats() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := map[string]any{
		"started":     r.started,
		"workerCount": r.workerCount,
		"queueSize":   r.queueSize,
	}
	if r.started {
		stats["queueLength"] = r.queue.Len()
		stats["busyWorkers"] = r.pool.Busy()
	}
	return stats
}

// outcome maps a pipeline error onto its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrTemplate):
		return metrics.OutcomeTemplate
	case errors.Is(err, ErrBufferAllocation):
		return metrics.OutcomeAllocation
	case errors.Is(err, ErrEncoding):
		return metrics.OutcomeEncoding
	default:
		return metrics.OutcomeVector
	}
}
