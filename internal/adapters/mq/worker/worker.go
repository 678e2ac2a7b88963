// Package worker runs render jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/levelcard/internal/adapters/mq/queue"
	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/logger"
	"github.com/okian/levelcard/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Pipeline turns a render context into encoded image bytes. It is called
// from many workers at once.
type Pipeline interface {
	Render(ctx context.Context, c card.Context) ([]byte, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue() <-chan queue.Job
	Done() <-chan struct{}
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker runs jobs from a Queue through a Pipeline.
type InMemoryWorker struct {
	queue    Queue
	pipeline Pipeline
	name     string
	busy     *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, pipeline Pipeline, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		pipeline: pipeline,
		name:     "worker",
		busy:     &atomic.Int64{},
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop. Jobs in flight always run to completion.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue()
	for {
		// Stop signals win over queued work.
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-w.queue.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case <-w.queue.Done():
			return
		case job := <-jobs:
			w.process(ctx, job)
		}
	}
}

// Shutdown stops the worker once its current job is done.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process replies exactly once: a Result, or a closed channel if the
// pipeline panics.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	metrics.RecordQueueDequeue()
	metrics.RecordQueueWait(time.Since(job.Enqueued))

	w.busy.Add(1)
	defer w.busy.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "render panicked",
				logger.String("job", job.ID),
				logger.Any("panic", r),
			)
			job.Abandon()
		}
	}()

	png, err := w.pipeline.Render(ctx, job.Card)
	if err != nil {
		w.logger.Debug(ctx, "render failed", logger.String("job", job.ID), logger.Error(err))
	}
	job.Reply <- queue.Result{PNG: png, Err: err}
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   *queue.InMemoryQueue
	busy    atomic.Int64
	started atomic.Bool

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. The size is fixed for the
// pool's lifetime.
func NewPool(workerCount int, q *queue.InMemoryQueue, pipeline Pipeline, opts ...PoolOption) (*Pool, error) {
	switch {
	case workerCount < 1:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, workerCount)
	case q == nil:
		return nil, ErrNoQueue
	case pipeline == nil:
		return nil, ErrNoPipeline
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	for i := range p.workers {
		w := NewInMemoryWorker(q, pipeline,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
		w.busy = &p.busy
		p.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)
	return p, nil
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns how many workers are rendering right now.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
	return nil
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			p.updateMetrics()
		}
	}
}

func (p *Pool) updateMetrics() {
	busy := p.Busy()
	metrics.UpdateWorkerActiveCount(busy)
	metrics.UpdateWorkerIdleCount(len(p.workers) - busy)
	p.queue.Len() // refreshes the queue size gauge
}

// Shutdown closes the queue, waits for in-flight jobs, then abandons any
// job that never reached a worker so its caller stops waiting.
func (p *Pool) Shutdown(ctx context.Context) error {
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	if p.started.Load() {
		for i, w := range p.workers {
			if err := w.Shutdown(shutdownCtx); err != nil {
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			}
		}
	}

	abandoned := p.queue.Drain()
	for _, job := range abandoned {
		job.Abandon()
	}
	if len(abandoned) > 0 {
		p.logger.Warn(ctx, "abandoned queued renders", logger.Int("jobs", len(abandoned)))
	}
	p.updateMetrics()
	return nil
}
