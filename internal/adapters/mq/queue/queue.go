// Package queue holds render jobs between callers and the worker pool.
//
// Enqueue blocks while the queue is full, so callers feel backpressure
// instead of losing work. Close stops intake; Drain hands back whatever
// never reached a worker so its waiters can be released.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/levelcard/internal/domain/card"
	"github.com/okian/levelcard/pkg/metrics"
)

const defaultQueueCapacity = 256

// Result is the single value a job's reply channel receives.
type Result struct {
	PNG []byte
	Err error
}

// Job is one render request. Reply must have a buffer of one; a worker
// either sends a single Result or closes it.
type Job struct {
	ID       string
	Card     card.Context
	Enqueued time.Time
	Reply    chan Result
}

// NewJob builds a job with a fresh one-shot reply channel.
func NewJob(id string, c card.Context) Job {
	return Job{ID: id, Card: c, Enqueued: time.Now(), Reply: make(chan Result, 1)}
}

// Abandon releases the job's waiter without a result.
func (j Job) Abandon() {
	close(j.Reply)
}

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue waits for room, then adds the job. It fails with ErrClosed
	// once the queue is closed and with the context error if ctx ends first.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue returns the channel workers receive jobs from.
	Dequeue() <-chan Job

	// Done is closed when the queue stops accepting jobs.
	Done() <-chan struct{}

	// Len returns the current number of queued jobs.
	Len() int

	// Close stops intake. It is safe to call more than once.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel. The channel is
// never closed; Done signals shutdown instead, so a late send cannot panic.
type InMemoryQueue struct {
	jobs     chan Job
	done     chan struct{}
	capacity int

	mu     sync.RWMutex
	closed bool
	once   sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.jobs <- job:
		metrics.RecordQueueEnqueue()
		q.Len()
		return nil
	case <-q.done:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", job.ID, ctx.Err())
	}
}

// Dequeue returns the channel jobs arrive on.
func (q *InMemoryQueue) Dequeue() <-chan Job {
	return q.jobs
}

// Done is closed by Close.
func (q *InMemoryQueue) Done() <-chan struct{} {
	return q.done
}

// Len returns the current number of queued jobs and refreshes the gauges.
func (q *InMemoryQueue) Len() int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}

// Cap returns the configured capacity.
func (q *InMemoryQueue) Cap() int {
	return q.capacity
}

// Close stops intake. Enqueues blocked on a full queue return ErrClosed.
func (q *InMemoryQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
		// Wait out in-flight Enqueue calls so nothing lands after Drain.
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()
	})
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Drain removes and returns every job still queued without blocking.
func (q *InMemoryQueue) Drain() []Job {
	var out []Job
	for {
		select {
		case job := <-q.jobs:
			out = append(out, job)
		default:
			q.Len()
			return out
		}
	}
}
