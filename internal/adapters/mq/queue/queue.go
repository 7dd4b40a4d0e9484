// Package queue buffers accepted workouts between the HTTP handlers and the
// ingestion workers.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a workout without blocking. It returns ErrQueueFull when
	// the queue is at capacity, ErrQueueClosed after Close, or the context
	// error when ctx is already done.
	Enqueue(ctx context.Context, w model.Workout) error

	// Dequeue returns a channel that yields workouts as they become available.
	// The channel is closed when the queue is closed and drained, or ctx ends.
	Dequeue(ctx context.Context) <-chan model.Workout

	// Len returns the current number of queued workouts.
	Len(ctx context.Context) int

	// Close stops accepting workouts. Already queued workouts can still be
	// dequeued.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	workouts chan model.Workout
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	// Apply all options
	for _, opt := range opts {
		opt(q)
	}

	q.workouts = make(chan model.Workout, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Capacity reports the configured capacity.
func (q *InMemoryQueue) Capacity() int {
	return q.capacity
}

// Enqueue implements Queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, w model.Workout) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordQueueProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.fail("closed")
		return ErrQueueClosed
	}
	if err := ctx.Err(); err != nil {
		q.fail("context_cancelled")
		return fmt.Errorf("enqueue %s: %w", w.ID, err)
	}

	select {
	case q.workouts <- w:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		q.fail("queue_full")
		return ErrQueueFull
	}
}

func (q *InMemoryQueue) fail(reason string) {
	metrics.RecordQueueEnqueueError()
	metrics.RecordErrorByComponent("queue", reason)
}

func (q *InMemoryQueue) observe() {
	size := len(q.workouts)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}

// Dequeue implements Queue.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan model.Workout {
	out := make(chan model.Workout)
	go func() {
		defer close(out)
		for {
			select {
			case w, ok := <-q.workouts:
				if !ok {
					return
				}
				select {
				case out <- w:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len implements Queue.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.workouts)
}

// Close implements Queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.workouts)
	q.closed = true

	return nil
}

// IsClosed implements Queue.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
