// Package worker drains the ingestion queue into the workout history store.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
	"github.com/okian/nova/pkg/logger"
	"github.com/okian/nova/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// ErrStopped is returned by Shutdown when the worker was already stopped.
var ErrStopped = errors.New("worker stopped")

// Appender persists a workout. It reports false when the workout id was
// already stored.
type Appender interface {
	Append(ctx context.Context, w model.Workout) (bool, error)
}

// Assessor recomputes readiness for an athlete.
type Assessor interface {
	Assess(ctx context.Context, athleteID string) (readiness.Result, error)
}

// Queue defines how workers receive workouts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Workout
}

// Worker processes workouts from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called,
	// or the queue is drained after Close.
	Run(ctx context.Context)

	// Shutdown stops the worker and waits for the loop to return.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	store    Appender
	assessor Assessor
	name     string

	// Shutdown control
	stopOnce sync.Once
	shutdown chan struct{}
	done     chan struct{}

	// Set by Pool to report busy/idle state.
	busy *atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, store Appender, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.With(logger.String("worker", w.name))
	}

	return w
}

// Run implements Worker.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	workouts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case workout, ok := <-workouts:
			if !ok {
				return
			}
			if err := w.process(ctx, workout); err != nil {
				w.logger.Error(ctx, "error processing workout", logger.Error(err))
			}
		}
	}
}

// Shutdown implements Worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	stopped := true
	w.stopOnce.Do(func() {
		stopped = false
		close(w.shutdown)
	})
	if stopped {
		return ErrStopped
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process stores one workout and refreshes the athlete's readiness.
func (w *InMemoryWorker) process(ctx context.Context, workout model.Workout) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	if w.busy != nil {
		w.busy.Add(1)
		defer w.busy.Add(-1)
	}

	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	stored, err := w.store.Append(ctx, workout)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store workout %s: %w", workout.ID, err)
	}
	if !stored {
		metrics.RecordWorkoutDuplicate()
		w.logger.Debug(ctx, "workout already stored", logger.String("workout_id", workout.ID))
		return nil
	}
	metrics.RecordWorkoutIngested()

	if w.assessor == nil || workout.AthleteID == "" {
		return nil
	}

	result, err := w.assessor.Assess(ctx, workout.AthleteID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "assess_error")
		return fmt.Errorf("assess athlete %s: %w", workout.AthleteID, err)
	}

	w.logger.Debug(ctx, "readiness refreshed",
		logger.String("athlete_id", workout.AthleteID),
		logger.String("workout_id", workout.ID),
		logger.Float64("overall", result.Overall),
		logger.String("status", result.Status.Overall.Label),
	)
	return nil
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one means one worker
// per CPU.
func NewPool(workerCount int, queue Queue, store Appender, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		workerOpts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		w := NewInMemoryWorker(queue, store, workerOpts...)
		w.busy = &pool.busy
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	metrics.UpdateWorkerIdleCount(workerCount)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Active returns how many workers are processing a workout right now.
func (p *Pool) Active() int {
	return int(p.busy.Load())
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}

	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
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
	active := p.Active()
	metrics.UpdateWorkerActiveCount(active)
	metrics.UpdateWorkerIdleCount(len(p.workers) - active)
}

// Shutdown closes the queue, lets the workers drain what is left and waits
// for them to return, bounded by ctx and an internal timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	p.stopOnce.Do(func() { close(p.shutdown) })

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	p.updateMetrics()
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
