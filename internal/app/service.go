// Package service wires the readiness engine, the ingestion pipeline and the
// history store, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/nova/internal/adapters/mq/queue"
	"github.com/okian/nova/internal/adapters/mq/worker"
	"github.com/okian/nova/internal/adapters/repository"
	"github.com/okian/nova/internal/domain/dedupe"
	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
	"github.com/okian/nova/pkg/logger"
	"github.com/okian/nova/pkg/metrics"
)

// Computation sources reported in metrics.
const (
	sourceIngest    = "ingest"
	sourceQuery     = "query"
	sourceCalculate = "calculate"
)

// Service implements the API dependencies for the readiness system.
type Service struct {
	mu sync.RWMutex

	engine   *readiness.Engine
	store    repository.Store
	deduper  dedupe.Deduper
	queue    *queue.InMemoryQueue
	pool     *worker.Pool
	retainer *repository.Retainer

	// Configuration
	workerCount int
	queueSize   int
	dedupeSize  int
	sqlitePath  string
	retention   time.Duration
	engineOpts  []readiness.Option
	clock       func() time.Time

	// State
	started   bool
	startedAt time.Time
	cancel    context.CancelFunc
	bgDone    chan struct{}

	logger logger.Logger
}

// New constructs a Service. The engine is ready immediately, so stateless
// calculations work before Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		clock:       time.Now,
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	s.engine = readiness.New(append(s.engineOpts, readiness.WithClock(s.clock))...)
	return s
}

// Start opens the history store and starts the worker pool and the
// retention loop. Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting readiness service...")

	if s.store == nil {
		store, err := s.openStore(ctx)
		if err != nil {
			return err
		}
		s.store = store
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.store, worker.WithAssessor(s))
	s.retainer = repository.NewRetainer(s.store, repository.WithRetention(s.retention), repository.WithClock(s.clock))

	// Background work outlives the ctx given to Start; Stop ends it.
	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.bgDone = make(chan struct{})
	s.pool.Start(bgCtx)
	go func() {
		defer close(s.bgDone)
		s.retainer.Run(bgCtx)
	}()
	if _, err := s.retainer.RunOnce(ctx); err != nil {
		s.logger.Warn(ctx, "initial retention pass failed", logger.Error(err))
	}

	s.started = true
	s.startedAt = s.clock()

	s.logger.Info(ctx, "readiness service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("store", s.storeName()),
		logger.Duration("retention", s.retention),
	)
	return nil
}

func (s *Service) openStore(ctx context.Context) (repository.Store, error) {
	if s.sqlitePath == "" {
		return repository.NewMemoryStore(), nil
	}
	store, err := repository.OpenSQLite(ctx, s.sqlitePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return store, nil
}

func (s *Service) storeName() string {
	switch s.store.(type) {
	case *repository.SQLiteStore:
		return "sqlite"
	case *repository.MemoryStore:
		return "memory"
	default:
		return fmt.Sprintf("%T", s.store)
	}
}

// Stop closes the queue, lets the workers drain it, stops the retention loop
// and closes the store. ctx bounds the drain.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	pool, cancel, bgDone := s.pool, s.cancel, s.bgDone
	s.mu.Unlock()

	s.logger.Info(ctx, "stopping readiness service...")

	// Workers still read the store while draining, so it is closed last.
	var errs []error
	if err := pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	cancel()
	<-bgDone

	s.mu.Lock()
	if err := s.store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing store: %w", err))
	}
	s.store = nil
	s.mu.Unlock()

	s.logger.Info(ctx, "readiness service stopped")
	return errors.Join(errs...)
}

// SeenAndRecord atomically checks if a workout id was seen and records it if
// not. Returns true if the workout was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d == nil {
		return false
	}

	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordWorkoutDuplicate()
	}
	return seen
}

// Unrecord forgets a workout id so the submission can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d != nil {
		d.Unrecord(ctx, id)
	}
}

// Size returns the number of workout ids currently remembered.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue submits a workout for asynchronous ingestion. Errors wrap
// queue.ErrQueueFull, queue.ErrQueueClosed or ErrNotStarted.
func (s *Service) Enqueue(ctx context.Context, w model.Workout) error { //nolint:gocritic // hugeParam: queued by value
	s.mu.RLock()
	q := s.queue
	started := s.started
	s.mu.RUnlock()
	if !started {
		return ErrNotStarted
	}

	if err := q.Enqueue(ctx, w); err != nil {
		reason := "backpressure"
		if errors.Is(err, queue.ErrQueueClosed) {
			reason = "closed"
		}
		metrics.RecordWorkoutRejected(reason)
		return fmt.Errorf("enqueue workout %s: %w", w.ID, err)
	}

	s.logger.Debug(ctx, "workout enqueued",
		logger.String("workout_id", w.ID),
		logger.String("athlete_id", w.AthleteID),
		logger.String("workout_type", string(w.Type)),
	)
	return nil
}

// Assess recomputes the athlete's readiness now. Workers call it after
// storing a workout.
func (s *Service) Assess(ctx context.Context, athleteID string) (readiness.Result, error) {
	return s.readiness(ctx, athleteID, time.Time{}, sourceIngest)
}

// Readiness computes the athlete's readiness at `at` from stored history. A
// zero `at` means now. Errors wrap repository.ErrNotFound for athletes
// without history.
func (s *Service) Readiness(ctx context.Context, athleteID string, at time.Time) (readiness.Result, error) {
	return s.readiness(ctx, athleteID, at, sourceQuery)
}

func (s *Service) readiness(ctx context.Context, athleteID string, at time.Time, source string) (readiness.Result, error) {
	s.mu.RLock()
	store := s.store
	s.mu.RUnlock()
	if store == nil {
		return readiness.Result{}, ErrNotStarted
	}

	start := time.Now()
	if at.IsZero() {
		at = s.clock()
	}

	history, err := store.Recent(ctx, athleteID, at.Add(-s.engine.Horizon()))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			metrics.RecordComputationError()
		}
		return readiness.Result{}, fmt.Errorf("readiness for %s: %w", athleteID, err)
	}

	result := s.engine.Calculate(history, at)
	s.observe(result, source, start)
	return result, nil
}

// CoachContext renders the athlete's readiness at `at` as prompt context.
func (s *Service) CoachContext(ctx context.Context, athleteID string, at time.Time) (string, error) {
	result, err := s.Readiness(ctx, athleteID, at)
	if err != nil {
		return "", err
	}
	return s.engine.CoachContext(result), nil
}

// Calculate computes readiness for a caller-supplied history. A zero `at`
// means now.
func (s *Service) Calculate(_ context.Context, workouts []model.Workout, at time.Time) readiness.Result {
	start := time.Now()
	result := s.engine.Calculate(workouts, at)
	s.observe(result, sourceCalculate, start)
	return result
}

// Profile describes the engine's model.
func (s *Service) Profile() readiness.Profile {
	return s.engine.Profile()
}

func (s *Service) observe(r readiness.Result, source string, start time.Time) { //nolint:gocritic // hugeParam: read-only
	metrics.RecordComputation(source)
	metrics.RecordComputeLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.ObserveZoneReadiness("overall", r.Overall)
	for _, z := range readiness.Zones {
		metrics.ObserveZoneReadiness(string(z), r.Zones.Get(z))
	}
	metrics.RecordTier(r.Status.Overall.Tier.String())
	for _, rec := range r.Recommendations {
		metrics.RecordRecommendation(rec.ID, rec.Priority.String())
	}
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"lookback":    s.engine.Lookback().String(),
	}

	if s.started {
		stats["store"] = s.storeName()
		stats["uptimeSeconds"] = int64(s.clock().Sub(s.startedAt).Seconds())
		stats["queueLength"] = s.queue.Len(ctx)
		stats["activeWorkers"] = s.pool.Active()
		stats["dedupeEntries"] = s.deduper.Size()
		if n, err := s.store.Count(ctx); err == nil {
			stats["workouts"] = n
			metrics.UpdateStoreWorkouts(n)
		}
		if n, err := s.store.Athletes(ctx); err == nil {
			stats["athletes"] = n
			metrics.UpdateAthletesTracked(n)
		}
	}

	return stats
}
