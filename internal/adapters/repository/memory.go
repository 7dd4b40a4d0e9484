package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/pkg/metrics"
)

// stored is a workout with its resolved occurrence time.
type stored struct {
	workout model.Workout
	at      time.Time
}

// MemoryStore is an in-memory Store. Each athlete's history is kept sorted
// by occurrence time, oldest first.
type MemoryStore struct {
	mu       sync.RWMutex
	byID     map[string]string // workout id -> athlete id
	athletes map[string][]stored
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:     make(map[string]string),
		athletes: make(map[string][]stored),
	}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, w model.Workout) (bool, error) { //nolint:gocritic // hugeParam: stored by value
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("append", sinceMillis(start)) }()

	if err := validate(w); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, ErrClosed
	}
	if _, ok := s.byID[w.ID]; ok {
		return false, nil
	}

	occurred, _ := w.OccurredAt()
	rec := stored{workout: w, at: occurred}
	history := s.athletes[w.AthleteID]
	i := sort.Search(len(history), func(i int) bool { return rec.before(history[i]) })
	history = append(history, stored{})
	copy(history[i+1:], history[i:])
	history[i] = rec

	s.athletes[w.AthleteID] = history
	s.byID[w.ID] = w.AthleteID
	metrics.UpdateStoreWorkouts(len(s.byID))
	return true, nil
}

// before orders records by time, then by id, matching the SQLite store.
func (r stored) before(o stored) bool {
	if !r.at.Equal(o.at) {
		return r.at.Before(o.at)
	}
	return r.workout.ID < o.workout.ID
}

// Recent implements Store.
func (s *MemoryStore) Recent(_ context.Context, athleteID string, since time.Time) ([]model.Workout, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("recent", sinceMillis(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	history, ok := s.athletes[athleteID]
	if !ok || len(history) == 0 {
		return nil, ErrNotFound
	}

	from := sort.Search(len(history), func(i int) bool { return !history[i].at.Before(since) })
	out := make([]model.Workout, 0, len(history)-from)
	for i := len(history) - 1; i >= from; i-- {
		out = append(out, history[i].workout)
	}
	return out, nil
}

// Prune implements Store.
func (s *MemoryStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	start := time.Now()
	defer func() { metrics.RecordStoreLatency("prune", sinceMillis(start)) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	removed := 0
	for athlete, history := range s.athletes {
		keep := sort.Search(len(history), func(i int) bool { return !history[i].at.Before(cutoff) })
		if keep == 0 {
			continue
		}
		for _, rec := range history[:keep] {
			delete(s.byID, rec.workout.ID)
		}
		removed += keep
		if keep == len(history) {
			delete(s.athletes, athlete)
			continue
		}
		s.athletes[athlete] = append([]stored(nil), history[keep:]...)
	}

	metrics.UpdateStoreWorkouts(len(s.byID))
	return removed, nil
}

// Count implements Store.
func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID), nil
}

// Athletes implements Store.
func (s *MemoryStore) Athletes(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.athletes), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
