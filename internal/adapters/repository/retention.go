package repository

import (
	"context"
	"time"

	"github.com/okian/nova/pkg/logger"
	"github.com/okian/nova/pkg/metrics"
)

const defaultRetentionInterval = time.Minute

// Retainer periodically drops workouts older than the retention window and
// refreshes the store gauges.
type Retainer struct {
	store     Store
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    logger.Logger
}

// NewRetainer creates a Retainer for store.
func NewRetainer(store Store, opts ...Option) *Retainer {
	r := &Retainer{
		store:    store,
		interval: defaultRetentionInterval,
		now:      time.Now,
		logger:   logger.Get().Named("retention"),
	}

	// Apply all options
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run blocks until ctx is done, running one pass per interval.
func (r *Retainer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Warn(ctx, "retention pass failed", logger.Error(err))
			}
		}
	}
}

// RunOnce prunes expired workouts and updates gauges. It returns the number
// of workouts removed.
func (r *Retainer) RunOnce(ctx context.Context) (int, error) {
	removed := 0
	if r.retention > 0 {
		n, err := r.store.Prune(ctx, r.now().Add(-r.retention))
		if err != nil {
			metrics.RecordErrorByComponent("repository", "prune_failed")
			return 0, err
		}
		removed = n
		metrics.RecordStorePruned(n)
		if n > 0 {
			r.logger.Debug(ctx, "pruned expired workouts", logger.Int("removed", n))
		}
	}

	if count, err := r.store.Count(ctx); err == nil {
		metrics.UpdateStoreWorkouts(count)
	}
	if athletes, err := r.store.Athletes(ctx); err == nil {
		metrics.UpdateAthletesTracked(athletes)
	}
	return removed, nil
}
