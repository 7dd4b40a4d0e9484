// Package repository keeps the workout history readiness is computed from.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/nova/internal/domain/model"
)

// Store provides read/write access to per-athlete workout history.
type Store interface {
	// Append stores w. It returns false when a workout with the same id is
	// already stored. w must carry an id and an athlete id.
	Append(ctx context.Context, w model.Workout) (bool, error)

	// Recent returns the athlete's workouts that occurred at or after since,
	// newest first. Returns ErrNotFound if the athlete has no stored workouts.
	Recent(ctx context.Context, athleteID string, since time.Time) ([]model.Workout, error)

	// Prune removes workouts that occurred before cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored workouts.
	Count(ctx context.Context) (int, error)

	// Athletes returns the number of athletes with at least one workout.
	Athletes(ctx context.Context) (int, error)

	// Close releases resources held by the store.
	Close() error
}

func validate(w model.Workout) error { //nolint:gocritic // hugeParam: read-only check
	switch {
	case w.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidWorkout)
	case w.AthleteID == "":
		return fmt.Errorf("%w: workout %s has no athlete_id", ErrInvalidWorkout, w.ID)
	}
	return nil
}

func sinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
