package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/okian/nova/internal/adapters/mq/queue"
	"github.com/okian/nova/internal/domain/dedupe"
	"github.com/okian/nova/internal/domain/model"
)

// WorkoutDependencies defines the interface for workout ingestion.
type WorkoutDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, w model.Workout) error
}

// WorkoutsHandler handles workout ingestion.
type WorkoutsHandler struct {
	deps WorkoutDependencies
}

// NewWorkoutsHandler creates a new workouts handler.
func NewWorkoutsHandler(deps WorkoutDependencies) *WorkoutsHandler {
	return &WorkoutsHandler{deps: deps}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
	ID        string `json:"id"`
}

func validateWorkout(w *model.Workout) error {
	switch {
	case strings.TrimSpace(w.AthleteID) == "":
		return errors.New("missing athlete_id")
	case strings.TrimSpace(string(w.Type)) == "":
		return errors.New("missing workout_type")
	}
	return nil
}

// HandlePostWorkout handles POST /workouts requests. Workouts without an id
// are assigned one.
func (h *WorkoutsHandler) HandlePostWorkout(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_workout"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var workout model.Workout
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&workout); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validateWorkout(&workout); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(workout.ID) == "" {
		workout.ID = uuid.NewString()
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), workout.ID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true, ID: workout.ID})
		return
	}

	if err := h.deps.Enqueue(r.Context(), workout); err != nil {
		// Rollback the "seen" status so the client may retry
		h.deps.Unrecord(r.Context(), workout.ID)
		if errors.Is(err, queue.ErrQueueFull) {
			writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
			return
		}
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: workout.ID})
}
