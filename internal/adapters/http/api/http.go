// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/nova/internal/domain/dedupe"
	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a workout for async ingestion.
	Enqueue(ctx context.Context, w model.Workout) error

	// Read operations expose readiness computed from stored history.
	Readiness(ctx context.Context, athleteID string, at time.Time) (readiness.Result, error)
	CoachContext(ctx context.Context, athleteID string, at time.Time) (string, error)

	// Calculate is stateless and works on a caller-supplied history.
	Calculate(ctx context.Context, workouts []model.Workout, at time.Time) readiness.Result
	Profile() readiness.Profile
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	workoutsHandler  *WorkoutsHandler
	readinessHandler *ReadinessHandler
	statusHandler    *StatusHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		workoutsHandler:  NewWorkoutsHandler(deps),
		readinessHandler: NewReadinessHandler(deps),
		statusHandler:    NewStatusHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/workouts", MetricsMiddleware(s.workoutsHandler.HandlePostWorkout, "workouts"))
	mux.HandleFunc("/readiness/", MetricsMiddleware(s.readinessHandler.HandleReadiness, "readiness"))
	mux.HandleFunc("/status", MetricsMiddleware(s.statusHandler.HandleStatus, "status"))
	mux.HandleFunc("/fatigue-table", MetricsMiddleware(s.statusHandler.HandleFatigueTable, "fatigue_table"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v before writing the header so an unencodable value
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Code: "internal_error", Message: err.Error()})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseAt reads the optional `at` query parameter. Missing means now and is
// returned as the zero time.
func parseAt(r *http.Request) (time.Time, bool) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return time.Time{}, true
	}
	return model.ParseTime(raw)
}
