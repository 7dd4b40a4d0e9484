package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/nova/internal/adapters/repository"
	"github.com/okian/nova/internal/domain/model"
	"github.com/okian/nova/internal/domain/readiness"
)

const calculatePath = "calculate"

// ReadinessDependencies defines the interface for readiness queries.
type ReadinessDependencies interface {
	Readiness(ctx context.Context, athleteID string, at time.Time) (readiness.Result, error)
	CoachContext(ctx context.Context, athleteID string, at time.Time) (string, error)
	Calculate(ctx context.Context, workouts []model.Workout, at time.Time) readiness.Result
}

// ReadinessHandler handles everything under /readiness/.
type ReadinessHandler struct {
	deps ReadinessDependencies
}

// NewReadinessHandler creates a new readiness handler.
func NewReadinessHandler(deps ReadinessDependencies) *ReadinessHandler {
	return &ReadinessHandler{deps: deps}
}

// HandleReadiness routes:
//
//	POST /readiness/calculate
//	GET  /readiness/{athlete_id}
//	GET  /readiness/{athlete_id}/coach
func (h *ReadinessHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	const op = "api.readiness"

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/readiness/"), "/")
	if path == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	at, ok := parseAt(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, errors.New("invalid at; must be RFC3339 or epoch milliseconds")))
		return
	}

	if path == calculatePath {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h.handleCalculate(w, r, at)
		return
	}
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	athleteID, rest, _ := strings.Cut(path, "/")
	switch rest {
	case "":
		h.handleGet(w, r, athleteID, at)
	case "coach":
		h.handleCoach(w, r, athleteID, at)
	default:
		http.NotFound(w, r)
	}
}

func (h *ReadinessHandler) handleGet(w http.ResponseWriter, r *http.Request, athleteID string, at time.Time) {
	const op = "api.get_readiness"
	result, err := h.deps.Readiness(r.Context(), athleteID, at)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ReadinessHandler) handleCoach(w http.ResponseWriter, r *http.Request, athleteID string, at time.Time) {
	const op = "api.get_coach_context"
	text, err := h.deps.CoachContext(r.Context(), athleteID, at)
	if err != nil {
		writeLookupError(w, op, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, text)
}

func (h *ReadinessHandler) handleCalculate(w http.ResponseWriter, r *http.Request, at time.Time) {
	const op = "api.calculate_readiness"
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	workouts, err := readiness.DecodeHistory(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", WrapKind(op, ErrBadRequest, err))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Calculate(r.Context(), workouts, at))
}

// writeLookupError maps store lookups to 404 for unknown athletes and 500
// otherwise.
func writeLookupError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
}
