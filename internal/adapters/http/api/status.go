package api

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/okian/nova/internal/domain/readiness"
)

// ProfileProvider describes the engine's model.
type ProfileProvider interface {
	Profile() readiness.Profile
}

// StatusHandler serves the classifier and the engine profile.
type StatusHandler struct {
	profile ProfileProvider
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(profile ProfileProvider) *StatusHandler {
	return &StatusHandler{profile: profile}
}

type statusResponse struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
	Color string  `json:"color"`
	Tier  string  `json:"tier"`
}

// HandleStatus handles GET /status?score=N requests.
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_status"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	raw := r.URL.Query().Get("score")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing score")))
		return
	}
	score, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("invalid score")))
		return
	}

	st := readiness.Classify(score)
	writeJSON(w, http.StatusOK, statusResponse{
		Score: score,
		Label: st.Label,
		Color: string(st.Color),
		Tier:  st.Tier.String(),
	})
}

// HandleFatigueTable handles GET /fatigue-table requests.
func (h *StatusHandler) HandleFatigueTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.profile.Profile())
}
