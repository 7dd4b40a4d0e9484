package api

import (
	"net/http"
	"time"
)

// StatsProvider reports ingestion and store counters.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	now      func() time.Time
}

// NewStatsHandler creates a stats handler over provider.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, now: time.Now}
}

// HandleStats returns the provider's counters stamped with the time they
// were read, so pollers such as the seed tool can order snapshots.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", NewKind(op, ErrUnavailable))
		return
	}

	stats := h.provider.GetStats()
	out := make(map[string]any, len(stats)+1)
	for k, v := range stats {
		out[k] = v
	}
	out["readAt"] = h.now().UTC().Format(time.RFC3339Nano)
	writeJSON(w, http.StatusOK, out)
}
