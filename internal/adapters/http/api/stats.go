package api

import (
	"net/http"
	"time"
)

// StatsProvider reports service statistics such as the backend in use and
// the number of live sessions.
type StatsProvider interface {
	GetStats() map[string]any
}

// StatsHandler serves GET /stats.
type StatsHandler struct {
	provider StatsProvider
	started  time.Time
}

// NewStatsHandler creates a stats handler. Uptime counts from this call.
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{provider: provider, started: time.Now()}
}

// HandleStats answers with the provider's statistics plus the handler uptime.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	if h.provider == nil {
		writeError(w, http.StatusServiceUnavailable, "stats_unavailable", nil)
		return
	}
	stats := h.provider.GetStats()
	out := make(map[string]any, len(stats)+1)
	for k, v := range stats {
		out[k] = v
	}
	out["uptime"] = time.Since(h.started).Round(time.Second).String()
	writeJSON(w, http.StatusOK, out)
}
