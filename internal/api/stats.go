package api

import (
	"net/http"
	"runtime"
	"time"

	"plantguide/pkg/logging"
	"plantguide/pkg/tracker"
	"plantguide/pkg/version"
)

// StatsHandler reports provider counters and process diagnostics.
type StatsHandler struct {
	tracker *tracker.Tracker
	started time.Time
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(t *tracker.Tracker) *StatsHandler {
	return &StatsHandler{tracker: t, started: time.Now()}
}

// ProviderStatsDTO is the per-provider view of the tracker counters.
type ProviderStatsDTO struct {
	APISuccess  int64 `json:"api_success"`
	APIFailures int64 `json:"api_errors"`
	Fallbacks   int64 `json:"fallbacks"`
	Canceled    int64 `json:"canceled"`
	SuccessRate int64 `json:"success_rate"` // percent of completed calls
}

// Diagnostics describes the server process.
type Diagnostics struct {
	UptimeSec  int64  `json:"uptime_sec"`
	MemoryMB   uint64 `json:"memory_mb"`
	Goroutines int    `json:"goroutines"`
}

type StatsResponse struct {
	Version     string                      `json:"version"`
	Diagnostics Diagnostics                 `json:"diagnostics"`
	Providers   map[string]ProviderStatsDTO `json:"providers"`
	LastWarning string                      `json:"last_warning,omitempty"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tracker.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	resp := StatsResponse{
		Version: version.Version,
		Diagnostics: Diagnostics{
			UptimeSec:  int64(time.Since(h.started).Seconds()),
			MemoryMB:   bToMb(mem.Alloc),
			Goroutines: runtime.NumGoroutine(),
		},
		Providers:   make(map[string]ProviderStatsDTO, len(snapshot)),
		LastWarning: formatLogLine(logging.LastWarning.GetLastLine()),
	}

	for provider, stats := range snapshot {
		total := stats.APISuccess + stats.APIFailures
		rate := int64(0)
		if total > 0 {
			rate = (stats.APISuccess * 100) / total
		}
		resp.Providers[provider] = ProviderStatsDTO{
			APISuccess:  stats.APISuccess,
			APIFailures: stats.APIFailures,
			Fallbacks:   stats.Fallbacks,
			Canceled:    stats.Canceled,
			SuccessRate: rate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}
