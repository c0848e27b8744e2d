package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"plantguide/pkg/version"
)

// Handlers groups the endpoint handlers mounted by NewServer.
type Handlers struct {
	Plants    *PlantHandler
	Narration *NarrationHandler
	Stats     *StatsHandler
	Audio     *AudioHandler // optional
	Metrics   http.Handler  // optional Prometheus endpoint
}

// NewServer creates and configures the HTTP server.
// defaultPlant is the target of the "/" redirect.
func NewServer(addr string, h Handlers, defaultPlant string) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and version
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Stats and logs
	mux.Handle("GET /api/stats", h.Stats)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)

	// 3. Catalog
	mux.HandleFunc("GET /api/plants", h.Plants.HandleList)
	mux.HandleFunc("GET /api/plants/{id}", h.Plants.HandleGet)
	mux.HandleFunc("GET /plant/{id}", h.Plants.HandlePage)
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticHandler()))

	// 4. Narration
	mux.HandleFunc("POST /api/plants/{id}/narrate", h.Narration.HandleNarrate)
	mux.HandleFunc("POST /api/narration/pause", h.Narration.HandlePause)
	mux.HandleFunc("POST /api/narration/stop", h.Narration.HandleStop)
	mux.HandleFunc("GET /api/narration/status", h.Narration.HandleStatus)
	mux.HandleFunc("GET /api/voices", h.Narration.HandleVoices)

	// 5. Audio output and metrics
	if h.Audio != nil {
		mux.HandleFunc("POST /api/audio/volume", h.Audio.HandleVolume)
		mux.HandleFunc("GET /api/audio/status", h.Audio.HandleStatus)
	}

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}

	// 6. Root falls back to the default plant
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/plant/"+url.PathEscape(defaultPlant), http.StatusFound)
	})

	return &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError sends {"error": msg}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
