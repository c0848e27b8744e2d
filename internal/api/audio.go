package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// AudioOutput is the playback device state. *audio.Manager satisfies it.
type AudioOutput interface {
	IsPlaying() bool
	IsPaused() bool
	SetVolume(vol float64)
	Volume() float64
	Position() time.Duration
	Duration() time.Duration
}

// AudioHandler handles audio output endpoints.
type AudioHandler struct {
	audio AudioOutput
}

// NewAudioHandler creates a new AudioHandler.
func NewAudioHandler(out AudioOutput) *AudioHandler {
	return &AudioHandler{audio: out}
}

// AudioVolumeRequest represents a volume change request.
type AudioVolumeRequest struct {
	Volume *float64 `json:"volume"`
}

// AudioStatusResponse represents the audio status.
type AudioStatusResponse struct {
	IsPlaying   bool    `json:"is_playing"`
	IsPaused    bool    `json:"is_paused"`
	Volume      float64 `json:"volume"`
	PositionSec float64 `json:"position_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// HandleVolume handles POST /api/audio/volume
func (h *AudioHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	var req AudioVolumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Volume == nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if *req.Volume < 0 || *req.Volume > 1 {
		writeError(w, http.StatusBadRequest, "volume must be between 0 and 1")
		return
	}

	h.audio.SetVolume(*req.Volume)
	slog.Debug("Audio volume changed", "volume", *req.Volume)

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"volume": h.audio.Volume(),
	})
}

// HandleStatus handles GET /api/audio/status
func (h *AudioHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, AudioStatusResponse{
		IsPlaying:   h.audio.IsPlaying(),
		IsPaused:    h.audio.IsPaused(),
		Volume:      h.audio.Volume(),
		PositionSec: h.audio.Position().Seconds(),
		DurationSec: h.audio.Duration().Seconds(),
	})
}
