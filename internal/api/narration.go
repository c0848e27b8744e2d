package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"plantguide/pkg/guide"
	"plantguide/pkg/narration"
	"plantguide/pkg/voice"
)

// NarrationHandler handles the narration control endpoints.
type NarrationHandler struct {
	guide Guide
	msgs  *Messages
}

// NewNarrationHandler creates a NarrationHandler.
func NewNarrationHandler(g Guide, msgs *Messages) *NarrationHandler {
	return &NarrationHandler{guide: g, msgs: msgs}
}

// NarrateRequest selects the narration language. An empty language reads
// the description untranslated.
type NarrateRequest struct {
	Language string `json:"language"`
}

// HandleNarrate handles POST /api/plants/{id}/narrate
func (h *NarrationHandler) HandleNarrate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lz := h.msgs.For(r)

	var req NarrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, lz.T("InvalidRequest", nil))
		return
	}
	if req.Language != "" {
		if _, err := language.Parse(req.Language); err != nil {
			writeError(w, http.StatusBadRequest, lz.T("UnsupportedLanguage", map[string]any{"Language": req.Language}))
			return
		}
	}

	err := h.guide.Narrate(r.Context(), id, req.Language)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.guide.Status())
	case errors.Is(err, guide.ErrNotFound):
		writeError(w, http.StatusNotFound, lz.T("PlantNotFound", map[string]any{"ID": id}))
	case errors.Is(err, narration.ErrSuperseded):
		// A later request took over; not a failure of this one.
		writeJSON(w, http.StatusOK, map[string]string{"status": "superseded"})
	case errors.Is(err, narration.ErrEmptyText):
		writeError(w, http.StatusUnprocessableEntity, lz.T("NarrationFailed", nil))
	case r.Context().Err() != nil:
		slog.Debug("Narration request abandoned by client", "id", id)
	default:
		slog.Error("Narration failed", "id", id, "language", req.Language, "error", err)
		writeError(w, http.StatusInternalServerError, lz.T("NarrationFailed", nil))
	}
}

// HandlePause handles POST /api/narration/pause. It toggles between
// speaking and paused.
func (h *NarrationHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	state := h.guide.TogglePause()
	slog.Debug("Narration toggled", "state", state)
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "state": state})
}

// HandleStop handles POST /api/narration/stop
func (h *NarrationHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	h.guide.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "state": narration.Idle})
}

// HandleStatus handles GET /api/narration/status
func (h *NarrationHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.guide.Status())
}

// HandleVoices handles GET /api/voices
func (h *NarrationHandler) HandleVoices(w http.ResponseWriter, r *http.Request) {
	voices := h.guide.Voices()
	if voices == nil {
		voices = []voice.Descriptor{}
	}
	writeJSON(w, http.StatusOK, voices)
}
