// Package speech is the local narration engine: it synthesizes each
// utterance to a temporary file and plays it through the audio player.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plantguide/pkg/narration"
	"plantguide/pkg/tts"
	"plantguide/pkg/voice"
)

// Player is the playback side of the engine. *audio.Manager satisfies it.
type Player interface {
	Play(path string, startPaused bool, onComplete func()) error
	Pause()
	Resume()
	Stop()
}

// Engine implements narration.Engine.
type Engine struct {
	synth   tts.Synthesizer
	player  Player
	workDir string

	mu          sync.Mutex
	fallback    tts.Synthesizer
	useFallback bool
	gen    uint64 // identifies the current utterance
	cancel context.CancelFunc
	paused bool // pause requested for the current utterance
	voices []voice.Descriptor
	subs   []func()
}

var _ narration.Engine = (*Engine)(nil)

// New creates an Engine writing temporary audio files to workDir.
func New(synth tts.Synthesizer, player Player, workDir string) *Engine {
	return &Engine{synth: synth, player: player, workDir: workDir}
}

// SetFallback registers the synthesizer used for the rest of the session
// once the primary one reports a fatal error.
func (e *Engine) SetFallback(fb tts.Synthesizer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = fb
}

// synthesizer returns the active synthesizer (fallback if activated).
func (e *Engine) synthesizer() tts.Synthesizer {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.useFallback && e.fallback != nil {
		return e.fallback
	}
	return e.synth
}

// activateFallback switches to the fallback synthesizer. Returns false
// when there is none or it is already active.
func (e *Engine) activateFallback() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fallback == nil || e.useFallback {
		return false
	}
	e.useFallback = true
	return true
}

// Speak starts synthesis in the background and returns immediately.
// Playback begins once the audio file is ready.
func (e *Engine) Speak(u narration.Utterance, onDone func()) {
	e.mu.Lock()
	e.cancelLocked()
	gen := e.gen
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx, gen, u, onDone)
}

func (e *Engine) run(ctx context.Context, gen uint64, u narration.Utterance, onDone func()) {
	start := time.Now()
	req := tts.Request{
		Text:     u.Text,
		Language: u.Language,
		Rate:     u.Rate,
		Pitch:    u.Pitch,
		Volume:   u.Volume,
	}
	if u.Voice != nil {
		req.VoiceID = u.Voice.ID
	}

	if err := os.MkdirAll(e.workDir, 0o755); err != nil {
		slog.Error("Speech: failed to create work dir", "dir", e.workDir, "error", err)
		e.complete(gen, onDone)
		return
	}
	base := filepath.Join(e.workDir, "narration_"+uuid.NewString())

	format, err := e.synthesizer().Synthesize(ctx, req, base)
	if err != nil && ctx.Err() == nil && tts.IsFatalError(err) && e.activateFallback() {
		slog.Warn("Speech: activating fallback synthesizer for this session", "error", err)
		removePartial(base)
		if _, verr := e.RefreshVoices(ctx); verr != nil {
			slog.Warn("Speech: fallback voice refresh failed", "error", verr)
		}
		// The primary's voice ids mean nothing to the fallback.
		req.VoiceID = ""
		format, err = e.synthesizer().Synthesize(ctx, req, base)
	}
	if err != nil {
		removePartial(base)
		if ctx.Err() != nil {
			slog.Debug("Speech: synthesis canceled", "language", u.Language)
			return
		}
		slog.Error("Speech: synthesis failed", "language", u.Language, "voice", req.VoiceID, "error", err)
		e.complete(gen, onDone)
		return
	}
	path := audioPath(base, format)
	if err := tts.VerifyAudioFile(path); err != nil {
		removePartial(base)
		slog.Error("Speech: synthesized audio rejected", "path", path, "error", err)
		e.complete(gen, onDone)
		return
	}
	slog.Debug("Speech: synthesized", "path", path, "elapsed", time.Since(start))

	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		_ = os.Remove(path)
		return
	}
	err = e.player.Play(path, e.paused, func() { e.complete(gen, onDone) })
	e.mu.Unlock()

	if err != nil {
		slog.Error("Speech: playback failed", "path", path, "error", err)
		_ = os.Remove(path)
		e.complete(gen, onDone)
	}
}

func audioPath(base, format string) string {
	if format == "" || strings.HasSuffix(strings.ToLower(base), "."+format) {
		return base
	}
	return fmt.Sprintf("%s.%s", base, format)
}

func removePartial(base string) {
	matches, _ := filepath.Glob(base + "*")
	for _, m := range matches {
		_ = os.Remove(m)
	}
}

// complete reports the end of utterance gen, unless it was replaced or
// canceled in the meantime.
func (e *Engine) complete(gen uint64, onDone func()) {
	e.mu.Lock()
	current := gen == e.gen
	if current {
		e.cancel = nil
		e.paused = false
	}
	e.mu.Unlock()

	if current && onDone != nil {
		onDone()
	}
}

// Pause pauses playback, or arranges for it to start paused when the
// audio is still being synthesized.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	e.player.Pause()
}

// Resume resumes paused playback.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = false
	e.player.Resume()
}

// Cancel aborts synthesis and stops playback.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

func (e *Engine) cancelLocked() {
	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.paused = false
	e.player.Stop()
}

// Voices returns the last voice list fetched by RefreshVoices.
func (e *Engine) Voices() []voice.Descriptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.voices)
}

// OnVoicesChanged registers fn to run after RefreshVoices finds a
// different voice set.
func (e *Engine) OnVoicesChanged(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, fn)
}

// RefreshVoices queries the synthesizer and notifies subscribers when the
// set changed. Returns the number of voices.
func (e *Engine) RefreshVoices(ctx context.Context) (int, error) {
	voices, err := e.synthesizer().Voices(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list voices: %w", err)
	}

	e.mu.Lock()
	changed := !slices.Equal(e.voices, voices)
	if changed {
		e.voices = slices.Clone(voices)
	}
	subs := slices.Clone(e.subs)
	e.mu.Unlock()

	if changed {
		slog.Info("Speech: voice set changed", "count", len(voices))
		for _, fn := range subs {
			fn()
		}
	}
	return len(voices), nil
}

// WatchVoices refreshes the voice list every interval until ctx is done.
func (e *Engine) WatchVoices(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := e.RefreshVoices(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("Speech: voice refresh failed", "error", err)
			}
		}
	}
}
