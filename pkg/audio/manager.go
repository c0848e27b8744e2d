// Package audio plays synthesized narration files through the local
// speaker.
package audio

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

const targetSampleRate = beep.SampleRate(48000)

// Manager plays one narration file at a time using gopxl/beep.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	volume             float64
	isPaused           bool
	lastNarrationFile  string
	speakerInitialized bool
	streamer           *effects.Volume
	trackStreamer      beep.StreamSeekCloser
	trackFormat        beep.Format
}

// New creates a new Manager instance.
func New() *Manager {
	return &Manager{volume: 1.0}
}

// Play starts playback of an audio file, replacing any current playback.
// If startPaused is true the file is loaded but held paused. onComplete is
// called when playback reaches the end, not when it is stopped.
func (m *Manager) Play(path string, startPaused bool, onComplete func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	streamer, format, err := DecodeMedia(path)
	if err != nil {
		slog.Error("Audio: failed to decode file", "path", path, "error", err)
		return err
	}

	if err := m.ensureSpeakerInitialized(); err != nil {
		streamer.Close()
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, streamer)
	volStreamer := &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}

	m.streamer = volStreamer
	m.trackStreamer = streamer
	m.trackFormat = format

	ctrl := &beep.Ctrl{Streamer: volStreamer, Paused: startPaused}
	m.ctrl = ctrl
	m.isPaused = startPaused

	speaker.Play(beep.Seq(ctrl, beep.Callback(func() {
		// Leave the speaker goroutine before taking the lock.
		go m.finished(ctrl, streamer, onComplete)
	})))

	if m.lastNarrationFile != "" && m.lastNarrationFile != path {
		removeArtifact(m.lastNarrationFile, "Audio: cleaned up previous narration artifact")
	}
	m.lastNarrationFile = path

	if startPaused {
		slog.Info("Audio: loaded in PAUSED state", "path", path)
	} else {
		slog.Debug("Audio: playing", "path", path)
	}
	return nil
}

func (m *Manager) finished(ctrl *beep.Ctrl, streamer beep.StreamSeekCloser, onComplete func()) {
	m.mu.Lock()
	current := m.ctrl == ctrl
	if current {
		m.ctrl = nil
		m.isPaused = false
		m.trackStreamer = nil
		m.streamer = nil
	}
	m.mu.Unlock()
	streamer.Close()

	if current && onComplete != nil {
		onComplete()
	}
}

// Pause pauses current playback.
func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil {
		speaker.Lock()
		m.ctrl.Paused = true
		speaker.Unlock()
		m.isPaused = true
	}
}

// Resume resumes paused playback.
func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl != nil && m.isPaused {
		speaker.Lock()
		m.ctrl.Paused = false
		speaker.Unlock()
		m.isPaused = false
	}
}

// Stop stops current playback. onComplete is not called.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
}

func (m *Manager) stopLocked() {
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.isPaused = false
	}
	if m.trackStreamer != nil {
		m.trackStreamer.Close()
		m.trackStreamer = nil
	}
	m.streamer = nil
}

func (m *Manager) ensureSpeakerInitialized() error {
	if m.speakerInitialized {
		return nil
	}
	if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
		slog.Error("Audio: failed to initialize speaker", "error", err)
		return err
	}
	m.speakerInitialized = true
	return nil
}

// Shutdown stops playback and deletes any residual audio artifacts.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	if m.lastNarrationFile != "" {
		removeArtifact(m.lastNarrationFile, "Audio: shutdown cleanup of residual artifact")
		m.lastNarrationFile = ""
	}
}

func removeArtifact(path, msg string) {
	if err := os.Remove(path); err == nil {
		slog.Debug(msg, "path", path)
	} else if !os.IsNotExist(err) {
		slog.Warn("Audio: failed to remove narration artifact", "path", path, "error", err)
	}
}

// IsPlaying returns true if audio is currently playing.
func (m *Manager) IsPlaying() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil && !m.isPaused
}

// IsBusy returns true if audio is loaded (playing or paused).
func (m *Manager) IsBusy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ctrl != nil
}

// IsPaused returns true if playback is paused.
func (m *Manager) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	vol = max(0, min(1, vol))
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Position returns the current playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	speaker.Lock()
	defer speaker.Unlock()
	return m.trackFormat.SampleRate.D(m.trackStreamer.Position())
}

// Duration returns the total duration of the current audio.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.trackStreamer == nil || m.trackFormat.SampleRate == 0 {
		return 0
	}
	return m.trackFormat.SampleRate.D(m.trackStreamer.Len())
}
