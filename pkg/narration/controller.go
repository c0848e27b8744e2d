package narration

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"plantguide/pkg/tracker"
	"plantguide/pkg/translate"
	"plantguide/pkg/voice"
)

// TranslateProvider is the tracker key for translation fallbacks.
const TranslateProvider = "translate"

// Options configures a Controller.
type Options struct {
	NativeLanguage string // never sent to the translator
	Rate           float64
	Pitch          float64
	Volume         float64
	VoiceMarkers   []string
}

// DefaultOptions returns the narration defaults.
func DefaultOptions() Options {
	return Options{
		NativeLanguage: "en-IN",
		Rate:           0.85,
		Pitch:          1.0,
		Volume:         1.0,
		VoiceMarkers:   []string{"Neural"},
	}
}

// Controller owns the single narration session. It is safe for concurrent
// use; the engine is only touched while mu is held.
type Controller struct {
	engine     Engine
	translator Translator
	tracker    *tracker.Tracker
	selector   voice.Selector
	inventory  voice.Inventory
	opts       Options

	mu      sync.Mutex
	state   State
	session uint64
	cancel  context.CancelFunc // aborts the pending translation
	status  Status
}

// NewController creates a Controller and subscribes to the engine's voice
// changes. A nil tracker disables fallback counting.
func NewController(engine Engine, tr Translator, t *tracker.Tracker, opts Options) *Controller {
	c := &Controller{
		engine:     engine,
		translator: tr,
		tracker:    t,
		selector:   voice.Selector{Markers: opts.VoiceMarkers},
		opts:       opts,
	}
	engine.OnVoicesChanged(c.refreshVoices)
	c.refreshVoices()
	return c
}

func (c *Controller) refreshVoices() {
	voices := c.engine.Voices()
	c.inventory.Replace(voices)
	slog.Debug("Narration: voice inventory updated", "count", len(voices))
}

// Start narrates req, replacing whatever was playing. The engine is
// canceled before anything else happens. A failed translation falls back to
// the original text.
func (c *Controller) Start(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	lang := req.Language
	if lang == "" {
		lang = c.opts.NativeLanguage
	}

	c.mu.Lock()
	c.session++
	id := c.session
	c.resetLocked()
	tctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.status.Pending = true
	c.mu.Unlock()
	defer cancel()

	text, translated := c.resolveText(tctx, req.Text, lang)

	c.mu.Lock()
	defer c.mu.Unlock()

	if id != c.session {
		slog.Debug("Narration: discarding stale result", "session", id, "current", c.session)
		return ErrSuperseded
	}
	c.cancel = nil
	c.status.Pending = false
	if err := ctx.Err(); err != nil {
		return err
	}

	v := c.selector.Select(c.voicesLocked(), lang)
	if v == nil {
		slog.Debug("Narration: no voice for language, using platform default", "language", lang)
	}

	u := Utterance{
		Text:     text,
		Language: lang,
		Voice:    v,
		Rate:     c.opts.Rate,
		Pitch:    c.opts.Pitch,
		Volume:   c.opts.Volume,
	}
	c.engine.Speak(u, func() { c.finished(id) })
	c.state = Speaking

	c.status = Status{
		Language:   lang,
		Translated: translated,
	}
	if v != nil {
		c.status.Voice = v.ID
	}
	slog.Info("Narration: speaking", "session", id, "language", lang, "voice", c.status.Voice, "translated", translated)
	return nil
}

// resolveText applies the translation policy. Runs without the lock.
func (c *Controller) resolveText(ctx context.Context, text, lang string) (string, bool) {
	if strings.EqualFold(lang, c.opts.NativeLanguage) || c.translator == nil {
		return text, false
	}

	code := translate.ShortCode(lang)
	out, err := c.translator.Translate(ctx, text, code)
	if err == nil {
		return out, true
	}
	if ctx.Err() != nil {
		// Aborted by Stop or a newer Start; the caller discards the result.
		return text, false
	}

	slog.Warn("Narration: translation failed, narrating original text", "language", lang, "target", code, "error", err)
	if c.tracker != nil {
		c.tracker.TrackFallback(TranslateProvider)
	}
	return text, false
}

func (c *Controller) voicesLocked() []voice.Descriptor {
	voices := c.inventory.Voices()
	if len(voices) == 0 {
		voices = c.engine.Voices()
		c.inventory.Replace(voices)
	}
	return voices
}

// resetLocked cancels the engine and any pending translation.
func (c *Controller) resetLocked() {
	c.engine.Cancel()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.state = Idle
	c.status = Status{}
}

func (c *Controller) finished(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id != c.session || c.state == Idle {
		return
	}
	c.state = Idle
	c.status = Status{}
	slog.Debug("Narration: utterance finished", "session", id)
}

// TogglePause pauses a speaking narration or resumes a paused one and
// returns the resulting state. It does nothing when idle.
func (c *Controller) TogglePause() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Speaking:
		c.engine.Pause()
		c.state = Paused
	case Paused:
		c.engine.Resume()
		c.state = Speaking
	}
	return c.state
}

// Stop cancels the engine and any pending translation. Safe to call in
// any state, any number of times.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session++
	c.resetLocked()
}

// State returns the current playback state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the current status.
func (c *Controller) Snapshot() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.status
	s.State = c.state
	s.Session = c.session
	return s
}

// Voices returns the current voice inventory snapshot.
func (c *Controller) Voices() []voice.Descriptor {
	return c.inventory.Voices()
}
