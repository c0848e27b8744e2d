// Package narration holds the narration controller: the state machine that
// turns a plant description into speech, translating it first when the
// listener picked a non-native language.
package narration

import (
	"context"
	"errors"

	"plantguide/pkg/voice"
)

// State is the playback state of the controller.
type State int

const (
	Idle State = iota
	Speaking
	Paused
)

func (s State) String() string {
	switch s {
	case Speaking:
		return "speaking"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name in JSON responses.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrSuperseded is returned by Start when a newer Start or a Stop
	// happened while the translation was pending. It is not a fault.
	ErrSuperseded = errors.New("narration superseded")
	// ErrEmptyText is returned by Start for a request without text.
	ErrEmptyText = errors.New("nothing to narrate")
)

// Request asks for Text to be narrated in Language (a BCP 47 tag such as
// "hi-IN"). An empty Language means the native language.
type Request struct {
	Text     string
	Language string
}

// Utterance is what the engine is asked to speak.
type Utterance struct {
	Text     string
	Language string
	Voice    *voice.Descriptor // nil: platform default voice
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Engine is the host speech capability.
type Engine interface {
	// Speak starts speaking u and returns without waiting for it to finish.
	// onDone is called at most once, when the utterance completes on its own,
	// and never from within Speak.
	Speak(u Utterance, onDone func())
	Pause()
	Resume()
	// Cancel stops the current utterance, if any. onDone is not called.
	Cancel()
	Voices() []voice.Descriptor
	// OnVoicesChanged registers fn to be called whenever the voice set changes.
	OnVoicesChanged(fn func())
}

// Translator translates text into the language identified by shortCode.
type Translator interface {
	Translate(ctx context.Context, text, shortCode string) (string, error)
}

// Status is a point-in-time view of the controller.
type Status struct {
	State      State  `json:"state"`
	Session    uint64 `json:"session"`
	Language   string `json:"language,omitempty"`
	Voice      string `json:"voice,omitempty"`
	Translated bool   `json:"translated"`
	Pending    bool   `json:"pending"` // translation in flight
}
