// Package tts defines the text-to-speech synthesizers that render a
// narration utterance into an audio file.
package tts

import (
	"context"
	"errors"

	"plantguide/pkg/voice"
)

const (
	// MinAudioSize is the minimum size of a synthesized audio file (1KB).
	// Files smaller than this are likely failed synthesis attempts.
	MinAudioSize = 1024
)

// Request is one synthesis job.
type Request struct {
	Text     string
	VoiceID  string // empty: the synthesizer's default voice
	Language string // BCP 47 tag of Text
	Rate     float64
	Pitch    float64
	Volume   float64
}

// Synthesizer defines the interface for Text-To-Speech engines.
type Synthesizer interface {
	// Synthesize renders req and writes the audio to outputPath (an
	// extension may be appended). Returns the audio format ("mp3", "wav").
	Synthesize(ctx context.Context, req Request, outputPath string) (string, error)

	// Voices returns the voices the synthesizer can speak with.
	Voices(ctx context.Context) ([]voice.Descriptor, error)
}

// FatalError is a synthesis failure that retrying will not fix.
// Examples: rate limits (429), server errors (5xx), auth failures (401/403).
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	return e.Message
}

// NewFatalError creates a new FatalError with the given status code and message.
func NewFatalError(statusCode int, message string) *FatalError {
	return &FatalError{StatusCode: statusCode, Message: message}
}

// IsFatalError reports whether err wraps a FatalError.
func IsFatalError(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}
