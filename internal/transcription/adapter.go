// Package transcription defines the interfaces for speech-to-text adapters
// and the transcript formatting used by the document builders.
package transcription

import (
	"context"

	"clinical-ehr-gateway/internal/models"
)

// Options control a transcription request.
type Options struct {
	Model       string
	Language    string
	Diarize     bool
	SmartFormat bool
	Keyterms    []string
}

// DefaultOptions returns the options used for clinical audio. A fresh
// value is built per call so callers never share the Keyterms slice.
func DefaultOptions() Options {
	return Options{
		Model:       models.DefaultModel,
		Language:    models.DefaultLanguage,
		Diarize:     true,
		SmartFormat: true,
		Keyterms:    []string{},
	}
}

// Batch transcribes pre-recorded audio (Deepgram, Google, mock).
type Batch interface {
	// TranscribeFile transcribes an audio file on disk.
	TranscribeFile(ctx context.Context, path string, opts Options) (*models.TranscriptionResult, error)

	// TranscribeBytes transcribes an in-memory audio buffer.
	TranscribeBytes(ctx context.Context, audio []byte, mimetype string, opts Options) (*models.TranscriptionResult, error)

	// TranscribeURL transcribes audio hosted at a URL.
	TranscribeURL(ctx context.Context, url string, opts Options) (*models.TranscriptionResult, error)
}

// Callback receives results from a live transcription session.
type Callback interface {
	// OnTranscript is called with each final transcript and its speaker
	// and time span.
	OnTranscript(text string, speaker int, start, end float64)

	// OnError is called when the provider reports an error.
	OnError(err error)

	// OnClose is called when the provider closes the session.
	OnClose()
}

// Live streams audio to a provider over a persistent connection.
type Live interface {
	// Start opens the session and wires the callback.
	Start(ctx context.Context, cb Callback, opts Options) error

	// SendAudio sends a raw audio chunk to the open session.
	SendAudio(chunk []byte) error

	// Finish flushes and closes the session. Must be called when done
	// sending audio; providers drop idle sessions otherwise.
	Finish() error

	// IsConnected reports whether a session is open.
	IsConnected() bool
}
