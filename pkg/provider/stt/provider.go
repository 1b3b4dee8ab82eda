// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a batch transcription engine (e.g., the OpenAI
// transcription API, a whisper.cpp server, or the whisper.cpp CGO bindings)
// and exposes a uniform file-in, text-out interface. The recorder writes each
// finished utterance to a WAV file; the provider turns that file into text.
//
// Implementations must be safe for concurrent use.
package stt

import "context"

// Provider is the interface implemented by all STT backends.
type Provider interface {
	// Transcribe reads the 16-bit PCM WAV file at audioPath and returns the
	// recognised text. An empty string with a nil error means the engine
	// found no speech in the file.
	//
	// Returns an error if the file cannot be read, the backend fails, or
	// ctx is cancelled before transcription completes.
	Transcribe(ctx context.Context, audioPath string) (string, error)

	// Name identifies the backend (e.g., "whisper-api", "whisper-native")
	// for logging and fallback reporting.
	Name() string

	// Close releases backend resources (loaded models, HTTP connections).
	// Safe to call more than once.
	Close() error
}
