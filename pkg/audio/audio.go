// Package audio defines the interfaces and types for audio capture and
// playback within Anglo.
//
// The two primary abstractions are:
//
//   - [Device] — a microphone-like source that yields fixed-size capture
//     windows of mono float32 samples.
//   - [Player] — a speaker-like sink that plays 16-bit PCM audio.
//
// Implementations of these interfaces are provided by platform-specific
// adapter packages. The interfaces are intentionally narrow to keep the
// recorder and speaker decoupled from sound-card details.
//
// This package lives under pkg/ because external code (alternative capture
// backends) is expected to implement [Device] and [Player].
package audio

import (
	"context"
	"time"
)

// DefaultSampleRate is the pipeline-native capture rate in Hz. Speech
// recognition backends expect 16 kHz mono input.
const DefaultSampleRate = 16000

// Format describes the sample rate and channel count of an audio stream.
type Format struct {
	SampleRate int
	Channels   int
}

// Frame represents a single capture window of audio flowing through the
// pipeline. Frames are the atomic unit of audio transport — captured from a
// [Device], classified by VAD, and accumulated by the recorder.
type Frame struct {
	// Samples is mono float32 PCM in the range [-1.0, 1.0].
	Samples []float32

	// SampleRate in Hz (e.g., 16000 for STT input).
	SampleRate int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the wall-clock length of the frame.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 {
		return 0
	}
	return time.Duration(len(f.Samples)) * time.Second / time.Duration(f.SampleRate)
}

// Device is a source of capture windows.
//
// Implementations must be safe for concurrent use.
type Device interface {
	// Read blocks until the next capture window is available and returns it.
	// Returns an error if the device is closed or the context is cancelled.
	Read(ctx context.Context) (Frame, error)

	// Close releases the underlying capture resources. Safe to call more
	// than once; subsequent calls are no-ops and return nil.
	Close() error
}

// Player is a sink for synthesised speech.
//
// Implementations must be safe for concurrent use.
type Player interface {
	// Play blocks until the given little-endian int16 PCM buffer has been
	// queued for playback, or the context is cancelled.
	Play(ctx context.Context, pcm []byte, format Format) error

	// Close stops playback and releases the output device. Safe to call
	// more than once; subsequent calls are no-ops and return nil.
	Close() error
}
