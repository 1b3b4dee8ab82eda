// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., ElevenLabs or a
// local formant engine) and presents a uniform streaming interface. The
// primary entry point is SynthesizeStream, which accepts a channel of text
// fragments and returns a channel of raw PCM audio bytes as they become
// available, enabling low-latency pipelining between response generation and
// playback.
//
// Implementations must be safe for concurrent use.
package tts

import (
	"context"

	"github.com/easimeng/anglo/pkg/types"
)

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// SynthesizeStream consumes text fragments from the text channel and
	// returns a channel that emits raw little-endian int16 PCM byte slices
	// as they are synthesised.
	//
	// The returned audio channel is closed by the implementation when all
	// text has been synthesised or when ctx is cancelled. The caller must
	// drain the audio channel to avoid blocking the provider's internal
	// goroutines.
	//
	// voice specifies the voice profile to use for synthesis. Providers
	// should return an error if the requested voice is not available.
	//
	// Returns a non-nil error only if the stream cannot be started. Errors
	// encountered during synthesis are signalled by closing the audio
	// channel early; callers should check ctx.Err() to distinguish
	// cancellation from provider errors.
	SynthesizeStream(ctx context.Context, text <-chan string, voice types.VoiceProfile) (<-chan []byte, error)

	// ListVoices returns all voice profiles available from this provider.
	// The list reflects the provider's current catalogue and may change
	// between calls if the underlying service adds or removes voices.
	ListVoices(ctx context.Context) ([]types.VoiceProfile, error)

	// CloneVoice creates a new voice profile by training on the supplied
	// audio samples. Each element of samples must be a complete encoded
	// audio file (WAV or MP3).
	//
	// This is an expensive operation and should not be called in the hot
	// path. Returns the newly created VoiceProfile (with a
	// provider-assigned ID) or an error if cloning fails. An empty samples
	// slice returns an error rather than panicking.
	CloneVoice(ctx context.Context, name string, samples [][]byte) (*types.VoiceProfile, error)

	// SampleRate returns the rate in Hz of the PCM emitted by
	// SynthesizeStream.
	SampleRate() int

	// Name identifies the backend (e.g., "elevenlabs", "local") for logging
	// and fallback reporting.
	Name() string
}
