// Package vad defines the Classifier interface for frame-level speech
// detection backends.
//
// A VAD classifier wraps a per-window speech detector (e.g., a WebRTC-style
// GMM model, a Silero ONNX model, or a simple energy gate) and surfaces it as
// a synchronous call: one capture window in, one boolean decision out. The
// hysteresis that turns raw per-window decisions into speaking/idle segments
// lives above this interface, in the detector that owns the classifier.
//
// Classify is synchronous by design: it must return immediately so the audio
// capture loop never stalls.
//
// Implementations must be safe for concurrent use.
package vad

import "fmt"

// Config holds the parameters shared by VAD classifiers.
type Config struct {
	// SampleRate is the audio sample rate in Hz. Must match the rate of the
	// windows passed to Classify. Common values: 8000, 16000, 48000.
	SampleRate int

	// WindowMs is the duration of each analysis window in milliseconds.
	// Most classifiers operate on fixed window sizes (10, 20, or 30 ms).
	WindowMs int
}

// Validate reports whether the config is usable.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("vad: sample rate must be positive, got %d", c.SampleRate)
	}
	switch c.WindowMs {
	case 10, 20, 30:
		return nil
	default:
		return fmt.Errorf("vad: window must be 10, 20 or 30 ms, got %d", c.WindowMs)
	}
}

// WindowSamples returns the number of samples in one analysis window.
func (c Config) WindowSamples() int {
	return c.SampleRate * c.WindowMs / 1000
}

// Classifier makes a raw per-window speech decision.
//
// A Classifier is stateless with respect to segmentation: each call considers
// only the supplied window. Implementations may keep internal calibration
// state (noise floor estimates) but must not gate decisions on prior calls'
// outcomes.
type Classifier interface {
	// Classify reports whether the given window of mono float32 samples
	// contains speech. Returns an error if the window size is wrong or the
	// backend fails; callers treat errors as grounds for falling back to a
	// simpler detector.
	Classify(samples []float32) (bool, error)

	// Close releases backend resources. Safe to call more than once.
	Close() error
}
