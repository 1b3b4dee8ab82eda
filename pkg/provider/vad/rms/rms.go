// Package rms provides an energy-based VAD classifier.
//
// The classifier compares the root-mean-square level of each window against
// an adaptive noise floor. It needs no model files and no cgo, which makes it
// the default offline backend and the reference implementation for tests.
package rms

import (
	"fmt"
	"math"
	"sync"

	"github.com/easimeng/anglo/pkg/provider/vad"
)

const (
	// defaultRatio is the multiple of the noise floor a window must exceed
	// to count as speech.
	defaultRatio = 3.0

	// defaultMinLevel is the absolute RMS below which a window is never
	// speech, regardless of the noise floor.
	defaultMinLevel = 0.015

	// floorAdaptation is the exponential smoothing factor applied to the
	// noise floor on non-speech windows.
	floorAdaptation = 0.05
)

// Classifier implements [vad.Classifier] using RMS energy with an adaptive
// noise floor.
type Classifier struct {
	cfg   vad.Config
	ratio float64
	min   float64

	mu     sync.Mutex
	floor  float64
	primed bool
	closed bool
}

// Option is a functional option for Classifier.
type Option func(*Classifier)

// WithRatio overrides the speech-to-floor ratio. Higher values reduce false
// positives at the cost of missing quiet speech.
func WithRatio(r float64) Option {
	return func(c *Classifier) {
		c.ratio = r
	}
}

// WithMinLevel overrides the absolute minimum RMS for speech.
func WithMinLevel(level float64) Option {
	return func(c *Classifier) {
		c.min = level
	}
}

// New constructs an RMS classifier for the given window config.
func New(cfg vad.Config, opts ...Option) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Classifier{
		cfg:   cfg,
		ratio: defaultRatio,
		min:   defaultMinLevel,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Classify implements [vad.Classifier].
func (c *Classifier) Classify(samples []float32) (bool, error) {
	if want := c.cfg.WindowSamples(); len(samples) != want {
		return false, fmt.Errorf("rms: window has %d samples, want %d", len(samples), want)
	}

	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	level := math.Sqrt(sum / float64(len(samples)))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false, fmt.Errorf("rms: classifier is closed")
	}

	if !c.primed {
		// Seed the floor from the first window so a noisy room does not
		// register as constant speech.
		c.floor = level
		c.primed = true
		return false, nil
	}

	speech := level > c.min && level > c.floor*c.ratio
	if !speech {
		c.floor = c.floor*(1-floorAdaptation) + level*floorAdaptation
	}
	return speech, nil
}

// Close implements [vad.Classifier].
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

var _ vad.Classifier = (*Classifier)(nil)
