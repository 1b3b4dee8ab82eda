// Package vad implements utterance segmentation on top of a raw per-window
// speech classifier.
//
// The classifier answers "does this window contain speech?" for each capture
// window in isolation. The Detector smooths those raw decisions with
// hysteresis so that a single misclassified window cannot flip the pipeline
// between speaking and idle: entering a speech segment requires several
// consecutive positive windows, and leaving one requires a run of negative
// windows over a minimum history.
//
// When the classifier starts failing (model crash, bad window size), the
// Detector degrades to a mean-amplitude energy gate. Degradation is one-way
// for the lifetime of the Detector: a classifier that has failed once is not
// trusted again mid-session.
package vad

import (
	"log/slog"

	"github.com/easimeng/anglo/pkg/audio"
	"github.com/easimeng/anglo/pkg/provider/vad"
)

// ClassifierState tracks whether the primary classifier is still in use.
type ClassifierState int

const (
	// ClassifierAvailable means raw decisions come from the primary
	// classifier.
	ClassifierAvailable ClassifierState = iota

	// ClassifierDegraded means the primary classifier has failed and raw
	// decisions come from the energy fallback. This state is permanent for
	// the lifetime of the Detector.
	ClassifierDegraded
)

// String returns the human-readable name of the state.
func (s ClassifierState) String() string {
	switch s {
	case ClassifierAvailable:
		return "available"
	case ClassifierDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

const (
	// defaultEnterRun is the number of trailing consecutive positive
	// decisions required to enter a speech segment.
	defaultEnterRun = 3

	// defaultExitRun is the number of trailing consecutive negative
	// decisions required to leave a speech segment.
	defaultExitRun = 3

	// defaultExitHistory is the minimum number of buffered decisions before
	// a segment may end. Being larger than the exit run, it keeps a segment
	// alive through the first windows after entry even if they are
	// negative.
	defaultExitHistory = 5


	// defaultEnergyThreshold is the mean absolute amplitude above which the
	// fallback gate reports speech.
	defaultEnergyThreshold = 0.01
)

// Detector turns raw per-window speech decisions into speaking/idle segments.
//
// A Detector is not safe for concurrent use; it belongs to the single capture
// loop that owns the audio stream.
type Detector struct {
	classifier vad.Classifier
	logger     *slog.Logger

	// chunkSamples is the classifier's native window size. Frames larger
	// than one chunk are split and classified chunk by chunk.
	chunkSamples    int
	energyThreshold float64

	enterRun    int
	exitRun     int
	exitHistory int

	// maxRecent caps the decision buffer; older entries are discarded.
	// It tracks exitHistory so the exit condition stays reachable.
	maxRecent int

	state    ClassifierState
	speaking bool
	recent   []bool
}

// Option is a functional option for Detector.
type Option func(*Detector)

// WithEnergyThreshold overrides the fallback energy gate threshold.
func WithEnergyThreshold(threshold float64) Option {
	return func(d *Detector) {
		d.energyThreshold = threshold
	}
}

// WithHysteresis overrides the segmentation thresholds. The defaults are
// empirical; environments with different microphones or frame sizes may need
// different values. exitHistory must be at least exitRun.
func WithHysteresis(enterRun, exitRun, exitHistory int) Option {
	return func(d *Detector) {
		if enterRun > 0 {
			d.enterRun = enterRun
		}
		if exitRun > 0 {
			d.exitRun = exitRun
		}
		if exitHistory >= d.exitRun {
			d.exitHistory = exitHistory
		}
	}
}

// WithLogger sets the logger used for degradation warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// New constructs a Detector over the given classifier. cfg describes the
// classifier's native window; frames handed to ProcessAudio are split into
// windows of that size. A nil classifier starts the Detector in the degraded
// state, using the energy gate from the first frame.
func New(classifier vad.Classifier, cfg vad.Config, opts ...Option) *Detector {
	d := &Detector{
		classifier:      classifier,
		logger:          slog.Default(),
		chunkSamples:    cfg.WindowSamples(),
		energyThreshold: defaultEnergyThreshold,
		enterRun:        defaultEnterRun,
		exitRun:         defaultExitRun,
		exitHistory:     defaultExitHistory,
	}
	if classifier == nil {
		d.state = ClassifierDegraded
	}
	for _, o := range opts {
		o(d)
	}
	d.maxRecent = d.exitHistory
	d.recent = make([]bool, 0, d.maxRecent)
	return d
}

// ProcessAudio feeds one capture window through the detector and reports
// whether the stream is inside a speech segment after this window.
func (d *Detector) ProcessAudio(samples []float32) bool {
	raw := d.rawDecision(samples)

	if len(d.recent) == d.maxRecent {
		copy(d.recent, d.recent[1:])
		d.recent = d.recent[:d.maxRecent-1]
	}
	d.recent = append(d.recent, raw)

	if !d.speaking {
		if trailingRun(d.recent, true) >= d.enterRun {
			d.speaking = true
			// Keep only the run that triggered entry so stale idle
			// decisions cannot count toward the exit history.
			keep := d.recent[len(d.recent)-d.enterRun:]
			d.recent = append(d.recent[:0], keep...)
		}
		return d.speaking
	}

	if len(d.recent) >= d.exitHistory && trailingRun(d.recent, false) >= d.exitRun {
		d.speaking = false
		d.recent = d.recent[:0]
	}
	return d.speaking
}

// rawDecision queries the classifier chunk by chunk, short-circuiting on the
// first speech chunk. Any classifier error degrades the detector to the
// energy gate for the rest of its lifetime.
func (d *Detector) rawDecision(samples []float32) bool {
	if d.state == ClassifierAvailable {
		decision, err := d.classifyFrame(samples)
		if err == nil {
			return decision
		}
		d.state = ClassifierDegraded
		d.logger.Warn("speech classifier failed, degrading to energy gate",
			"error", err,
		)
	}
	return audio.MeanAbs(samples) > d.energyThreshold
}

// classifyFrame splits the frame into classifier-native windows. A frame is
// speech as soon as any window is; a trailing partial window is ignored.
func (d *Detector) classifyFrame(samples []float32) (bool, error) {
	if d.chunkSamples <= 0 || len(samples) <= d.chunkSamples {
		return d.classifier.Classify(samples)
	}
	for off := 0; off+d.chunkSamples <= len(samples); off += d.chunkSamples {
		speech, err := d.classifier.Classify(samples[off : off+d.chunkSamples])
		if err != nil {
			return false, err
		}
		if speech {
			return true, nil
		}
	}
	return false, nil
}

// Speaking reports whether the detector is currently inside a speech segment.
func (d *Detector) Speaking() bool {
	return d.speaking
}

// State returns the classifier state. Once degraded, the state never returns
// to available.
func (d *Detector) State() ClassifierState {
	return d.state
}

// Reset clears segmentation state between recordings. The classifier state is
// deliberately preserved.
func (d *Detector) Reset() {
	d.speaking = false
	d.recent = d.recent[:0]
}

// trailingRun counts how many entries at the tail of buf equal want.
func trailingRun(buf []bool, want bool) int {
	n := 0
	for i := len(buf) - 1; i >= 0; i-- {
		if buf[i] != want {
			break
		}
		n++
	}
	return n
}
