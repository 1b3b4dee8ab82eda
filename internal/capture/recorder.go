// Package capture implements the turn-capture loop: it drives the microphone
// stream, feeds frames to the voice activity detector, and decides when an
// utterance is complete.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/easimeng/anglo/internal/vad"
	"github.com/easimeng/anglo/pkg/audio"
)

const (
	// defaultSilence is how much trailing silence ends an utterance.
	defaultSilence = 2 * time.Second

	// defaultMaxDuration caps a single utterance.
	defaultMaxDuration = 30 * time.Second
)

// Recorder captures one utterance at a time from an audio device.
//
// A Recorder is not safe for concurrent use; Record must not be called again
// until the previous call has returned.
type Recorder struct {
	device   audio.Device
	detector *vad.Detector
	logger   *slog.Logger

	silence     time.Duration
	maxDuration time.Duration
	dir         string
}

// Option is a functional option for Recorder.
type Option func(*Recorder)

// WithSilenceDuration sets how much trailing silence ends an utterance.
func WithSilenceDuration(d time.Duration) Option {
	return func(r *Recorder) {
		r.silence = d
	}
}

// WithMaxDuration caps the length of a single utterance.
func WithMaxDuration(d time.Duration) Option {
	return func(r *Recorder) {
		r.maxDuration = d
	}
}

// WithOutputDir sets the directory utterance WAV files are written to.
// Defaults to the OS temp directory.
func WithOutputDir(dir string) Option {
	return func(r *Recorder) {
		r.dir = dir
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		r.logger = logger
	}
}

// New constructs a Recorder over the given device and detector.
func New(device audio.Device, detector *vad.Detector, opts ...Option) *Recorder {
	r := &Recorder{
		device:      device,
		detector:    detector,
		logger:      slog.Default(),
		silence:     defaultSilence,
		maxDuration: defaultMaxDuration,
		dir:         os.TempDir(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Record captures a single utterance and writes it as a 16-bit PCM 16 kHz
// mono WAV file, returning the file path.
//
// Frames preceding the first detected speech are discarded; once speech has
// started, every frame accumulates, trailing silence included. Capture ends
// when the trailing silence reaches the configured threshold, when the
// utterance hits its maximum duration, or when ctx is cancelled. A cancelled
// capture still finalizes whatever was buffered.
//
// Returns "" with a nil error when the stream closed or was cancelled before
// any speech was detected.
func (r *Recorder) Record(ctx context.Context) (string, error) {
	r.detector.Reset()

	var (
		buf       []float32
		srcRate   = audio.DefaultSampleRate
		started   bool
		silentDur time.Duration
	)

	for {
		frame, err := r.device.Read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Stream closed or caller stopped us; keep what we have.
				break
			}
			return "", fmt.Errorf("capture: read frame: %w", err)
		}
		if frame.SampleRate > 0 {
			srcRate = frame.SampleRate
		}

		speaking := r.detector.ProcessAudio(frame.Samples)
		if !started && speaking {
			started = true
			r.logger.Debug("speech started")
		}
		if !started {
			continue
		}

		buf = append(buf, frame.Samples...)

		if speaking {
			silentDur = 0
		} else {
			silentDur += frame.Duration()
			if silentDur >= r.silence {
				r.logger.Debug("utterance ended on silence",
					"silence", silentDur,
				)
				break
			}
		}

		if dur := time.Duration(len(buf)) * time.Second / time.Duration(srcRate); dur >= r.maxDuration {
			r.logger.Debug("utterance ended on max duration", "duration", dur)
			break
		}

		// Cooperative stop between reads.
		if ctx.Err() != nil {
			break
		}
	}

	if !started || len(buf) == 0 {
		return "", nil
	}

	if srcRate != audio.DefaultSampleRate {
		buf = audio.ResampleMono(buf, srcRate, audio.DefaultSampleRate)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("utterance_%d.wav", time.Now().UnixNano()))
	if err := audio.WriteWAV(path, buf, audio.DefaultSampleRate); err != nil {
		return "", fmt.Errorf("capture: finalize utterance: %w", err)
	}
	return path, nil
}
