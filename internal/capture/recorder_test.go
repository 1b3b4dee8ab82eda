package capture

import (
	"context"
	"testing"
	"time"

	"github.com/easimeng/anglo/internal/vad"
	"github.com/easimeng/anglo/pkg/audio"
	audiomock "github.com/easimeng/anglo/pkg/audio/mock"
	providervad "github.com/easimeng/anglo/pkg/provider/vad"
	vadmock "github.com/easimeng/anglo/pkg/provider/vad/mock"
)

var testCfg = providervad.Config{SampleRate: 16000, WindowMs: 30}

// frame builds a 30 ms mono frame at 16 kHz with the given amplitude.
func frame(amp float32) audio.Frame {
	samples := make([]float32, 480)
	for i := range samples {
		samples[i] = amp
	}
	return audio.Frame{Samples: samples, SampleRate: 16000}
}

func frames(amp float32, n int) []audio.Frame {
	out := make([]audio.Frame, n)
	for i := range out {
		out[i] = frame(amp)
	}
	return out
}

func newRecorder(t *testing.T, dev audio.Device, decisions []bool, opts ...Option) *Recorder {
	t.Helper()
	det := vad.New(&vadmock.Classifier{Decisions: decisions}, testCfg)
	opts = append([]Option{WithOutputDir(t.TempDir())}, opts...)
	return New(dev, det, opts...)
}

func TestRecord_NoSpeechReturnsEmptyPath(t *testing.T) {
	dev := &audiomock.Device{Frames: frames(0, 20)}
	r := newRecorder(t, dev, []bool{false})

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty for silent stream", path)
	}
}

func TestRecord_CapturesUtteranceAndStopsOnSilence(t *testing.T) {
	// 10 speech frames then silence. With a 90 ms silence threshold the
	// recorder should stop shortly after speech ends.
	dev := &audiomock.Device{Frames: frames(0.4, 40)}
	decisions := make([]bool, 40)
	for i := range 10 {
		decisions[i] = true
	}
	r := newRecorder(t, dev, decisions, WithSilenceDuration(90*time.Millisecond))

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path == "" {
		t.Fatal("expected a WAV path for captured speech")
	}

	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	// Accumulation starts at the third frame (hysteresis entry) and runs
	// until silence has persisted long enough to end the segment and cross
	// the threshold. The exact count depends on the exit hysteresis; it
	// must be well below the full 40-frame stream.
	if len(samples) == 0 || len(samples) >= 40*480 {
		t.Errorf("captured %d samples, want a bounded utterance", len(samples))
	}
}

func TestRecord_LeadingSilenceIsDiscarded(t *testing.T) {
	dev := &audiomock.Device{Frames: frames(0.4, 30)}
	// 5 silent frames, then speech.
	decisions := make([]bool, 30)
	for i := 5; i < 15; i++ {
		decisions[i] = true
	}
	r := newRecorder(t, dev, decisions, WithSilenceDuration(90*time.Millisecond))

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path == "" {
		t.Fatal("expected a WAV path")
	}
	samples, _, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	// The 5 leading silent frames plus the 2 pre-entry speech frames are
	// never accumulated.
	if len(samples) > 23*480 {
		t.Errorf("captured %d samples, leading silence was not discarded", len(samples))
	}
}

func TestRecord_MaxDurationCapsUtterance(t *testing.T) {
	dev := &audiomock.Device{Frames: frames(0.4, 100)}
	decisions := make([]bool, 100)
	for i := range decisions {
		decisions[i] = true
	}
	r := newRecorder(t, dev, decisions, WithMaxDuration(300*time.Millisecond))

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path == "" {
		t.Fatal("expected a WAV path")
	}
	samples, _, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if got := time.Duration(len(samples)) * time.Second / 16000; got > 330*time.Millisecond {
		t.Errorf("utterance duration = %v, want ≤ ~300ms", got)
	}
}

func TestRecord_CancelFinalizesBufferedAudio(t *testing.T) {
	dev := &audiomock.Device{Frames: frames(0.4, 10), BlockWhenEmpty: true}
	decisions := make([]bool, 10)
	for i := range decisions {
		decisions[i] = true
	}
	r := newRecorder(t, dev, decisions, WithSilenceDuration(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	path, err := r.Record(ctx)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path == "" {
		t.Error("cancelled capture should still return buffered audio")
	}
}

func TestRecord_StreamEndBeforeSpeechIsNotAnError(t *testing.T) {
	dev := &audiomock.Device{} // immediate EOF
	r := newRecorder(t, dev, []bool{false})

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path != "" {
		t.Errorf("path = %q, want empty", path)
	}
}

func TestRecord_ResamplesDeviceRate(t *testing.T) {
	// Device captures at 32 kHz; output must be 16 kHz.
	mk := func(n int) []audio.Frame {
		out := make([]audio.Frame, n)
		for i := range out {
			samples := make([]float32, 960)
			for j := range samples {
				samples[j] = 0.4
			}
			out[i] = audio.Frame{Samples: samples, SampleRate: 32000}
		}
		return out
	}
	dev := &audiomock.Device{Frames: mk(20)}
	decisions := make([]bool, 40) // 2 classifier windows per frame
	for i := range 20 {
		decisions[i] = true
	}
	det := vad.New(&vadmock.Classifier{Decisions: decisions}, testCfg)
	r := New(dev, det,
		WithOutputDir(t.TempDir()),
		WithSilenceDuration(90*time.Millisecond),
	)

	path, err := r.Record(context.Background())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if path == "" {
		t.Fatal("expected a WAV path")
	}
	_, rate, err := audio.ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("output rate = %d, want 16000", rate)
	}
}
