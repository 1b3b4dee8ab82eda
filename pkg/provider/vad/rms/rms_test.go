package rms

import (
	"testing"

	"github.com/easimeng/anglo/pkg/provider/vad"
)

func testConfig() vad.Config {
	return vad.Config{SampleRate: 16000, WindowMs: 30}
}

func window(cfg vad.Config, level float32) []float32 {
	s := make([]float32, cfg.WindowSamples())
	for i := range s {
		if i%2 == 0 {
			s[i] = level
		} else {
			s[i] = -level
		}
	}
	return s
}

func TestNew_RejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  vad.Config
	}{
		{"zero sample rate", vad.Config{WindowMs: 30}},
		{"bad window", vad.Config{SampleRate: 16000, WindowMs: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestClassify_WrongWindowSize(t *testing.T) {
	c, err := New(testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Classify(make([]float32, 10)); err == nil {
		t.Error("expected error for wrong window size")
	}
}

func TestClassify_SpeechOverQuietFloor(t *testing.T) {
	cfg := testConfig()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// First window primes the noise floor and is never speech.
	got, err := c.Classify(window(cfg, 0.001))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got {
		t.Error("priming window should not be speech")
	}

	// A loud window well above the floor is speech.
	got, err = c.Classify(window(cfg, 0.3))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !got {
		t.Error("loud window over quiet floor should be speech")
	}

	// Near-silence stays silence.
	got, err = c.Classify(window(cfg, 0.001))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got {
		t.Error("quiet window should not be speech")
	}
}

func TestClassify_BelowMinLevelNeverSpeech(t *testing.T) {
	cfg := testConfig()
	c, err := New(cfg, WithMinLevel(0.05))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	c.Classify(window(cfg, 0.0001)) // prime

	got, err := c.Classify(window(cfg, 0.01))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if got {
		t.Error("window below absolute minimum should never be speech")
	}
}

func TestClassify_AfterCloseFails(t *testing.T) {
	cfg := testConfig()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := c.Classify(window(cfg, 0.3)); err == nil {
		t.Error("expected error after Close")
	}
}
