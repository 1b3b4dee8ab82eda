package vad

import (
	"errors"
	"testing"

	providervad "github.com/easimeng/anglo/pkg/provider/vad"
	vadmock "github.com/easimeng/anglo/pkg/provider/vad/mock"
)

// testCfg matches the 480-sample windows used throughout these tests.
var testCfg = providervad.Config{SampleRate: 16000, WindowMs: 30}

// quiet returns a window with negligible energy.
func quiet(n int) []float32 {
	return make([]float32, n)
}

// loud returns a window with mean absolute amplitude well above the gate.
func loud(n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = 0.5
	}
	return s
}

func feed(t *testing.T, d *Detector, decisions []bool) []bool {
	t.Helper()
	out := make([]bool, 0, len(decisions))
	for range decisions {
		out = append(out, d.ProcessAudio(quiet(480)))
	}
	return out
}

func TestDetector_EntersAfterThreeConsecutivePositives(t *testing.T) {
	d := New(&vadmock.Classifier{Decisions: []bool{true, true, true}}, testCfg)

	if d.ProcessAudio(quiet(480)) {
		t.Error("speaking after 1 positive window")
	}
	if d.ProcessAudio(quiet(480)) {
		t.Error("speaking after 2 positive windows")
	}
	if !d.ProcessAudio(quiet(480)) {
		t.Error("not speaking after 3 consecutive positive windows")
	}
	if !d.Speaking() {
		t.Error("Speaking() disagrees with ProcessAudio result")
	}
}

func TestDetector_InterruptedRunDoesNotEnter(t *testing.T) {
	d := New(&vadmock.Classifier{Decisions: []bool{true, true, false, true, true}}, testCfg)

	results := feed(t, d, make([]bool, 5))
	for i, r := range results {
		if r {
			t.Errorf("window %d: entered speaking without 3 consecutive positives", i)
		}
	}
}

func TestDetector_ExitRequiresHistoryAndNegativeRun(t *testing.T) {
	// Enter on 3 positives, then go silent. The decision buffer is trimmed
	// to the entering run, so two more windows are needed to reach the
	// 5-entry history even though both are already negative.
	d := New(&vadmock.Classifier{
		Decisions: []bool{true, true, true, false, false, false},
	}, testCfg)

	results := feed(t, d, make([]bool, 6))
	want := []bool{false, false, true, true, true, false}
	for i := range want {
		if results[i] != want[i] {
			t.Errorf("window %d: speaking = %v, want %v", i, results[i], want[i])
		}
	}
}

func TestDetector_BriefPauseDoesNotEndSegment(t *testing.T) {
	// Two negative windows inside a segment are not enough to exit.
	d := New(&vadmock.Classifier{
		Decisions: []bool{true, true, true, false, false, true, false, false, false},
	}, testCfg)

	results := feed(t, d, make([]bool, 9))
	for i := 2; i < 8; i++ {
		if !results[i] {
			t.Errorf("window %d: segment ended early", i)
		}
	}
	if results[8] {
		t.Error("window 8: segment should have ended after 3 trailing negatives")
	}
}

func TestDetector_ExitClearsBuffer(t *testing.T) {
	d := New(&vadmock.Classifier{
		// enter, exit, then one stray positive: a fresh run of 3 is needed
		// to re-enter.
		Decisions: []bool{true, true, true, false, false, false, true, false, true, true, true},
	}, testCfg)

	results := feed(t, d, make([]bool, 11))
	if results[5] {
		t.Fatal("window 5: expected segment end")
	}
	if results[6] || results[7] || results[8] || results[9] {
		t.Error("re-entered speaking without 3 consecutive positives")
	}
	if !results[10] {
		t.Error("window 10: expected re-entry after fresh positive run")
	}
}

func TestDetector_DegradesToEnergyGateOnce(t *testing.T) {
	boom := errors.New("model exploded")
	mc := &vadmock.Classifier{
		Decisions: []bool{false},
		Errors:    []error{boom},
	}
	d := New(mc, testCfg)

	if d.State() != ClassifierAvailable {
		t.Fatalf("initial state = %v, want available", d.State())
	}

	// The failing call degrades the detector; the loud window still
	// registers as a positive decision via the energy gate.
	d.ProcessAudio(loud(480))
	if d.State() != ClassifierDegraded {
		t.Fatalf("state after classifier error = %v, want degraded", d.State())
	}

	// The classifier is never consulted again.
	d.ProcessAudio(loud(480))
	d.ProcessAudio(loud(480))
	if mc.CallCountClassify != 1 {
		t.Errorf("classifier called %d times after degradation, want 1", mc.CallCountClassify)
	}
	if !d.Speaking() {
		t.Error("energy gate should have entered speaking on 3 loud windows")
	}
}

func TestDetector_EnergyGateThreshold(t *testing.T) {
	d := New(nil, testCfg) // nil classifier starts degraded

	for range 3 {
		d.ProcessAudio(quiet(480))
	}
	if d.Speaking() {
		t.Error("silence should not trigger the energy gate")
	}

	for range 3 {
		d.ProcessAudio(loud(480))
	}
	if !d.Speaking() {
		t.Error("loud audio should trigger the energy gate")
	}
}

func TestDetector_ResetPreservesDegradation(t *testing.T) {
	d := New(&vadmock.Classifier{ClassifyError: errors.New("dead")}, testCfg)

	d.ProcessAudio(loud(480))
	if d.State() != ClassifierDegraded {
		t.Fatal("expected degraded state")
	}

	d.Reset()
	if d.Speaking() {
		t.Error("Reset should clear the speaking flag")
	}
	if d.State() != ClassifierDegraded {
		t.Error("Reset must not resurrect a failed classifier")
	}
}

func TestDetector_ChunksLargeFrames(t *testing.T) {
	mc := &vadmock.Classifier{Decisions: []bool{false, false}}
	d := New(mc, testCfg)

	// A frame spanning two classifier windows yields one classifier call
	// per window when no window is speech.
	d.ProcessAudio(quiet(960))
	if mc.CallCountClassify != 2 {
		t.Errorf("classifier called %d times for a 2-window frame, want 2", mc.CallCountClassify)
	}
	if len(mc.RecordedWindows) > 0 && mc.RecordedWindows[0] != 480 {
		t.Errorf("chunk size = %d samples, want 480", mc.RecordedWindows[0])
	}
}

func TestDetector_ShortCircuitsOnFirstSpeechChunk(t *testing.T) {
	mc := &vadmock.Classifier{Decisions: []bool{true}}
	d := New(mc, testCfg)

	d.ProcessAudio(quiet(1440))
	if mc.CallCountClassify != 1 {
		t.Errorf("classifier called %d times, want 1 (short-circuit on speech)", mc.CallCountClassify)
	}
}
