package voice

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/easimeng/anglo/pkg/audio"
	audiomock "github.com/easimeng/anglo/pkg/audio/mock"
	ttsmock "github.com/easimeng/anglo/pkg/provider/tts/mock"
)

// writeTestWAV drops a short mono recording into dir and returns a catalog
// referencing it.
func writeTestWAV(t *testing.T, dir, file string) {
	t.Helper()
	samples := make([]float32, 160)
	for i := range samples {
		samples[i] = 0.25
	}
	if err := audio.WriteWAV(filepath.Join(dir, file), samples, audio.DefaultSampleRate); err != nil {
		t.Fatalf("writing test wav: %v", err)
	}
}

func TestSpeak_PlaysCatalogRecording(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestWAV(t, dir, "hello.wav")

	catalog := NewCatalog([]Category{
		{Name: "greetings", Entries: []Entry{{File: "hello.wav", Text: "Hello."}}},
	}, nil)

	provider := &ttsmock.Provider{Chunks: [][]byte{{0xAA}}}
	player := &audiomock.Player{}
	s := NewSpeaker(provider, player,
		WithCatalog(catalog),
		WithCatalogDir(dir),
		WithRand(rand.New(rand.NewSource(1))),
	)

	source, err := s.Speak(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Speak() error: %v", err)
	}
	if source != SourceCatalog {
		t.Errorf("source = %q, want %q", source, SourceCatalog)
	}
	if len(player.Played) != 1 {
		t.Fatalf("played %d buffers, want 1", len(player.Played))
	}
	if len(provider.SynthesizeCalls) != 0 {
		t.Error("catalog hit still invoked the TTS provider")
	}
	if got := player.Formats[0].SampleRate; got != audio.DefaultSampleRate {
		t.Errorf("played sample rate = %d, want %d", got, audio.DefaultSampleRate)
	}
}

func TestSpeak_EmotionLookupWhenTextMisses(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestWAV(t, dir, "calm.wav")

	catalog := NewCatalog(nil, []Category{
		{Name: "calm", Entries: []Entry{{File: "calm.wav", Text: "Everything is under control."}}},
	})

	provider := &ttsmock.Provider{}
	player := &audiomock.Player{}
	s := NewSpeaker(provider, player,
		WithCatalog(catalog),
		WithCatalogDir(dir),
		WithRand(rand.New(rand.NewSource(1))),
	)

	source, err := s.Speak(context.Background(), "something entirely new", "calm")
	if err != nil {
		t.Fatalf("Speak() error: %v", err)
	}
	if source != SourceEmotion {
		t.Errorf("source = %q, want %q", source, SourceEmotion)
	}
	if len(player.Played) != 1 || len(provider.SynthesizeCalls) != 0 {
		t.Errorf("played=%d synth=%d, want catalog playback only",
			len(player.Played), len(provider.SynthesizeCalls))
	}
}

func TestSpeak_SynthesizesWhenNoCatalogMatch(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{Chunks: [][]byte{{0x01, 0x02}, {0x03}}}
	player := &audiomock.Player{}
	s := NewSpeaker(provider, player,
		WithCatalog(NewCatalog(nil, nil)),
		WithRand(rand.New(rand.NewSource(1))),
	)

	source, err := s.Speak(context.Background(), "tell me about microkernels", "")
	if err != nil {
		t.Fatalf("Speak() error: %v", err)
	}
	if source != SourceSynthesis {
		t.Errorf("source = %q, want %q", source, SourceSynthesis)
	}
	if len(provider.SynthesizeCalls) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.SynthesizeCalls))
	}
	texts := provider.SynthesizeCalls[0].Texts
	if len(texts) != 1 || texts[0] != "tell me about microkernels" {
		t.Errorf("synthesized fragments = %v", texts)
	}
	if len(player.Played) != 1 || !bytes.Equal(player.Played[0], []byte{0x01, 0x02, 0x03}) {
		t.Errorf("played = %v, want concatenated chunks", player.Played)
	}
	if got := player.Formats[0].SampleRate; got != provider.SampleRate() {
		t.Errorf("played sample rate = %d, want provider rate %d", got, provider.SampleRate())
	}
}

func TestSpeak_MissingRecordingFallsBackToSynthesis(t *testing.T) {
	t.Parallel()

	catalog := NewCatalog([]Category{
		{Name: "greetings", Entries: []Entry{{File: "does-not-exist.wav", Text: "Hello."}}},
	}, nil)

	provider := &ttsmock.Provider{Chunks: [][]byte{{0x0F}}}
	player := &audiomock.Player{}
	s := NewSpeaker(provider, player,
		WithCatalog(catalog),
		WithCatalogDir(t.TempDir()),
		WithRand(rand.New(rand.NewSource(1))),
	)

	source, err := s.Speak(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Speak() error: %v", err)
	}
	if source != SourceSynthesis {
		t.Errorf("source = %q, want %q", source, SourceSynthesis)
	}
	if len(provider.SynthesizeCalls) != 1 {
		t.Errorf("provider called %d times, want 1 (fallback)", len(provider.SynthesizeCalls))
	}
}

func TestSpeak_SynthesisFailureSurfaces(t *testing.T) {
	t.Parallel()

	provider := &ttsmock.Provider{SynthesizeErr: context.DeadlineExceeded}
	player := &audiomock.Player{}
	s := NewSpeaker(provider, player, WithCatalog(NewCatalog(nil, nil)))

	if _, err := s.Speak(context.Background(), "novel text", ""); err == nil {
		t.Error("Speak() returned nil, want synthesis error")
	}
	if len(player.Played) != 0 {
		t.Error("audio was played despite synthesis failure")
	}
}
