package voice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"github.com/easimeng/anglo/pkg/audio"
	"github.com/easimeng/anglo/pkg/provider/tts"
	"github.com/easimeng/anglo/pkg/types"
)

// Speaker turns reply text into played audio. Lookup order: a pre-recorded
// catalog entry matched by text, then one matched by emotion tag, then live
// synthesis through the TTS provider. Callers wanting provider-level failover
// pass a provider that already wraps its fallbacks.
type Speaker struct {
	catalog  *Catalog
	provider tts.Provider
	player   audio.Player
	voice    types.VoiceProfile
	baseDir  string
	rng      *rand.Rand
	logger   *slog.Logger
}

// Option is a functional option for configuring a [Speaker].
type Option func(*Speaker)

// WithCatalog sets the pre-recorded response catalog. Default: [DefaultCatalog].
func WithCatalog(c *Catalog) Option {
	return func(s *Speaker) {
		s.catalog = c
	}
}

// WithCatalogDir sets the directory catalog file paths are resolved against.
func WithCatalogDir(dir string) Option {
	return func(s *Speaker) {
		s.baseDir = dir
	}
}

// WithVoice sets the synthesis voice profile.
func WithVoice(v types.VoiceProfile) Option {
	return func(s *Speaker) {
		s.voice = v
	}
}

// WithRand sets the randomness source for catalog picks.
func WithRand(rng *rand.Rand) Option {
	return func(s *Speaker) {
		s.rng = rng
	}
}

// WithLogger sets the logger for catalog playback warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Speaker) {
		s.logger = logger
	}
}

// NewSpeaker returns a Speaker synthesizing through provider and playing on
// player.
func NewSpeaker(provider tts.Provider, player audio.Player, opts ...Option) *Speaker {
	s := &Speaker{
		catalog:  DefaultCatalog(),
		provider: provider,
		player:   player,
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Voice returns the current synthesis voice profile.
func (s *Speaker) Voice() types.VoiceProfile {
	return s.voice
}

// SetVoice replaces the synthesis voice profile.
func (s *Speaker) SetVoice(v types.VoiceProfile) {
	s.voice = v
}

// Playback sources reported by [Speaker.Speak].
const (
	SourceCatalog   = "catalog"
	SourceEmotion   = "emotion"
	SourceSynthesis = "synthesis"
)

// Speak renders text as audio and plays it, reporting which source produced
// the audio. A catalog recording matching the text (or the emotion tag) is
// preferred; a missing or unreadable recording falls through to live
// synthesis rather than failing the turn.
func (s *Speaker) Speak(ctx context.Context, text string, emotion string) (string, error) {
	source := SourceCatalog
	entry, ok := s.catalog.Match(text)
	if !ok && emotion != "" {
		entry, ok = s.catalog.Emotion(s.rng, emotion)
		source = SourceEmotion
	}
	if ok {
		if err := s.playFile(ctx, entry.File); err == nil {
			return source, nil
		} else {
			s.logger.Warn("catalog playback failed, synthesizing instead",
				"file", entry.File, "error", err)
		}
	}
	if err := s.synthesize(ctx, text); err != nil {
		return "", err
	}
	return SourceSynthesis, nil
}

// playFile plays one catalog recording.
func (s *Speaker) playFile(ctx context.Context, file string) error {
	path := file
	if s.baseDir != "" {
		path = filepath.Join(s.baseDir, file)
	}
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return err
	}
	return s.player.Play(ctx, audio.Float32ToPCM16(samples), audio.Format{
		SampleRate: rate,
		Channels:   1,
	})
}

// synthesize streams text through the TTS provider and plays the produced
// PCM as one utterance.
func (s *Speaker) synthesize(ctx context.Context, text string) error {
	fragments := make(chan string, 1)
	fragments <- text
	close(fragments)

	stream, err := s.provider.SynthesizeStream(ctx, fragments, s.voice)
	if err != nil {
		return fmt.Errorf("voice: synthesize %q: %w", s.provider.Name(), err)
	}

	var pcm []byte
	for chunk := range stream {
		pcm = append(pcm, chunk...)
	}
	if len(pcm) == 0 {
		return fmt.Errorf("voice: synthesize %q: no audio produced", s.provider.Name())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.player.Play(ctx, pcm, audio.Format{
		SampleRate: s.provider.SampleRate(),
		Channels:   1,
	})
}
