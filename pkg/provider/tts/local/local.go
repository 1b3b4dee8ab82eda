// Package local provides an offline TTS provider backed by the espeak-ng
// command-line synthesiser. It exists so speech output keeps working when the
// network or the ElevenLabs API is unavailable; quality is robotic but
// latency is low and there are no external dependencies beyond the binary.
package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync"

	"github.com/easimeng/anglo/pkg/audio"
	"github.com/easimeng/anglo/pkg/provider/tts"
	"github.com/easimeng/anglo/pkg/types"
)

// Compile-time assertion that Engine implements tts.Provider.
var _ tts.Provider = (*Engine)(nil)

const (
	defaultBinary = "espeak-ng"
	defaultVoice  = "en-us"

	// outputRate is the rate synthesised PCM is resampled to before being
	// emitted, matching the pipeline-native rate.
	outputRate = 16000
)

// Engine implements tts.Provider by invoking espeak-ng per text fragment and
// decoding the WAV it writes to stdout.
type Engine struct {
	binary string
	voice  string
	speed  int // words per minute, 0 = espeak default

	mu sync.Mutex
}

// Option is a functional option for configuring the Engine.
type Option func(*Engine)

// WithBinary overrides the synthesiser binary name or path.
func WithBinary(path string) Option {
	return func(e *Engine) {
		e.binary = path
	}
}

// WithVoice sets the espeak voice identifier (e.g., "en-us", "de").
func WithVoice(voice string) Option {
	return func(e *Engine) {
		e.voice = voice
	}
}

// WithSpeed sets the speaking rate in words per minute.
func WithSpeed(wpm int) Option {
	return func(e *Engine) {
		e.speed = wpm
	}
}

// New constructs an Engine, verifying that the synthesiser binary is on PATH.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		binary: defaultBinary,
		voice:  defaultVoice,
	}
	for _, o := range opts {
		o(e)
	}
	if _, err := exec.LookPath(e.binary); err != nil {
		return nil, fmt.Errorf("local: synthesiser binary %q not found: %w", e.binary, err)
	}
	return e, nil
}

// SynthesizeStream implements tts.Provider. Each text fragment is synthesised
// as one subprocess invocation; the resulting PCM chunks are emitted in order.
func (e *Engine) SynthesizeStream(ctx context.Context, text <-chan string, voice types.VoiceProfile) (<-chan []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("local: context already cancelled: %w", err)
	}

	v := e.voice
	if voice.ID != "" && voice.Provider == "local" {
		v = voice.ID
	}

	audioCh := make(chan []byte, 16)
	go func() {
		defer close(audioCh)
		for {
			select {
			case fragment, ok := <-text:
				if !ok {
					return
				}
				if fragment == "" {
					continue
				}
				pcm, err := e.synthesize(ctx, v, fragment)
				if err != nil || len(pcm) == 0 {
					// A failed fragment ends the stream early; the caller
					// distinguishes cancellation via ctx.Err().
					if ctx.Err() == nil && err != nil {
						continue
					}
					return
				}
				select {
				case audioCh <- pcm:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return audioCh, nil
}

// synthesize runs one espeak invocation and returns 16 kHz mono PCM.
func (e *Engine) synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	args := []string{"--stdout", "-v", voice}
	if e.speed > 0 {
		args = append(args, "-s", fmt.Sprint(e.speed))
	}
	args = append(args, text)

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("local: %s: %w", e.binary, err)
	}

	samples, rate, err := audio.DecodeWAV(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("local: decode synthesiser output: %w", err)
	}
	if rate != outputRate {
		samples = audio.ResampleMono(samples, rate, outputRate)
	}
	return audio.Float32ToPCM16(samples), nil
}

// ListVoices implements tts.Provider. The catalogue is static; espeak voices
// are language presets, not named speakers.
func (e *Engine) ListVoices(_ context.Context) ([]types.VoiceProfile, error) {
	ids := []string{"en-us", "en-gb", "de", "fr", "es"}
	profiles := make([]types.VoiceProfile, 0, len(ids))
	for _, id := range ids {
		profiles = append(profiles, types.VoiceProfile{
			ID:       id,
			Name:     id,
			Provider: "local",
		})
	}
	return profiles, nil
}

// CloneVoice implements tts.Provider. espeak has no cloning capability.
func (e *Engine) CloneVoice(_ context.Context, _ string, _ [][]byte) (*types.VoiceProfile, error) {
	return nil, errors.New("local: voice cloning is not supported")
}

// SampleRate implements tts.Provider.
func (e *Engine) SampleRate() int {
	return outputRate
}

// Name implements tts.Provider.
func (e *Engine) Name() string {
	return "local"
}
