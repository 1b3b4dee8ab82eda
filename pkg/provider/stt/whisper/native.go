// This file contains the Native provider implementation backed by the
// whisper.cpp CGO bindings. The whisper.cpp static library (libwhisper.a)
// and headers (whisper.h) must be available at link time via LIBRARY_PATH
// and C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/easimeng/anglo/pkg/audio"
	"github.com/easimeng/anglo/pkg/provider/stt"
)

// Compile-time assertion that Native satisfies stt.Provider.
var _ stt.Provider = (*Native)(nil)

// whisperSampleRate is the sample rate whisper.cpp models are trained on.
const whisperSampleRate = 16000

// Native implements stt.Provider using whisper.cpp Go bindings (CGO),
// eliminating network overhead entirely. The model is loaded once at startup
// and shared across all transcriptions.
type Native struct {
	model    whisperlib.Model
	language string

	// Inference contexts are not thread-safe; serialise them.
	mu     sync.Mutex
	closed bool
}

// NativeOption is a functional option for configuring a Native provider.
type NativeOption func(*Native)

// WithNativeLanguage sets the BCP-47 language code for transcription
// (e.g., "en", "de", "fr"). Defaults to "en".
func WithNativeLanguage(lang string) NativeOption {
	return func(p *Native) { p.language = lang }
}

// NewNative creates a Native provider that loads the whisper.cpp model from
// the given file path. The caller must call Close when the provider is no
// longer needed.
func NewNative(modelPath string, opts ...NativeOption) (*Native, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	p := &Native{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Transcribe implements stt.Provider. The WAV file is decoded, resampled to
// 16 kHz if needed, and run through a fresh whisper context.
func (p *Native) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("whisper: context already cancelled: %w", err)
	}

	samples, rate, err := audio.ReadWAV(audioPath)
	if err != nil {
		return "", fmt.Errorf("whisper: decode %q: %w", audioPath, err)
	}
	if rate != whisperSampleRate {
		samples = audio.ResampleMono(samples, rate, whisperSampleRate)
	}
	if len(samples) == 0 {
		return "", nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return "", errors.New("whisper: provider is closed")
	}

	wctx, err := p.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(p.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", p.language, "error", err)
	}

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " "), nil
}

// Name implements stt.Provider.
func (p *Native) Name() string {
	return "whisper-native"
}

// Close releases the whisper model. Safe to call more than once.
func (p *Native) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.model != nil {
		return p.model.Close()
	}
	return nil
}
