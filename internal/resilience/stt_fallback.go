package resilience

import (
	"context"
	"errors"

	"github.com/easimeng/anglo/pkg/provider/stt"
)

// STTFallback implements [stt.Provider] with automatic failover across
// multiple transcription backends. Each backend has its own circuit breaker.
type STTFallback struct {
	group *FallbackGroup[stt.Provider]
}

// Compile-time interface assertion.
var _ stt.Provider = (*STTFallback)(nil)

// NewSTTFallback creates an [STTFallback] with primary as the preferred
// backend.
func NewSTTFallback(primary stt.Provider, primaryName string, cfg FallbackConfig) *STTFallback {
	return &STTFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional transcription provider as a fallback.
func (f *STTFallback) AddFallback(name string, provider stt.Provider) {
	f.group.AddFallback(name, provider)
}

// Transcribe runs the recording at audioPath through the first healthy
// provider. An empty transcript with a nil error is a valid "no speech"
// outcome and does not trigger failover.
func (f *STTFallback) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return ExecuteWithResult(f.group, func(p stt.Provider) (string, error) {
		return p.Transcribe(ctx, audioPath)
	})
}

// Name returns the primary provider's name.
func (f *STTFallback) Name() string {
	return f.group.entries[0].value.Name()
}

// Close closes every registered backend and joins their errors.
func (f *STTFallback) Close() error {
	var errs []error
	f.group.Each(func(name string, p stt.Provider) {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
