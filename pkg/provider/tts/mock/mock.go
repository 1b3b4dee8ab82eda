// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/easimeng/anglo/pkg/provider/tts"
	"github.com/easimeng/anglo/pkg/types"
)

// SynthesizeCall records a single invocation of SynthesizeStream.
type SynthesizeCall struct {
	// Voice is the profile passed to SynthesizeStream.
	Voice types.VoiceProfile
	// Texts holds every fragment drained from the text channel.
	Texts []string
}

// Provider is a mock implementation of tts.Provider.
// Zero values cause methods to return zero values and nil errors.
type Provider struct {
	mu sync.Mutex

	// Chunks is the sequence of PCM buffers emitted on the audio channel
	// returned by SynthesizeStream, after the text channel is drained.
	Chunks [][]byte

	// SynthesizeErr, if non-nil, is returned by SynthesizeStream instead of
	// starting a stream.
	SynthesizeErr error

	// Voices is returned by ListVoices.
	Voices []types.VoiceProfile

	// ListVoicesErr, if non-nil, is returned by ListVoices.
	ListVoicesErr error

	// CloneResult is returned by CloneVoice.
	CloneResult *types.VoiceProfile

	// CloneErr, if non-nil, is returned by CloneVoice.
	CloneErr error

	// SampleRateResult is returned by SampleRate. Defaults to 16000.
	SampleRateResult int

	// NameResult is returned by Name. Defaults to "mock".
	NameResult string

	// SynthesizeCalls records every invocation of SynthesizeStream.
	SynthesizeCalls []SynthesizeCall

	// CloneCalls records the name passed to each CloneVoice invocation.
	CloneCalls []string
}

// SynthesizeStream implements tts.Provider. It drains the text channel,
// records the fragments, then emits the configured Chunks and closes the
// audio channel.
func (p *Provider) SynthesizeStream(ctx context.Context, text <-chan string, voice types.VoiceProfile) (<-chan []byte, error) {
	p.mu.Lock()
	if p.SynthesizeErr != nil {
		defer p.mu.Unlock()
		return nil, p.SynthesizeErr
	}
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Voice: voice})
	idx := len(p.SynthesizeCalls) - 1
	chunks := p.Chunks
	p.mu.Unlock()

	audioCh := make(chan []byte, len(chunks)+1)
	go func() {
		defer close(audioCh)
		for {
			select {
			case fragment, ok := <-text:
				if !ok {
					for _, c := range chunks {
						select {
						case audioCh <- c:
						case <-ctx.Done():
							return
						}
					}
					return
				}
				p.mu.Lock()
				p.SynthesizeCalls[idx].Texts = append(p.SynthesizeCalls[idx].Texts, fragment)
				p.mu.Unlock()
			case <-ctx.Done():
				return
			}
		}
	}()
	return audioCh, nil
}

// ListVoices implements tts.Provider.
func (p *Provider) ListVoices(_ context.Context) ([]types.VoiceProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ListVoicesErr != nil {
		return nil, p.ListVoicesErr
	}
	return p.Voices, nil
}

// CloneVoice implements tts.Provider.
func (p *Provider) CloneVoice(_ context.Context, name string, _ [][]byte) (*types.VoiceProfile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CloneCalls = append(p.CloneCalls, name)
	if p.CloneErr != nil {
		return nil, p.CloneErr
	}
	return p.CloneResult, nil
}

// SampleRate implements tts.Provider.
func (p *Provider) SampleRate() int {
	if p.SampleRateResult == 0 {
		return 16000
	}
	return p.SampleRateResult
}

// Name implements tts.Provider.
func (p *Provider) Name() string {
	if p.NameResult == "" {
		return "mock"
	}
	return p.NameResult
}

var _ tts.Provider = (*Provider)(nil)
