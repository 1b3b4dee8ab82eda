// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/easimeng/anglo/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// AudioPath is the path passed to Transcribe.
	AudioPath string
}

// Provider is a mock implementation of stt.Provider.
// Zero values cause methods to return zero values and nil errors.
type Provider struct {
	mu sync.Mutex

	// TranscribeResult is returned by Transcribe.
	TranscribeResult string

	// TranscribeResults, when non-empty, is served one per call in order
	// and takes precedence over TranscribeResult. After exhaustion the last
	// entry is repeated.
	TranscribeResults []string

	// TranscribeErr, if non-nil, is returned as the error from Transcribe.
	TranscribeErr error

	// NameResult is returned by Name. Defaults to "mock".
	NameResult string

	// CloseErr is returned by Close.
	CloseErr error

	// TranscribeCalls records every invocation of Transcribe, in order.
	TranscribeCalls []TranscribeCall

	// CallCountClose records how many times Close was called.
	CallCountClose int

	next int
}

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Ctx: ctx, AudioPath: audioPath})

	if p.TranscribeErr != nil {
		return "", p.TranscribeErr
	}
	if len(p.TranscribeResults) > 0 {
		i := min(p.next, len(p.TranscribeResults)-1)
		p.next++
		return p.TranscribeResults[i], nil
	}
	return p.TranscribeResult, nil
}

// Name implements stt.Provider.
func (p *Provider) Name() string {
	if p.NameResult == "" {
		return "mock"
	}
	return p.NameResult
}

// Close implements stt.Provider.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CallCountClose++
	return p.CloseErr
}

var _ stt.Provider = (*Provider)(nil)
