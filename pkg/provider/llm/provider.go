// Package llm defines the Provider interface for Large Language Model
// backends.
//
// An LLM provider wraps a remote or local model API (e.g., OpenAI GPT-4o or a
// local Ollama instance) and exposes a uniform interface for the response
// orchestrator to perform completions without coupling to any specific SDK.
//
// Implementations must be safe for concurrent use.
package llm

import (
	"context"
	"errors"

	"github.com/easimeng/anglo/pkg/types"
)

// ErrMalformedResponse is returned (possibly wrapped) by providers when the
// backend replies with a structurally unusable payload, such as a completion
// with no choices. Callers distinguish it from transport failures to decide
// which apology to read to the user.
var ErrMalformedResponse = errors.New("llm: malformed completion payload")

// Usage holds token accounting information returned by the LLM backend.
// All counts are in the model's native token unit and may differ between
// providers for the same textual content.
type Usage struct {
	// PromptTokens is the number of tokens consumed by the input messages
	// and system prompt.
	PromptTokens int

	// CompletionTokens is the number of tokens generated in the response.
	CompletionTokens int

	// TotalTokens is PromptTokens + CompletionTokens. Some providers return
	// it directly rather than computing it from the parts.
	TotalTokens int
}

// CompletionRequest carries everything the LLM needs to produce a response.
// Callers should treat a zero-value request as invalid; at minimum Messages
// must be non-empty.
type CompletionRequest struct {
	// Messages is the ordered conversation history. The last message is
	// typically from the "user" role and drives the response.
	Messages []types.Message

	// SystemPrompt is a high-priority instruction injected before the
	// conversation history. Providers that do not natively support a
	// dedicated system prompt should prepend it as a "system"-role message.
	SystemPrompt string

	// Temperature controls output randomness in the range [0.0, 2.0].
	// A value of 0.0 means use the provider default.
	Temperature float64

	// TopP is the nucleus sampling cutoff in (0.0, 1.0]. Zero means use the
	// provider default.
	TopP float64

	// MaxTokens caps the number of completion tokens the model may generate.
	// Zero means use the provider default.
	MaxTokens int

	// FrequencyPenalty discourages verbatim repetition of tokens already
	// generated, in the range [-2.0, 2.0]. Zero means no penalty.
	FrequencyPenalty float64

	// PresencePenalty discourages reuse of tokens that have appeared at all,
	// in the range [-2.0, 2.0]. Zero means no penalty.
	PresencePenalty float64
}

// CompletionResponse is the full result of a completion request.
type CompletionResponse struct {
	// Content is the full text of the assistant's reply.
	Content string

	// Usage contains token accounting for this request/response pair.
	Usage Usage
}

// Provider is the interface implemented by all LLM backends.
type Provider interface {
	// Complete sends req to the model and waits for the full response.
	//
	// Returns [ErrMalformedResponse] (wrapped) when the backend payload is
	// structurally unusable, or another error if the request fails or ctx
	// is cancelled before the completion arrives.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name identifies the backend (e.g., "openai", "ollama") for logging
	// and error records.
	Name() string
}
