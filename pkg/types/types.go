// Package types holds the data types shared across Anglo's provider
// interfaces and pipeline stages.
//
// Types here are plain data carriers with no behaviour beyond trivial
// helpers. They live in their own package so that provider packages under
// pkg/provider and pipeline packages under internal can exchange values
// without importing each other.
package types

import "time"

// Conversation roles. These match the wire-level role strings used by chat
// completion APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation history.
type Message struct {
	// Role is one of [RoleSystem], [RoleUser], or [RoleAssistant].
	Role string `json:"role"`

	// Content is the text content of the message.
	Content string `json:"content"`

	// Timestamp marks when the message was added to the history. The zero
	// value means the message carries no timing information (e.g., the
	// persona system message).
	Timestamp time.Time `json:"timestamp,omitzero"`

	// Emotion records the mood the message was produced under. Optional.
	Emotion Mood `json:"emotion,omitempty"`
}

// Mood labels the emotional register a reply should be delivered in. The
// humanizer uses it to pick filler words and emotion glyphs.
type Mood string

const (
	MoodNeutral   Mood = "neutral"
	MoodHappy     Mood = "happy"
	MoodWarm      Mood = "warm"
	MoodConcerned Mood = "concerned"
	MoodSad       Mood = "sad"
	MoodConfused  Mood = "confused"
	MoodThinking  Mood = "thinking"
)

// VoiceProfile describes a TTS voice configuration.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier.
	ID string

	// Name is the human-readable voice name (e.g., "Adam").
	Name string

	// Provider identifies which TTS provider this voice belongs to.
	Provider string

	// Stability controls synthesis consistency (0.0–1.0, provider default
	// when zero).
	Stability float64

	// SimilarityBoost controls how closely output tracks the reference
	// voice (0.0–1.0, provider default when zero).
	SimilarityBoost float64

	// Metadata holds provider-specific voice attributes (gender, age,
	// accent, etc.).
	Metadata map[string]string
}
