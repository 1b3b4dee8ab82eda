// Package conversation maintains Anglo's dialogue state: the bounded message
// history, the persona system prompt, the current mood, and remembered user
// facts such as the name. It also provides the humanizer that roughens
// assistant replies and the lexical sentiment estimate that drives the mood.
//
// History persistence is a plain JSON file of the non-system messages.
// Persistence failures are logged and never interrupt a conversation turn.
package conversation

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/easimeng/anglo/pkg/types"
)

const (
	// defaultMaxHistory bounds the history at this many user/assistant
	// pairs, plus the leading system message.
	defaultMaxHistory = 15

	// absenceThreshold is the idle gap after which the next exchange opens
	// on a warm mood.
	absenceThreshold = time.Hour

	namePrefix = "my name is "
)

// Manager tracks a single conversation. It is safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	maxHistory int
	history    []types.Message
	persona    Persona
	humanizer  *Humanizer
	logger     *slog.Logger
	now        func() time.Time

	historyFile string

	lastInteraction time.Time
	userName        string
	mood            types.Mood
	topics          []string
	topicSeen       map[string]struct{}
}

// Option is a functional option for configuring a [Manager].
type Option func(*Manager)

// WithMaxHistory bounds the history to n user/assistant pairs. Values below 1
// are ignored.
func WithMaxHistory(n int) Option {
	return func(m *Manager) {
		if n >= 1 {
			m.maxHistory = n
		}
	}
}

// WithHistoryFile enables history persistence at path. Without it the
// conversation lives only in memory.
func WithHistoryFile(path string) Option {
	return func(m *Manager) {
		m.historyFile = path
	}
}

// WithPersona overrides the assistant identity in the system prompt.
func WithPersona(p Persona) Option {
	return func(m *Manager) {
		m.persona = p
	}
}

// WithHumanizer overrides the reply humanizer.
func WithHumanizer(h *Humanizer) Option {
	return func(m *Manager) {
		m.humanizer = h
	}
}

// WithLogger sets the logger for persistence warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithClock overrides the time source. Used by tests to simulate idle gaps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager returns a Manager primed with the persona system message. When a
// history file is configured and exists, the most recent messages are
// restored from it; a corrupt file is logged and skipped.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		maxHistory: defaultMaxHistory,
		persona:    DefaultPersona,
		logger:     slog.Default(),
		now:        time.Now,
		mood:       types.MoodNeutral,
		userName:   "User",
		topicSeen:  make(map[string]struct{}),
	}
	for _, o := range opts {
		o(m)
	}
	if m.humanizer == nil {
		m.humanizer = NewHumanizer(nil)
	}

	m.history = []types.Message{{Role: types.RoleSystem, Content: m.persona.SystemPrompt()}}
	m.lastInteraction = m.now()

	if m.historyFile != "" {
		if err := m.restore(); err != nil {
			m.logger.Warn("could not load conversation history", "path", m.historyFile, "error", err)
		}
	}
	return m
}

// restore appends the most recent persisted messages to the freshly
// initialised history.
func (m *Manager) restore() error {
	data, err := os.ReadFile(m.historyFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("conversation: read history: %w", err)
	}

	var saved []types.Message
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("conversation: decode history: %w", err)
	}
	if n := m.maxHistory * 2; len(saved) > n {
		saved = saved[len(saved)-n:]
	}
	m.history = append(m.history, saved...)
	return nil
}

// AddMessage appends a message to the history. Blank content is ignored.
// Assistant messages are humanized unless they still carry the raw
// [THOUGHTS: marker. An empty emotion records the current mood.
func (m *Manager) AddMessage(role, content string, emotion types.Mood) {
	if strings.TrimSpace(content) == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if role == types.RoleAssistant && !strings.HasPrefix(content, "[THOUGHTS:") {
		content = m.humanizer.Humanize(content, m.mood)
	}
	if emotion == "" {
		emotion = m.mood
	}

	m.history = append(m.history, types.Message{
		Role:      role,
		Content:   content,
		Timestamp: m.now(),
		Emotion:   emotion,
	})
	m.updateMeta(role, content)

	if limit := m.maxHistory*2 + 1; len(m.history) > limit {
		trimmed := make([]types.Message, 0, limit)
		trimmed = append(trimmed, m.history[0])
		trimmed = append(trimmed, m.history[len(m.history)-m.maxHistory*2:]...)
		m.history = trimmed
	}
}

// updateMeta refreshes the interaction clock, switches to a warm mood after a
// long absence, and picks up the user's name when they introduce themselves.
// Callers hold m.mu.
func (m *Manager) updateMeta(role, content string) {
	now := m.now()
	gap := now.Sub(m.lastInteraction)
	m.lastInteraction = now

	if gap > absenceThreshold {
		m.mood = types.MoodWarm
	}

	if role != types.RoleUser {
		return
	}
	lower := strings.ToLower(content)
	idx := strings.Index(lower, namePrefix)
	if idx < 0 {
		return
	}
	rest := content[idx+len(namePrefix):]
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	name := strings.TrimRight(fields[0], ".,!?")
	if len(name) > 1 {
		m.userName = name
	}
}

// Mood returns the current conversation mood.
func (m *Manager) Mood() types.Mood {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mood
}

// SetMood replaces the current conversation mood.
func (m *Manager) SetMood(mood types.Mood) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mood = mood
}

// SetMaxHistory changes the history bound to n user/assistant pairs and
// trims the current history if it now exceeds the bound. Values below 1 are
// ignored.
func (m *Manager) SetMaxHistory(n int) {
	if n < 1 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxHistory = n
	if limit := m.maxHistory*2 + 1; len(m.history) > limit {
		trimmed := make([]types.Message, 0, limit)
		trimmed = append(trimmed, m.history[0])
		trimmed = append(trimmed, m.history[len(m.history)-m.maxHistory*2:]...)
		m.history = trimmed
	}
}

// Farewell returns a sign-off line for the end of a session.
func (m *Manager) Farewell() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.humanizer.ClosingPhrase()
}

// UserName returns the remembered user name, "User" until the user
// introduces themselves.
func (m *Manager) UserName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userName
}

// AddTopic records a conversation topic. Duplicates are ignored; insertion
// order is preserved.
func (m *Manager) AddTopic(topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topicSeen[topic]; ok {
		return
	}
	m.topicSeen[topic] = struct{}{}
	m.topics = append(m.topics, topic)
}

// Topics returns the recorded topics in insertion order.
func (m *Manager) Topics() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.topics))
	copy(out, m.topics)
	return out
}

// Len reports the history length including the system message.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.history)
}

// Recent returns a copy of the last n history messages (system message
// included when it falls inside the window).
func (m *Manager) Recent(n int) []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.history) {
		n = len(m.history)
	}
	out := make([]types.Message, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}

// Last returns the most recent message, or false when only the system
// message is present.
func (m *Manager) Last() (types.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) <= 1 {
		return types.Message{}, false
	}
	return m.history[len(m.history)-1], true
}

// Summary renders the non-system history as "Role: content" lines.
func (m *Manager) Summary() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	for i, msg := range m.history[1:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(capitalizeFirst(msg.Role))
		b.WriteString(": ")
		b.WriteString(msg.Content)
	}
	return b.String()
}

// Save writes the non-system history to the configured file. Without a
// configured file it is a no-op. The returned error is informational;
// callers are expected to log it rather than abort the turn.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.historyFile == "" {
		return nil
	}

	data, err := json.MarshalIndent(m.history[1:], "", "  ")
	if err != nil {
		return fmt.Errorf("conversation: encode history: %w", err)
	}
	if err := os.WriteFile(m.historyFile, data, 0o644); err != nil {
		return fmt.Errorf("conversation: write history: %w", err)
	}
	return nil
}

// Reset drops the history back to the persona system message and removes the
// persisted file. A failed removal is logged, not returned.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = m.history[:1]
	m.topics = nil
	m.topicSeen = make(map[string]struct{})
	m.mood = types.MoodNeutral
	m.userName = "User"

	if m.historyFile == "" {
		return
	}
	if err := os.Remove(m.historyFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn("could not delete conversation file", "path", m.historyFile, "error", err)
	}
}
