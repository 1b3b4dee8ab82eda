// Package orchestrator turns a transcribed user utterance into Anglo's
// spoken reply. It derives the conversation mood, assembles the outbound
// prompt (context block, personality instructions, few-shot examples, recent
// history), calls the completion provider, separates the model's internal
// monologue from the visible reply, and records both sides in the
// conversation history.
//
// Respond fails closed: every failure path produces a humanized apology
// string instead of an error, so the voice loop always has something to say.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/easimeng/anglo/internal/conversation"
	"github.com/easimeng/anglo/pkg/provider/llm"
	"github.com/easimeng/anglo/pkg/types"
)

// Sampling configuration for reply completions. Tuned for short, varied
// spoken answers rather than long prose.
const (
	maxTokens        = 200
	temperature      = 0.8
	topP             = 0.95
	frequencyPenalty = 0.5
	presencePenalty  = 0.6
)

const (
	thoughtsMarker = "[THOUGHTS:"
	responseMarker = "[RESPONSE:"

	// topicPrefixLen is how much of a reply is kept as a topic fingerprint.
	topicPrefixLen = 30

	// topicsContextLimit caps the joined topic list inside the context
	// block.
	topicsContextLimit = 100

	// minHistoryForTopics skips topic recording during the very first
	// exchanges.
	minHistoryForTopics = 3

	timestampLayout   = "2006-01-02 15:04:05"
	contextTimeLayout = "Monday, January 02, 03:04 PM"
)

// Failure categories for the error log.
const (
	categoryUpstream     = "API Error"
	categoryMalformed    = "JSON Decode Error"
	categoryInvalidValue = "Value Error"
)

const personalityInstructions = `[PERSONALITY INSTRUCTIONS]
- Speak in a calm, confident, and professional manner
- Use simple, clear English with a neutral Ghanaian/African English accent
- Be helpful, respectful, and patient
- Explain technical concepts step-by-step
- If unsure, say you don't know rather than guessing
- Keep responses concise but complete
- Use examples when helpful
- Maintain a friendly but professional tone`

// Orchestrator drives one conversation turn against a completion provider.
type Orchestrator struct {
	provider  llm.Provider
	conv      *conversation.Manager
	humanizer *conversation.Humanizer
	logger    *slog.Logger
	now       func() time.Time

	thoughtLogPath string
	errorLogPath   string
}

// Option is a functional option for configuring an [Orchestrator].
type Option func(*Orchestrator)

// WithLogger sets the logger for warnings and side-channel failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithHumanizer overrides the humanizer used for apology replies.
func WithHumanizer(h *conversation.Humanizer) Option {
	return func(o *Orchestrator) {
		o.humanizer = h
	}
}

// WithThoughtLog appends the model's internal monologue segments to path.
// Without it thoughts are only logged at debug level.
func WithThoughtLog(path string) Option {
	return func(o *Orchestrator) {
		o.thoughtLogPath = path
	}
}

// WithErrorLog appends structured failure records to path.
func WithErrorLog(path string) Option {
	return func(o *Orchestrator) {
		o.errorLogPath = path
	}
}

// WithClock overrides the time source used in prompts and log records.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New returns an Orchestrator speaking through provider and recording into
// conv.
func New(provider llm.Provider, conv *conversation.Manager, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: provider,
		conv:     conv,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.humanizer == nil {
		o.humanizer = conversation.NewHumanizer(nil)
	}
	return o
}

// Respond produces Anglo's reply to userText. It never returns an error:
// upstream failures, malformed payloads, empty replies and panics all
// collapse into category-specific humanized apologies, each leaving a record
// in the error log.
func (o *Orchestrator) Respond(ctx context.Context, userText string) (reply string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("unexpected failure while responding", "panic", r)
			msg := fmt.Sprintf("Hmm, something unexpected happened (%T). %s Let's try that again.",
				r, o.humanizer.Glyph(types.MoodThinking))
			o.recordError(fmt.Sprintf("%T", r), fmt.Sprint(r))
			reply = o.humanizer.Humanize(msg, types.MoodThinking)
		}
	}()

	mood := conversation.AnalyzeSentiment(userText)
	o.conv.SetMood(mood)
	o.conv.AddMessage(types.RoleUser, userText, "")

	resp, err := o.provider.Complete(ctx, llm.CompletionRequest{
		Messages:         o.buildMessages(),
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		TopP:             topP,
		FrequencyPenalty: frequencyPenalty,
		PresencePenalty:  presencePenalty,
	})
	if err != nil {
		if errors.Is(err, llm.ErrMalformedResponse) {
			return o.apologize(categoryMalformed, err,
				"I had trouble understanding the response. %s Could you rephrase that?",
				types.MoodConfused, types.MoodConfused)
		}
		return o.apologize(categoryUpstream, err,
			"I'm having trouble connecting to the AI service. %s Let's try again in a moment.",
			types.MoodSad, types.MoodConcerned)
	}

	var raw string
	if resp != nil {
		raw = resp.Content
	}
	if strings.TrimSpace(raw) == "" {
		return o.apologize(categoryInvalidValue, errors.New("empty completion text"),
			"I received an unexpected response format. %s Let me try that again.",
			types.MoodConfused, types.MoodConfused)
	}

	visible := o.extractVisible(raw)

	if o.conv.Len() > minHistoryForTopics {
		o.conv.AddTopic(strings.TrimSpace(truncateRunes(visible, topicPrefixLen)))
	}

	o.conv.AddMessage(types.RoleAssistant, visible, mood)
	return visible
}

// buildMessages assembles the outbound prompt: the per-turn context block,
// the fixed few-shot examples, then the most recent history.
func (o *Orchestrator) buildMessages() []types.Message {
	topics := truncateRunes(strings.Join(o.conv.Topics(), ", "), topicsContextLimit)

	context := fmt.Sprintf(`[CONTEXT]
Current time: %s
User's name: %s
Conversation mood: %s
Previous topics: %s

%s`,
		o.now().Format(contextTimeLayout),
		o.conv.UserName(),
		o.conv.Mood(),
		topics,
		personalityInstructions,
	)

	msgs := []types.Message{{Role: types.RoleSystem, Content: context}}
	msgs = append(msgs, conversation.FewShotExamples()...)
	msgs = append(msgs, o.conv.Recent(10)...)
	return msgs
}

// extractVisible separates the internal monologue from the spoken reply.
// When both markers are present, the thought segment goes to the side-channel
// log and the response segment becomes the reply. A marker pair that yields
// no response text falls back to the raw text with a warning.
func (o *Orchestrator) extractVisible(raw string) string {
	if !strings.Contains(raw, thoughtsMarker) || !strings.Contains(raw, responseMarker) {
		return raw
	}

	_, after, _ := strings.Cut(raw, thoughtsMarker)
	thoughts, _, _ := strings.Cut(after, "]")
	if thoughts = strings.TrimSpace(thoughts); thoughts != "" {
		o.logThought(thoughts)
	}

	_, respPart, _ := strings.Cut(raw, responseMarker)
	respPart = strings.TrimSpace(respPart)
	respPart = strings.TrimSpace(strings.TrimSuffix(respPart, "]"))
	if respPart == "" {
		o.logger.Warn("malformed thought/response markers, using raw reply")
		return raw
	}
	return respPart
}

// logThought appends one monologue line to the thought log.
func (o *Orchestrator) logThought(thoughts string) {
	o.logger.Debug("model thoughts", "thoughts", thoughts)
	if o.thoughtLogPath == "" {
		return
	}
	line := fmt.Sprintf("[%s] Thoughts: %s\n", o.now().Format(timestampLayout), thoughts)
	if err := appendFile(o.thoughtLogPath, []byte(line)); err != nil {
		o.logger.Warn("could not write thought log", "path", o.thoughtLogPath, "error", err)
	}
}

// apologize logs the failure, records it, and returns the humanized
// category-specific apology. format must contain one %s verb for the emotion
// glyph; tone selects the mood the apology is delivered in.
func (o *Orchestrator) apologize(category string, err error, format string, glyph, tone types.Mood) string {
	o.logger.Error("response failed", "category", category, "error", err)
	o.recordError(category, err.Error())
	msg := fmt.Sprintf(format, o.humanizer.Glyph(glyph))
	return o.humanizer.Humanize(msg, tone)
}

// errorRecord is the structured entry appended to the error log.
type errorRecord struct {
	Timestamp          string `json:"timestamp"`
	ErrorType          string `json:"error_type"`
	ErrorMessage       string `json:"error_message"`
	LastUserMessage    string `json:"last_user_message"`
	ConversationLength int    `json:"conversation_length"`
}

// recordError appends a failure record to the error log. Log-write failures
// are logged and swallowed.
func (o *Orchestrator) recordError(category, message string) {
	if o.errorLogPath == "" {
		return
	}

	lastMsg := "No conversation history"
	if last, ok := o.conv.Last(); ok {
		lastMsg = last.Content
	}
	rec := errorRecord{
		Timestamp:          o.now().Format(timestampLayout),
		ErrorType:          category,
		ErrorMessage:       message,
		LastUserMessage:    lastMsg,
		ConversationLength: o.conv.Len(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		o.logger.Warn("could not encode error record", "error", err)
		return
	}
	if err := appendFile(o.errorLogPath, append(data, '\n', '\n')); err != nil {
		o.logger.Warn("could not write error log", "path", o.errorLogPath, "error", err)
	}
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// truncateRunes shortens s to at most n runes without splitting a multibyte
// character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
