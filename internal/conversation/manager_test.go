package conversation

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/easimeng/anglo/pkg/types"
)

func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithHumanizer(NewHumanizer(rand.New(rand.NewSource(1)))),
	}
	return NewManager(append(base, opts...)...)
}

func TestNewManager_StartsWithSystemMessage(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	if got := m.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
	msgs := m.Recent(1)
	if msgs[0].Role != types.RoleSystem {
		t.Errorf("first message role = %q, want system", msgs[0].Role)
	}
	if !strings.Contains(msgs[0].Content, "Anglo") {
		t.Errorf("system prompt does not mention the assistant name: %q", msgs[0].Content)
	}
	if !strings.Contains(msgs[0].Content, "[THOUGHTS:") {
		t.Error("system prompt does not describe the response format")
	}
}

func TestAddMessage_BlankIgnored(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	m.AddMessage(types.RoleUser, "", "")
	m.AddMessage(types.RoleUser, "   \n", "")
	if got := m.Len(); got != 1 {
		t.Errorf("Len() = %d after blank messages, want 1", got)
	}
}

func TestAddMessage_TruncatesHistory(t *testing.T) {
	t.Parallel()

	m := testManager(t, WithMaxHistory(2))
	for i := 0; i < 10; i++ {
		m.AddMessage(types.RoleUser, "message "+string(rune('a'+i)), "")
	}

	if got, want := m.Len(), 2*2+1; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	msgs := m.Recent(m.Len())
	if msgs[0].Role != types.RoleSystem {
		t.Error("truncation dropped the system message")
	}
	if got, want := msgs[len(msgs)-1].Content, "message j"; got != want {
		t.Errorf("last message = %q, want %q", got, want)
	}
	if got, want := msgs[1].Content, "message g"; got != want {
		t.Errorf("oldest kept message = %q, want %q", got, want)
	}
}

func TestSetMaxHistory_TrimsExistingHistory(t *testing.T) {
	t.Parallel()

	m := testManager(t, WithMaxHistory(5))
	for i := 0; i < 10; i++ {
		m.AddMessage(types.RoleUser, "message "+string(rune('a'+i)), "")
	}

	m.SetMaxHistory(2)

	if got, want := m.Len(), 2*2+1; got != want {
		t.Fatalf("Len() = %d, want %d", got, want)
	}
	msgs := m.Recent(m.Len())
	if msgs[0].Role != types.RoleSystem {
		t.Error("trim dropped the system message")
	}
	if got, want := msgs[len(msgs)-1].Content, "message j"; got != want {
		t.Errorf("last message = %q, want %q", got, want)
	}

	// Values below 1 leave the bound alone.
	m.SetMaxHistory(0)
	m.AddMessage(types.RoleUser, "another", "")
	if got, want := m.Len(), 2*2+1; got != want {
		t.Errorf("Len() after invalid bound = %d, want %d", got, want)
	}
}

func TestAddMessage_AssistantKeepsTextVisible(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	const reply = "An operating system manages the computer hardware."
	m.AddMessage(types.RoleAssistant, reply, "")

	last, ok := m.Last()
	if !ok {
		t.Fatal("Last() reported empty history")
	}
	// Humanizing may decorate the reply but never hides the original text.
	if !strings.Contains(strings.ToLower(last.Content), strings.ToLower(reply)) {
		t.Errorf("stored reply %q lost the original text", last.Content)
	}
}

func TestAddMessage_ThoughtMarkerNotHumanized(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	const raw = "[THOUGHTS: the user seems confused] I can help."
	for i := 0; i < 50; i++ {
		m.AddMessage(types.RoleAssistant, raw, "")
		last, _ := m.Last()
		if last.Content != raw {
			t.Fatalf("raw marker content was modified: %q", last.Content)
		}
	}
}

func TestAddMessage_RecordsEmotion(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	m.SetMood(types.MoodHappy)
	m.AddMessage(types.RoleUser, "great news", "")
	last, _ := m.Last()
	if last.Emotion != types.MoodHappy {
		t.Errorf("emotion = %q, want %q (current mood)", last.Emotion, types.MoodHappy)
	}

	m.AddMessage(types.RoleUser, "more news", types.MoodConcerned)
	last, _ = m.Last()
	if last.Emotion != types.MoodConcerned {
		t.Errorf("emotion = %q, want explicit %q", last.Emotion, types.MoodConcerned)
	}
}

func TestNameExtraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain introduction", "my name is Kwame", "Kwame"},
		{"trailing punctuation", "my name is Kwame.", "Kwame"},
		{"mixed case prefix", "Hello, My Name Is Ama", "Ama"},
		{"mid sentence", "by the way my name is Kofi, remember it", "Kofi"},
		{"prefix with nothing after", "my name is ", "User"},
		{"single letter rejected", "my name is X", "User"},
		{"no introduction", "what is the weather", "User"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := testManager(t)
			m.AddMessage(types.RoleUser, tt.text, "")
			if got := m.UserName(); got != tt.want {
				t.Errorf("UserName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWarmMoodAfterAbsence(t *testing.T) {
	t.Parallel()

	current := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	m := testManager(t, WithClock(func() time.Time { return current }))

	m.AddMessage(types.RoleUser, "hello", "")
	if got := m.Mood(); got != types.MoodNeutral {
		t.Fatalf("mood = %q after immediate message, want neutral", got)
	}

	current = current.Add(2 * time.Hour)
	m.AddMessage(types.RoleUser, "hello again", "")
	if got := m.Mood(); got != types.MoodWarm {
		t.Errorf("mood = %q after long absence, want warm", got)
	}
}

func TestSummary(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	m.AddMessage(types.RoleUser, "hello", "")
	m.AddMessage(types.RoleAssistant, "[THOUGHTS: greet] hi", "")

	want := "User: hello\nAssistant: [THOUGHTS: greet] hi"
	if got := m.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestSaveRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")

	m := testManager(t, WithHistoryFile(path))
	m.AddMessage(types.RoleUser, "remember this", "")
	m.AddMessage(types.RoleAssistant, "[THOUGHTS: noted] stored", "")
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	restored := testManager(t, WithHistoryFile(path))
	if got, want := restored.Len(), 3; got != want {
		t.Fatalf("restored Len() = %d, want %d", got, want)
	}
	msgs := restored.Recent(2)
	if msgs[0].Content != "remember this" || msgs[1].Content != "[THOUGHTS: noted] stored" {
		t.Errorf("restored messages = %q / %q", msgs[0].Content, msgs[1].Content)
	}
}

func TestRestore_KeepsOnlyRecentMessages(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")

	m := testManager(t, WithHistoryFile(path), WithMaxHistory(10))
	for i := 0; i < 10; i++ {
		m.AddMessage(types.RoleUser, "msg", "")
	}
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	restored := testManager(t, WithHistoryFile(path), WithMaxHistory(2))
	if got, want := restored.Len(), 1+2*2; got != want {
		t.Errorf("restored Len() = %d, want %d", got, want)
	}
}

func TestRestore_CorruptFileIgnored(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	m := testManager(t, WithHistoryFile(path))
	if got := m.Len(); got != 1 {
		t.Errorf("Len() = %d after corrupt restore, want 1", got)
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")

	m := testManager(t, WithHistoryFile(path))
	m.AddMessage(types.RoleUser, "my name is Kwame", "")
	m.AddTopic("operating systems")
	if err := m.Save(); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	m.Reset()

	if got := m.Len(); got != 1 {
		t.Errorf("Len() = %d after reset, want 1", got)
	}
	if got := m.UserName(); got != "User" {
		t.Errorf("UserName() = %q after reset, want User", got)
	}
	if got := m.Topics(); len(got) != 0 {
		t.Errorf("Topics() = %v after reset, want empty", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("history file still exists after reset (stat err: %v)", err)
	}
}

func TestAddTopic_DedupesAndOrders(t *testing.T) {
	t.Parallel()

	m := testManager(t)
	m.AddTopic("kernels")
	m.AddTopic("databases")
	m.AddTopic("kernels")
	m.AddTopic("  ")

	got := m.Topics()
	if len(got) != 2 || got[0] != "kernels" || got[1] != "databases" {
		t.Errorf("Topics() = %v, want [kernels databases]", got)
	}
}
