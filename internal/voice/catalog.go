// Package voice renders Anglo's replies as audio. A fixed catalog of
// pre-recorded responses is consulted first; anything the catalog cannot
// cover is synthesized through a TTS provider and played back on an output
// device.
package voice

import (
	"math/rand"
	"strings"
)

// Entry pairs a pre-recorded audio file with its spoken text.
type Entry struct {
	// File is the audio path, relative to the catalog's base directory.
	File string

	// Text is the exact text spoken in the recording.
	Text string
}

// Category is a named ordered group of catalog entries.
type Category struct {
	Name    string
	Entries []Entry
}

// Catalog is an immutable ordered collection of response categories plus
// emotion-keyed sub-categories. Construct with [NewCatalog]; lookups are pure
// functions over the stored data.
type Catalog struct {
	categories []Category
	emotions   []Category
}

// NewCatalog builds a Catalog from regular categories and emotion
// sub-categories. The input slices are copied; later mutation of the
// arguments does not affect the catalog.
func NewCatalog(categories, emotions []Category) *Catalog {
	return &Catalog{
		categories: copyCategories(categories),
		emotions:   copyCategories(emotions),
	}
}

func copyCategories(in []Category) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		entries := make([]Entry, len(c.Entries))
		copy(entries, c.Entries)
		out[i] = Category{Name: c.Name, Entries: entries}
	}
	return out
}

// Random returns a random entry from the named category.
func (c *Catalog) Random(rng *rand.Rand, category string) (Entry, bool) {
	for _, cat := range c.categories {
		if cat.Name == category && len(cat.Entries) > 0 {
			return cat.Entries[rng.Intn(len(cat.Entries))], true
		}
	}
	return Entry{}, false
}

// Emotion returns a random entry from the named emotion sub-category.
func (c *Catalog) Emotion(rng *rand.Rand, emotion string) (Entry, bool) {
	for _, cat := range c.emotions {
		if cat.Name == emotion && len(cat.Entries) > 0 {
			return cat.Entries[rng.Intn(len(cat.Entries))], true
		}
	}
	return Entry{}, false
}

// Match finds the first entry whose text contains the requested text,
// case-insensitively. Regular categories are scanned in order before emotion
// sub-categories. Blank text never matches.
func (c *Catalog) Match(text string) (Entry, bool) {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return Entry{}, false
	}
	for _, group := range [][]Category{c.categories, c.emotions} {
		for _, cat := range group {
			for _, e := range cat.Entries {
				if strings.Contains(strings.ToLower(e.Text), needle) {
					return e, true
				}
			}
		}
	}
	return Entry{}, false
}

// Categories returns the regular category names in catalog order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	for i, cat := range c.categories {
		out[i] = cat.Name
	}
	return out
}

// DefaultCatalog returns the built-in set of pre-recorded Anglo responses.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]Category{
			{Name: "introductions", Entries: []Entry{
				{File: "wav/anglo_intro_001.wav", Text: "Hello, I'm Anglo, your personal assistant."},
				{File: "wav/anglo_intro_002.wav", Text: "I'm here to help you with your daily tasks, planning, and questions."},
				{File: "wav/anglo_intro_003.wav", Text: "How can I help you today?"},
			}},
			{Name: "greetings", Entries: []Entry{
				{File: "wav/anglo_greeting_001.wav", Text: "Hello."},
				{File: "wav/anglo_greeting_002.wav", Text: "Hi there."},
				{File: "wav/anglo_greeting_003.wav", Text: "Good morning."},
				{File: "wav/anglo_greeting_004.wav", Text: "Good afternoon."},
				{File: "wav/anglo_greeting_005.wav", Text: "Good evening."},
			}},
			{Name: "confirmations", Entries: []Entry{
				{File: "wav/anglo_confirm_001.wav", Text: "Okay."},
				{File: "wav/anglo_confirm_002.wav", Text: "Sure."},
				{File: "wav/anglo_confirm_003.wav", Text: "No problem."},
				{File: "wav/anglo_confirm_004.wav", Text: "I understand."},
				{File: "wav/anglo_confirm_005.wav", Text: "Got it."},
				{File: "wav/anglo_confirm_006.wav", Text: "That's fine."},
			}},
			{Name: "assistance", Entries: []Entry{
				{File: "wav/anglo_assist_001.wav", Text: "How can I help you?"},
				{File: "wav/anglo_assist_002.wav", Text: "What would you like me to do?"},
				{File: "wav/anglo_assist_003.wav", Text: "I'm here to assist you."},
				{File: "wav/anglo_assist_004.wav", Text: "Let me know what you need."},
			}},
			{Name: "clarifications", Entries: []Entry{
				{File: "wav/anglo_clarify_001.wav", Text: "I need a bit more information."},
				{File: "wav/anglo_clarify_002.wav", Text: "Could you please explain that again?"},
				{File: "wav/anglo_clarify_003.wav", Text: "I didn't fully understand."},
				{File: "wav/anglo_clarify_004.wav", Text: "Let me try again in a simpler way."},
			}},
			{Name: "tasks", Entries: []Entry{
				{File: "wav/anglo_task_001.wav", Text: "I can help you plan your day."},
				{File: "wav/anglo_task_002.wav", Text: "Let's do this step by step."},
				{File: "wav/anglo_task_003.wav", Text: "You can start with your most important task."},
				{File: "wav/anglo_task_004.wav", Text: "Take a short break and continue later."},
			}},
			{Name: "motivation", Entries: []Entry{
				{File: "wav/anglo_motivation_001.wav", Text: "You're doing well."},
				{File: "wav/anglo_motivation_002.wav", Text: "Keep going, you're making progress."},
				{File: "wav/anglo_motivation_003.wav", Text: "Every small effort matters."},
				{File: "wav/anglo_motivation_004.wav", Text: "Stay consistent and focused."},
			}},
			{Name: "safety", Entries: []Entry{
				{File: "wav/anglo_safety_001.wav", Text: "I can't help with that."},
				{File: "wav/anglo_safety_002.wav", Text: "That's not something I'm allowed to do."},
				{File: "wav/anglo_safety_003.wav", Text: "I can help in a safe and legal way."},
			}},
			{Name: "outros", Entries: []Entry{
				{File: "wav/anglo_outro_001.wav", Text: "You're welcome."},
				{File: "wav/anglo_outro_002.wav", Text: "Anytime."},
				{File: "wav/anglo_outro_003.wav", Text: "Goodbye."},
				{File: "wav/anglo_outro_004.wav", Text: "Take care."},
			}},
		},
		[]Category{
			{Name: "calm", Entries: []Entry{
				{File: "wav/anglo_emotion_calm_001.wav", Text: "Everything is under control. Let's take it one step at a time."},
			}},
			{Name: "friendly", Entries: []Entry{
				{File: "wav/anglo_emotion_friendly_001.wav", Text: "That's a great question. I'm happy to help you with that."},
			}},
			{Name: "serious", Entries: []Entry{
				{File: "wav/anglo_emotion_serious_001.wav", Text: "Please be careful. This is important and needs attention."},
			}},
		},
	)
}
