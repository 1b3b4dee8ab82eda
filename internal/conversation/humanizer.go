package conversation

import (
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/easimeng/anglo/pkg/types"
)

// Transform probabilities. Each roll is independent; a reply can pick up
// several decorations at once.
const (
	fillerChance      = 0.10
	thinkingChance    = 0.05
	acknowledgeChance = 0.05
	feedbackChance    = 0.05
	glyphChance       = 0.20

	// thinkingMinWords and acknowledgeMinWords gate the longer decorations
	// so one-liners stay one-liners.
	thinkingMinWords    = 5
	acknowledgeMinWords = 8
)

// Humanizer adds small natural-language variations to assistant replies:
// conversational fillers, thinking phrases, trailing acknowledgments,
// positive-feedback openers on a happy mood and emotion glyphs. Each
// transform fires independently at a fixed probability.
//
// Humanizer is not safe for concurrent use; the conversation [Manager]
// serialises access to it.
type Humanizer struct {
	rng *rand.Rand
}

// NewHumanizer returns a Humanizer drawing randomness from rng. A nil rng
// gets a time-seeded source. Tests pass a fixed seed for reproducible
// sequences.
func NewHumanizer(rng *rand.Rand) *Humanizer {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Humanizer{rng: rng}
}

// Humanize decorates text according to the transform probabilities. mood
// selects the emotion glyph: a mood matching a known glyph is used verbatim,
// anything else falls back to a random glyph. Blank text is returned
// unchanged.
func (h *Humanizer) Humanize(text string, mood types.Mood) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	if h.rng.Float64() < fillerChance {
		filler := fillers[h.rng.Intn(len(fillers))]
		text = capitalizeFirst(filler) + ", " + lowerFirst(text)
	}

	if h.rng.Float64() < thinkingChance && len(strings.Fields(text)) > thinkingMinWords {
		phrase := thinkingPhrases[h.rng.Intn(len(thinkingPhrases))]
		text = phrase + " " + text
	}

	if h.rng.Float64() < acknowledgeChance && len(strings.Fields(text)) > acknowledgeMinWords {
		ack := acknowledgments[h.rng.Intn(len(acknowledgments))]
		text = text + " " + strings.ToLower(ack) + "."
	}

	if mood == types.MoodHappy && h.rng.Float64() < feedbackChance {
		text = h.PositiveFeedback() + " " + text
	}

	if h.rng.Float64() < glyphChance {
		text = text + " " + h.glyphFor(mood)
	}

	return text
}

// ClosingPhrase returns a random sign-off line from the persona catalog.
func (h *Humanizer) ClosingPhrase() string {
	return closingPhrases[h.rng.Intn(len(closingPhrases))]
}

// PositiveFeedback returns a random encouraging line from the persona
// catalog.
func (h *Humanizer) PositiveFeedback() string {
	return positiveFeedback[h.rng.Intn(len(positiveFeedback))]
}

// Glyph returns the emotion glyph for mood, for callers that embed a glyph
// into composed text directly.
func (h *Humanizer) Glyph(mood types.Mood) string {
	return h.glyphFor(mood)
}

// glyphFor maps a mood onto an emotion glyph. Unknown moods draw a random
// glyph so the decoration never leaks an unexpected label.
func (h *Humanizer) glyphFor(mood types.Mood) string {
	for _, g := range emotionGlyphs {
		if string(mood) == g {
			return g
		}
	}
	return emotionGlyphs[h.rng.Intn(len(emotionGlyphs))]
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
