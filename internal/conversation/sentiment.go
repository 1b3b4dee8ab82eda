package conversation

import (
	"strings"

	"github.com/easimeng/anglo/pkg/types"
)

// Keyword sets for the lexical mood estimate. Deliberately tiny; the mood
// only nudges prompt context and glyph selection, so a rough signal is
// enough.
var (
	positiveWords = map[string]struct{}{
		"happy": {}, "great": {}, "awesome": {}, "amazing": {}, "love": {}, "wonderful": {},
	}
	negativeWords = map[string]struct{}{
		"sad": {}, "bad": {}, "terrible": {}, "awful": {}, "hate": {}, "angry": {},
	}
)

// AnalyzeSentiment estimates the mood of a user utterance by counting
// distinct positive and negative keywords. One side must outnumber the other
// by more than one to move the mood off neutral.
func AnalyzeSentiment(text string) types.Mood {
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		seen[w] = struct{}{}
	}

	var pos, neg int
	for w := range seen {
		if _, ok := positiveWords[w]; ok {
			pos++
		}
		if _, ok := negativeWords[w]; ok {
			neg++
		}
	}

	switch {
	case pos > neg+1:
		return types.MoodHappy
	case neg > pos+1:
		return types.MoodConcerned
	default:
		return types.MoodNeutral
	}
}
