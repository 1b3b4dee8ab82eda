// Package phonetic scores how closely a transcribed word resembles a
// known term, even when the speech-to-text engine has mangled its
// spelling. Proper nouns such as the assistant's name or a remembered
// user name rarely survive transcription intact, so matching combines
// Double Metaphone codes with Jaro-Winkler string distance.
package phonetic

import (
	"strings"

	"github.com/antzucaro/matchr"
)

const (
	// phoneticThreshold is the minimum Jaro-Winkler similarity required
	// when the candidate and term share a phonetic code.
	phoneticThreshold = 0.70
	// fuzzyThreshold is the minimum Jaro-Winkler similarity required
	// when no phonetic code is shared.
	fuzzyThreshold = 0.85
)

// Matcher compares transcript fragments against a set of known terms.
// The zero value is ready to use.
type Matcher struct{}

// NewMatcher returns a Matcher.
func NewMatcher() *Matcher {
	return &Matcher{}
}

// Match returns the known term that best matches candidate, along with
// a confidence score in [0, 1]. The boolean result is false when no
// term is close enough.
//
// A candidate matches a term when any of the following holds, tried in
// order for each term:
//
//  1. the strings are equal ignoring case (confidence 1.0),
//  2. they share a Double Metaphone code and their Jaro-Winkler
//     similarity is at least 0.70,
//  3. their Jaro-Winkler similarity is at least 0.85.
func (m *Matcher) Match(candidate string, terms []string) (string, float64, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", 0, false
	}

	bestTerm := ""
	bestScore := 0.0
	for _, term := range terms {
		if term == "" {
			continue
		}
		score, ok := m.score(candidate, term)
		if ok && score > bestScore {
			bestTerm = term
			bestScore = score
		}
	}
	if bestTerm == "" {
		return "", 0, false
	}
	return bestTerm, bestScore, true
}

func (m *Matcher) score(candidate, term string) (float64, bool) {
	if strings.EqualFold(candidate, term) {
		return 1.0, true
	}

	sim := similarity(candidate, term)
	if soundsAlike(candidate, term) {
		if sim >= phoneticThreshold {
			return sim, true
		}
		return 0, false
	}
	if sim >= fuzzyThreshold {
		return sim, true
	}
	return 0, false
}

// similarity is the best Jaro-Winkler score across the whole strings
// and their individual tokens. Token-level comparison catches cases
// where only one word of a multi-word term was garbled.
func similarity(candidate, term string) float64 {
	c := strings.ToLower(candidate)
	t := strings.ToLower(term)

	best := matchr.JaroWinkler(c, t, false)
	for _, ct := range strings.Fields(c) {
		for _, tt := range strings.Fields(t) {
			if s := matchr.JaroWinkler(ct, tt, false); s > best {
				best = s
			}
		}
	}
	return best
}

// soundsAlike reports whether any token of a shares a Double Metaphone
// code with any token of b.
func soundsAlike(a, b string) bool {
	for _, ac := range codes(a) {
		for _, bc := range codes(b) {
			if ac != "" && ac == bc {
				return true
			}
		}
	}
	return false
}

// codes returns the primary and alternate Double Metaphone codes for
// every token of s.
func codes(s string) []string {
	var out []string
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		primary, alternate := matchr.DoubleMetaphone(tok)
		if primary != "" {
			out = append(out, primary)
		}
		if alternate != "" && alternate != primary {
			out = append(out, alternate)
		}
	}
	return out
}
