// Package transcript cleans up speech-to-text output before it reaches
// the conversation. Speech engines routinely misspell proper nouns they
// have never seen, so the corrector rewrites words that sound like a
// known term (the assistant's own name, the user's remembered name)
// back to their canonical spelling.
package transcript

import (
	"log/slog"
	"strings"
	"sync"
	"unicode"
)

// minCandidateLen is the shortest single word considered for
// correction. Shorter words produce too many false positives.
const minCandidateLen = 3

// Correction records one replacement made in a transcript.
type Correction struct {
	Original   string
	Corrected  string
	Confidence float64
}

// TermMatcher scores a transcript fragment against known terms.
type TermMatcher interface {
	Match(candidate string, terms []string) (term string, confidence float64, ok bool)
}

// Corrector rewrites transcript fragments that closely match a known
// term. It is safe for concurrent use.
type Corrector struct {
	matcher TermMatcher
	logger  *slog.Logger

	mu      sync.RWMutex
	terms   []string
	maxSpan int
}

// Option configures a Corrector.
type Option func(*Corrector)

// WithLogger sets the logger used to report corrections.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Corrector) {
		c.logger = logger
	}
}

// NewCorrector returns a Corrector that recognizes the given terms.
func NewCorrector(matcher TermMatcher, terms []string, opts ...Option) *Corrector {
	c := &Corrector{
		matcher: matcher,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	for _, term := range terms {
		c.addTermLocked(term)
	}
	return c
}

// AddTerm registers an additional term, such as a user name learned
// mid-conversation. Duplicates are ignored.
func (c *Corrector) AddTerm(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addTermLocked(term)
}

func (c *Corrector) addTermLocked(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}
	for _, existing := range c.terms {
		if strings.EqualFold(existing, term) {
			return
		}
	}
	c.terms = append(c.terms, term)
	if n := len(strings.Fields(term)); n > c.maxSpan {
		c.maxSpan = n
	}
}

// Terms returns the known terms.
func (c *Corrector) Terms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.terms))
	copy(out, c.terms)
	return out
}

// Correct rewrites fragments of text that match a known term and
// returns the corrected text along with a record of every replacement.
// Surrounding punctuation is preserved.
func (c *Corrector) Correct(text string) (string, []Correction) {
	c.mu.RLock()
	terms := c.terms
	maxSpan := c.maxSpan
	c.mu.RUnlock()

	tokens := strings.Fields(text)
	if len(tokens) == 0 || len(terms) == 0 {
		return text, nil
	}

	var corrections []Correction
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); {
		span, corr, ok := c.matchAt(tokens, i, maxSpan, terms)
		if !ok {
			out = append(out, tokens[i])
			i++
			continue
		}
		lead, _, _ := splitPunct(tokens[i])
		_, _, trail := splitPunct(tokens[i+span-1])
		out = append(out, lead+corr.Corrected+trail)
		corrections = append(corrections, corr)
		c.logger.Debug("corrected transcript term",
			"original", corr.Original,
			"corrected", corr.Corrected,
			"confidence", corr.Confidence)
		i += span
	}
	return strings.Join(out, " "), corrections
}

// matchAt tries the longest candidate span starting at position i
// first, so multi-word terms win over their individual words.
func (c *Corrector) matchAt(tokens []string, i, maxSpan int, terms []string) (int, Correction, bool) {
	limit := maxSpan
	if rest := len(tokens) - i; rest < limit {
		limit = rest
	}
	for span := limit; span >= 1; span-- {
		candidate := candidateText(tokens[i : i+span])
		if candidate == "" {
			continue
		}
		if span == 1 && len([]rune(candidate)) < minCandidateLen {
			continue
		}
		term, conf, ok := c.matcher.Match(candidate, terms)
		if !ok {
			continue
		}
		if strings.EqualFold(candidate, term) {
			// Already spelled right; nothing to rewrite.
			return span, Correction{}, false
		}
		return span, Correction{Original: candidate, Corrected: term, Confidence: conf}, true
	}
	return 0, Correction{}, false
}

// candidateText joins a token span with punctuation stripped from its
// outer edges.
func candidateText(tokens []string) string {
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		_, core, _ := splitPunct(tok)
		if core == "" {
			return ""
		}
		parts = append(parts, core)
	}
	return strings.Join(parts, " ")
}

// splitPunct splits a token into leading punctuation, the core word,
// and trailing punctuation.
func splitPunct(tok string) (lead, core, trail string) {
	runes := []rune(tok)
	start := 0
	for start < len(runes) && !isWordRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isWordRune(runes[end-1]) {
		end--
	}
	return string(runes[:start]), string(runes[start:end]), string(runes[end:])
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}
