package search

import (
	"regexp"
	"strings"
)

// tokenPattern keeps lowercase word characters; everything else is a
// separator.
var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// minTokenLength drops single letters and two-letter fragments.
const minTokenLength = 3

// tokenize lowercases text, strips non-word characters, and drops short
// tokens, stopwords and pure-number runs. A query of digits alone must
// produce an empty expansion so the fallback path engages.
func (e *Engine) tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if len(t) < minTokenLength {
			continue
		}
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		if !hasLetter(t) {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

func hasLetter(t string) bool {
	for i := 0; i < len(t); i++ {
		if t[i] >= 'a' && t[i] <= 'z' {
			return true
		}
	}
	return false
}

// expand appends fixed synonyms to each query token, deduplicating
// while preserving order.
func (e *Engine) expand(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	expanded := make([]string, 0, len(tokens))
	add := func(t string) {
		if _, ok := seen[t]; ok {
			return
		}
		seen[t] = struct{}{}
		expanded = append(expanded, t)
	}
	for _, t := range tokens {
		add(t)
		for _, syn := range e.synonyms[t] {
			add(syn)
		}
	}
	return expanded
}
