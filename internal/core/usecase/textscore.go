package usecase

import (
	"strings"
	"unicode"
)

// Shared clause/content-word heuristics used by both the response reranker
// and the evaluation harness. Kept in one place so the two judges cannot
// drift apart.

const minContentWordLen = 4

var stopwords = map[string]struct{}{
	"this": {}, "that": {}, "with": {}, "from": {}, "have": {}, "what": {},
	"which": {}, "about": {}, "there": {}, "their": {}, "would": {}, "could": {},
	"also": {}, "been": {}, "into": {}, "than": {}, "then": {}, "them": {},
}

// splitClauses breaks text into clause-like units on sentence punctuation
// and newlines.
func splitClauses(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case '.', '!', '?', ';', '\n':
			return true
		}
		return false
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// contentWords extracts lowercase tokens longer than three characters,
// excluding the stopword set.
func contentWords(text string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if len([]rune(token)) < minContentWordLen {
			continue
		}
		if _, ok := stopwords[token]; ok {
			continue
		}
		out = append(out, token)
	}
	return out
}

// supportedFraction is the share of words that appear as substrings of the
// reference text (already lowercased by the caller or not; comparison is
// case-insensitive).
func supportedFraction(words []string, reference string) float64 {
	if len(words) == 0 {
		return 0
	}
	reference = strings.ToLower(reference)
	found := 0
	for _, w := range words {
		if strings.Contains(reference, w) {
			found++
		}
	}
	return float64(found) / float64(len(words))
}

// clauseSupported judges a clause grounded when at least half of its content
// words appear in the context text.
func clauseSupported(clause, context string) bool {
	words := contentWords(clause)
	if len(words) == 0 {
		return true
	}
	return supportedFraction(words, context) >= 0.5
}
