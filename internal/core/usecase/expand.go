package usecase

import (
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

type crossLanguageTerm struct {
	term        string
	equivalents []string
}

// crossLanguageTerms maps query vocabulary to its known equivalents in the
// other language. Substitution-based expansion keeps the rest of the query
// intact. An ordered slice, not a map: alternates must come out in the same
// order on every call. Longer terms come before their prefixes so the most
// specific substitution happens first.
var crossLanguageTerms = []crossLanguageTerm{
	{"วิตามินซี", []string{"vitamin c"}},
	{"วิตามินอี", []string{"vitamin e"}},
	{"วิตามิน", []string{"vitamin"}},
	{"คอลลาเจน", []string{"collagen"}},
	{"สารสกัด", []string{"extract"}},
	{"วัตถุดิบ", []string{"raw material"}},
	{"ราคา", []string{"price"}},
	{"สูตร", []string{"formula"}},
	{"ผู้ผลิต", []string{"supplier"}},
	{"vitamin c", []string{"วิตามินซี"}},
	{"vitamin e", []string{"วิตามินอี"}},
	{"vitamin", []string{"วิตามิน"}},
	{"collagen", []string{"คอลลาเจน"}},
	{"extract", []string{"สารสกัด"}},
	{"price", []string{"ราคา"}},
	{"formula", []string{"สูตร"}},
	{"supplier", []string{"ผู้ผลิต"}},
}

// expandQueries builds the ordered alternates list, original first. Bilingual
// keywords are substituted with their cross-language equivalents; extracted
// codes contribute case and separator variants.
func expandQueries(query string, entities domain.ExtractedEntities) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, 4)
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, ok := seen[q]; ok {
			return
		}
		seen[q] = struct{}{}
		out = append(out, q)
	}

	add(query)

	lower := strings.ToLower(query)
	for _, entry := range crossLanguageTerms {
		idx := strings.Index(lower, entry.term)
		if idx < 0 {
			continue
		}
		for _, equivalent := range entry.equivalents {
			add(query[:idx] + equivalent + query[idx+len(entry.term):])
		}
	}

	for _, code := range entities.Codes {
		add(strings.ToUpper(code))
		add(strings.ToLower(code))
		for _, variant := range codeSeparatorVariants(code) {
			add(variant)
		}
	}

	return out
}

// codeSeparatorVariants splits a normalized code after its alpha prefix:
// RM000001 -> RM-000001, RM_000001. Short or unprefixed codes get none.
func codeSeparatorVariants(code string) []string {
	if len(code) < 6 || strings.ContainsAny(code, "-_ ") {
		return nil
	}
	prefixEnd := 0
	for prefixEnd < len(code) && !isDigit(code[prefixEnd]) {
		prefixEnd++
	}
	if prefixEnd == 0 || prefixEnd == len(code) {
		return nil
	}
	prefix, digits := code[:prefixEnd], code[prefixEnd:]
	return []string{prefix + "-" + digits, prefix + "_" + digits}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
