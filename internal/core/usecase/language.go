package usecase

import (
	"strings"
	"unicode"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

const (
	thaiRatioThreshold  = 0.3
	latinRatioThreshold = 0.1
)

func isThaiRune(r rune) bool {
	return r >= 0x0E00 && r <= 0x0E7F
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// detectLanguage classifies by script ratios over non-space characters:
// thai>0.3 and latin>0.1 is mixed, thai>0.3 alone is thai, else english.
func detectLanguage(query string) domain.Language {
	var total, thai, latin int
	for _, r := range query {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case isThaiRune(r):
			thai++
		case isLatinLetter(r):
			latin++
		}
	}
	if total == 0 {
		return domain.LanguageEnglish
	}

	thaiRatio := float64(thai) / float64(total)
	latinRatio := float64(latin) / float64(total)
	switch {
	case thaiRatio > thaiRatioThreshold && latinRatio > latinRatioThreshold:
		return domain.LanguageMixed
	case thaiRatio > thaiRatioThreshold:
		return domain.LanguageThai
	default:
		return domain.LanguageEnglish
	}
}

func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
