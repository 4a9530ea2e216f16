package usecase

import (
	"regexp"
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

var (
	codePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\brm[-_ ]?\d{6}\b`),
		regexp.MustCompile(`(?i)\bfda[-_ ]?\d{4,10}\b`),
	}

	namePairPattern = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)
	quotedPattern   = regexp.MustCompile(`"([^"]{2,64})"|'([^']{2,64})'`)

	codeSeparators = strings.NewReplacer("-", "", "_", "", " ", "")
)

// propertyKeywords is the fixed bilingual vocabulary tested case-insensitively.
var propertyKeywords = []string{
	"moisturizing", "whitening", "brightening", "anti-aging", "antioxidant",
	"soothing", "exfoliating", "hydrating", "anti-acne", "uv protection",
	"ความชุ่มชื้น", "ผิวขาว", "ผิวกระจ่างใส", "ลดริ้วรอย", "ต้านอนุมูลอิสระ",
	"ลดการอักเสบ", "ผลัดเซลล์ผิว", "ลดสิว", "กันแดด",
}

// normalizeCode strips separators and uppercases: "rm-000001" -> "RM000001".
func normalizeCode(raw string) string {
	return strings.ToUpper(codeSeparators.Replace(raw))
}

// extractEntities pulls codes, names and properties out of the raw query,
// independently of the pattern table. Codes are returned normalized first,
// with the original-cased form kept alongside when it differs, so exact-match
// lookups can try either.
func extractEntities(query string) domain.ExtractedEntities {
	var out domain.ExtractedEntities

	seenCodes := make(map[string]struct{})
	addCode := func(code string) {
		if code == "" {
			return
		}
		if _, ok := seenCodes[code]; ok {
			return
		}
		seenCodes[code] = struct{}{}
		out.Codes = append(out.Codes, code)
	}
	for _, pattern := range codePatterns {
		for _, raw := range pattern.FindAllString(query, -1) {
			addCode(normalizeCode(raw))
			addCode(raw)
		}
	}

	seenNames := make(map[string]struct{})
	addName := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seenNames[key]; ok {
			return
		}
		seenNames[key] = struct{}{}
		out.Names = append(out.Names, name)
	}
	for _, pair := range namePairPattern.FindAllString(query, -1) {
		addName(pair)
	}
	for _, groups := range quotedPattern.FindAllStringSubmatch(query, -1) {
		if groups[1] != "" {
			addName(groups[1])
		} else {
			addName(groups[2])
		}
	}

	lower := strings.ToLower(query)
	for _, keyword := range propertyKeywords {
		if strings.Contains(lower, keyword) {
			out.Properties = append(out.Properties, keyword)
		}
	}

	return out
}
