package usecase

import (
	"regexp"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// Pattern tags. Tag order in DetectedPatterns follows rule-table order.
const (
	tagExactCode       = "exact_code"
	tagMaterialTH      = "material_question_th"
	tagMaterialEN      = "material_question_en"
	tagPropertyTH      = "property_question_th"
	tagPropertyEN      = "property_question_en"
	tagSupplier        = "supplier_question"
	tagCost            = "cost_question"
	tagFormulation     = "formulation_question"
	tagNameInquiry     = "name_inquiry"
	tagIngredientName  = "ingredient_name"
	tagWhatIsQuestion  = "what_is_question"
	tagAvailabilityNLQ = "availability_question"
)

type classifierRule struct {
	pattern *regexp.Regexp
	tag     string
	weight  float64
	lang    domain.Language // empty matches any language
}

// classifierRules is the immutable, data-driven rule table. Every matching
// rule contributes its tag and weight; multiple families may match one query.
var classifierRules = []classifierRule{
	// Structured business codes carry the strongest signal.
	{pattern: regexp.MustCompile(`(?i)\brm[-_ ]?\d{6}\b`), tag: tagExactCode, weight: 1.0},
	{pattern: regexp.MustCompile(`(?i)\bfda[-_ ]?\d{4,10}\b`), tag: tagExactCode, weight: 1.0},

	{pattern: regexp.MustCompile(`คืออะไร|คือ อะไร`), tag: tagWhatIsQuestion, weight: 0.8, lang: domain.LanguageThai},
	{pattern: regexp.MustCompile(`(?i)\bwhat\s+is\b`), tag: tagWhatIsQuestion, weight: 0.7, lang: domain.LanguageEnglish},

	{pattern: regexp.MustCompile(`วัตถุดิบ|ส่วนผสม|สารสกัด|สาร`), tag: tagMaterialTH, weight: 0.8, lang: domain.LanguageThai},
	{pattern: regexp.MustCompile(`(?i)\b(raw material|ingredient|material|extract|active)s?\b`), tag: tagMaterialEN, weight: 0.7, lang: domain.LanguageEnglish},

	{pattern: regexp.MustCompile(`คุณสมบัติ|สรรพคุณ|ประโยชน์|ช่วยอะไร`), tag: tagPropertyTH, weight: 0.7, lang: domain.LanguageThai},
	{pattern: regexp.MustCompile(`(?i)\b(propert(?:y|ies)|benefit|function|effect)s?\b`), tag: tagPropertyEN, weight: 0.7, lang: domain.LanguageEnglish},

	{pattern: regexp.MustCompile(`(?i)\bsupplier\b|ผู้ผลิต|ผู้จำหน่าย|แหล่งซื้อ`), tag: tagSupplier, weight: 0.6},
	{pattern: regexp.MustCompile(`(?i)\b(price|cost)\b|ราคา|ต้นทุน`), tag: tagCost, weight: 0.6},
	{pattern: regexp.MustCompile(`(?i)\b(formula|formulation|recipe)s?\b|สูตร|ตำรับ`), tag: tagFormulation, weight: 0.7},

	{pattern: regexp.MustCompile(`(?i)\b(name of|called|full name)\b|ชื่อเต็ม|ชื่ออะไร|ชื่อว่า`), tag: tagNameInquiry, weight: 0.6},

	{pattern: regexp.MustCompile(`มี.+ไหม|มีขาย`), tag: tagAvailabilityNLQ, weight: 0.6, lang: domain.LanguageThai},

	// Common ingredient vocabulary in either language.
	{pattern: regexp.MustCompile(`(?i)\b(vitamin\s?[a-e]\d?|collagen|niacinamide|hyaluronic|retinol|glycerin|ceramide|peptide|salicylic|arbutin)\b`), tag: tagIngredientName, weight: 0.8},
	{pattern: regexp.MustCompile(`วิตามิน(ซี|อี|เอ|บี)?|คอลลาเจน|ไนอาซินาไมด์|ไฮยาลูรอน|เรตินอล|กลีเซอรีน|เซราไมด์|เปปไทด์`), tag: tagIngredientName, weight: 0.8, lang: domain.LanguageThai},
}

// ruleApplies filters language-specific rules; mixed queries get both sides.
func ruleApplies(rule classifierRule, lang domain.Language) bool {
	if rule.lang == "" {
		return true
	}
	if lang == domain.LanguageMixed {
		return true
	}
	return rule.lang == lang
}
