package domain

type QueryType string

const (
	QueryTypeExactCode         QueryType = "exact_code"
	QueryTypeNameSearch        QueryType = "name_search"
	QueryTypeDescriptionSearch QueryType = "description_search"
	QueryTypePropertySearch    QueryType = "property_search"
	QueryTypeGeneric           QueryType = "generic"
)

type SearchStrategy string

const (
	StrategyExactMatch     SearchStrategy = "exact_match"
	StrategyFuzzyMatch     SearchStrategy = "fuzzy_match"
	StrategySemanticSearch SearchStrategy = "semantic_search"
	StrategyHybrid         SearchStrategy = "hybrid"
)

type Language string

const (
	LanguageThai    Language = "thai"
	LanguageEnglish Language = "english"
	LanguageMixed   Language = "mixed"
)

type ExtractedEntities struct {
	Codes      []string `json:"codes,omitempty"`
	Names      []string `json:"names,omitempty"`
	Properties []string `json:"properties,omitempty"`
}

func (e ExtractedEntities) IsEmpty() bool {
	return len(e.Codes) == 0 && len(e.Names) == 0 && len(e.Properties) == 0
}

// QueryClassification is the classifier's full verdict on a raw query.
// DetectedPatterns preserves match order; ExpandedQueries always starts
// with the original query.
type QueryClassification struct {
	Type             QueryType         `json:"query_type"`
	Confidence       float64           `json:"confidence"`
	DetectedPatterns []string          `json:"detected_patterns"`
	Entities         ExtractedEntities `json:"extracted_entities"`
	Strategy         SearchStrategy    `json:"search_strategy"`
	ExpandedQueries  []string          `json:"expanded_queries"`
	Language         Language          `json:"language"`
}

// IsRawMaterialsQuery gates whether retrieval runs at all for this query.
func (c QueryClassification) IsRawMaterialsQuery() bool {
	if c.Confidence > 0.5 {
		return true
	}
	if !c.Entities.IsEmpty() {
		return true
	}
	return len(c.DetectedPatterns) > 0
}
