package usecase

import "github.com/ingredia/retrieval-core/internal/core/domain"

const (
	noMatchConfidence   = 0.1
	matchCountBonusStep = 0.05
	matchCountBonusCap  = 0.2
)

// Classifier turns raw query text into a structured classification. It is a
// pure function over the immutable rule table: no I/O, no shared state, safe
// for concurrent use. It never errors; absence of signal degrades to a
// generic/hybrid/low-confidence classification.
type Classifier struct {
	rules []classifierRule
}

func NewClassifier() *Classifier {
	return &Classifier{rules: classifierRules}
}

func (c *Classifier) Classify(query string) domain.QueryClassification {
	query = normalizeQuery(query)
	lang := detectLanguage(query)

	var (
		patterns []string
		weights  []float64
	)
	for _, rule := range c.rules {
		if !ruleApplies(rule, lang) {
			continue
		}
		if rule.pattern.MatchString(query) {
			patterns = append(patterns, rule.tag)
			weights = append(weights, rule.weight)
		}
	}

	entities := extractEntities(query)
	confidence := computeConfidence(weights)
	queryType := deriveQueryType(patterns, entities)
	strategy := deriveStrategy(queryType, confidence, entities)

	return domain.QueryClassification{
		Type:             queryType,
		Confidence:       confidence,
		DetectedPatterns: patterns,
		Entities:         entities,
		Strategy:         strategy,
		ExpandedQueries:  expandQueries(query, entities),
		Language:         lang,
	}
}

func computeConfidence(weights []float64) float64 {
	if len(weights) == 0 {
		return noMatchConfidence
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	bonus := matchCountBonusStep * float64(len(weights))
	if bonus > matchCountBonusCap {
		bonus = matchCountBonusCap
	}
	confidence := sum/float64(len(weights)) + bonus
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// deriveQueryType applies the fixed priority order: codes beat names beat
// properties beat descriptive vocabulary.
func deriveQueryType(patterns []string, entities domain.ExtractedEntities) domain.QueryType {
	tagged := make(map[string]bool, len(patterns))
	for _, tag := range patterns {
		tagged[tag] = true
	}

	switch {
	case len(entities.Codes) > 0 || tagged[tagExactCode]:
		return domain.QueryTypeExactCode
	case tagged[tagNameInquiry] || len(entities.Names) > 0:
		return domain.QueryTypeNameSearch
	case tagged[tagPropertyTH] || tagged[tagPropertyEN] || len(entities.Properties) > 0:
		return domain.QueryTypePropertySearch
	case tagged[tagMaterialTH] || tagged[tagMaterialEN] || tagged[tagIngredientName] || tagged[tagFormulation]:
		return domain.QueryTypeDescriptionSearch
	default:
		return domain.QueryTypeGeneric
	}
}

// deriveStrategy evaluates the code-and-high-confidence case first: it must
// override the generic/low-confidence fallback when both would apply.
func deriveStrategy(queryType domain.QueryType, confidence float64, entities domain.ExtractedEntities) domain.SearchStrategy {
	switch {
	case len(entities.Codes) > 0 && confidence > 0.8:
		return domain.StrategyExactMatch
	case confidence > 0.6 && (queryType == domain.QueryTypeNameSearch || queryType == domain.QueryTypeExactCode):
		return domain.StrategyFuzzyMatch
	case confidence < 0.5 || queryType == domain.QueryTypeGeneric:
		return domain.StrategyHybrid
	default:
		return domain.StrategySemanticSearch
	}
}
