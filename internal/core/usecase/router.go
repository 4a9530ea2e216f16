package usecase

import (
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// Keyword lists are matched as case-insensitive substrings, not regexes.
var (
	stockIntentKeywords = []string{
		"in stock", "on hand", "ในสต็อก", "สต็อก", "ในคลัง", "ที่มีอยู่", "คงเหลือ",
	}
	catalogIntentKeywords = []string{
		"fda", "registry", "catalog", "all materials", "ทะเบียน", "อย.", "ทั้งหมด", "ขึ้นทะเบียน",
	}
	availabilityIntentKeywords = []string{
		"available", "availability", "do you have", "มีขาย", "หาได้", "ไหม", "หรือเปล่า",
	}
)

// Router decides which partitions a query hits and how their results merge.
// Deliberately independent of the Classifier: callers usually run both and
// gate routing on IsRawMaterialsQuery. Pure and total.
type Router struct{}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Route(query string, override *domain.CollectionOverride) domain.RoutingDecision {
	if override != nil {
		return routeOverride(*override)
	}

	lower := strings.ToLower(query)
	stock := containsAny(lower, stockIntentKeywords)
	catalog := containsAny(lower, catalogIntentKeywords)
	availability := containsAny(lower, availabilityIntentKeywords)

	switch {
	case stock && !catalog:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionInStock},
			Mode:        domain.ModeStockOnly,
			Confidence:  0.9,
			Reasoning:   "stock-intent keywords present, no full-catalog signal",
		}
	case catalog && !stock:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionAllFDA},
			Mode:        domain.ModeFDAOnly,
			Confidence:  0.9,
			Reasoning:   "full-catalog keywords present, no stock signal",
		}
	case availability:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionInStock, domain.CollectionAllFDA},
			Mode:        domain.ModePrioritizeStock,
			Confidence:  0.85,
			Reasoning:   "availability-intent keywords present",
		}
	default:
		// The default favors the smaller curated partition first: most users
		// care about materials they can act on immediately.
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionInStock, domain.CollectionAllFDA},
			Mode:        domain.ModePrioritizeStock,
			Confidence:  0.7,
			Reasoning:   "no routing signal, defaulting to stock-first search",
		}
	}
}

func routeOverride(override domain.CollectionOverride) domain.RoutingDecision {
	switch override {
	case domain.OverrideStock:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionInStock},
			Mode:        domain.ModeStockOnly,
			Confidence:  1.0,
			Reasoning:   "explicit stock override",
		}
	case domain.OverrideFDA:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionAllFDA},
			Mode:        domain.ModeFDAOnly,
			Confidence:  1.0,
			Reasoning:   "explicit catalog override",
		}
	default:
		return domain.RoutingDecision{
			Collections: []domain.Collection{domain.CollectionInStock, domain.CollectionAllFDA},
			Mode:        domain.ModeUnified,
			Confidence:  1.0,
			Reasoning:   "explicit both override",
		}
	}
}

func containsAny(haystack string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(haystack, keyword) {
			return true
		}
	}
	return false
}
