package usecase

import (
	"sort"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

const (
	defaultResultCap = 10
	stockBoost       = 0.2
)

// mergeMatches reduces per-partition result lists into one ranked list
// according to the routing mode. Partitions that contributed nothing are
// simply absent from byPartition.
func mergeMatches(mode domain.SearchMode, byPartition map[domain.Collection][]domain.Match, limit int) []domain.Match {
	if limit <= 0 {
		limit = defaultResultCap
	}
	stock := byPartition[domain.CollectionInStock]
	catalog := byPartition[domain.CollectionAllFDA]

	switch mode {
	case domain.ModeStockOnly:
		return truncate(stock, limit)
	case domain.ModeFDAOnly:
		return truncate(catalog, limit)
	case domain.ModePrioritizeStock:
		// No dedup across partitions here: both may legitimately list the
		// same business code, and ordering alone conveys priority.
		return truncate(append(append([]domain.Match{}, stock...), catalog...), limit)
	case domain.ModeUnified:
		return mergeUnified(stock, catalog, limit)
	default:
		return mergeUnified(stock, catalog, limit)
	}
}

// mergeUnified concatenates stock before catalog, dedups by business code
// with first occurrence winning (so stock wins ties), then sorts by
// (priority boost desc, score desc). Stock matches get the additive boost
// before sorting.
func mergeUnified(stock, catalog []domain.Match, limit int) []domain.Match {
	combined := make([]domain.Match, 0, len(stock)+len(catalog))
	for _, m := range stock {
		m.PriorityBoost += stockBoost
		combined = append(combined, m)
	}
	combined = append(combined, catalog...)

	seen := make(map[string]struct{}, len(combined))
	deduped := combined[:0]
	for _, m := range combined {
		key := m.Code
		if key == "" {
			key = m.ID
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, m)
	}

	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].PriorityBoost != deduped[j].PriorityBoost {
			return deduped[i].PriorityBoost > deduped[j].PriorityBoost
		}
		return deduped[i].Score > deduped[j].Score
	})

	return truncate(deduped, limit)
}

func truncate(matches []domain.Match, limit int) []domain.Match {
	if len(matches) <= limit {
		return matches
	}
	return matches[:limit]
}
