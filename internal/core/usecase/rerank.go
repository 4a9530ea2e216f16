package usecase

import (
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

const defaultGroundednessThreshold = 0.6

// Reranker is the quality gate between retrieval and the user. It scores a
// draft answer's groundedness against the retrieved chunks and tells the
// caller whether to request regeneration.
type Reranker struct {
	threshold float64
}

func NewReranker(threshold float64) *Reranker {
	if threshold <= 0 || threshold > 1 {
		threshold = defaultGroundednessThreshold
	}
	return &Reranker{threshold: threshold}
}

// ScoreGroundedness returns the fraction of answer clauses supported by the
// retrieved context, plus the unsupported clauses for diagnostics. An answer
// with no clauses scores zero.
func (r *Reranker) ScoreGroundedness(answer string, matches []domain.Match) (float64, []string) {
	clauses := splitClauses(answer)
	if len(clauses) == 0 {
		return 0, nil
	}

	context := concatMatchText(matches)
	supported := 0
	var unsupported []string
	for _, clause := range clauses {
		if clauseSupported(clause, context) {
			supported++
		} else {
			unsupported = append(unsupported, clause)
		}
	}
	return float64(supported) / float64(len(clauses)), unsupported
}

func (r *Reranker) NeedsRegeneration(score float64) bool {
	return score < r.threshold
}

func concatMatchText(matches []domain.Match) string {
	var b strings.Builder
	for _, m := range matches {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return b.String()
}
