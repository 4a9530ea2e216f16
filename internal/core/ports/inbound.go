package ports

import (
	"context"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// QueryClassifier infers intent, entities, language and search strategy
// from raw query text. Pure and total: never errors.
type QueryClassifier interface {
	Classify(query string) domain.QueryClassification
}

// CollectionRouter picks partitions and a merge mode. Pure and total.
type CollectionRouter interface {
	Route(query string, override *domain.CollectionOverride) domain.RoutingDecision
}

// Searcher executes retrieval across the routed partitions and returns the
// merged, deduplicated, ranked result.
type Searcher interface {
	Search(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error)
}

// ContextRetriever is the harness-facing retrieval contract: fixtures in
// tests, the live classify+route+search pipeline in production.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string) ([]domain.Match, error)
}

// CollectionIndexer is the batch-job entry point for (re)building one
// partition from source records.
type CollectionIndexer interface {
	IndexCollection(ctx context.Context, collection string) (domain.IndexReport, error)
}

// Evaluator replays fixed cases through the pipeline and scores retrieval
// quality.
type Evaluator interface {
	Evaluate(ctx context.Context, cases []domain.EvaluationCase) ([]domain.EvaluationResult, domain.EvaluationSummary, error)
}
