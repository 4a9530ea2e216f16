package usecase

import (
	"context"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
)

// PipelineRetriever composes classifier, router and searcher into the live
// retrieval path the harness and chat layer consume. Queries the classifier
// rejects return no context; the caller falls back to a no-context answer.
type PipelineRetriever struct {
	classifier *Classifier
	router     *Router
	searcher   ports.Searcher
}

func NewPipelineRetriever(classifier *Classifier, router *Router, searcher ports.Searcher) *PipelineRetriever {
	return &PipelineRetriever{
		classifier: classifier,
		router:     router,
		searcher:   searcher,
	}
}

func (r *PipelineRetriever) Retrieve(ctx context.Context, query string) ([]domain.Match, error) {
	classification := r.classifier.Classify(query)
	if !classification.IsRawMaterialsQuery() {
		return nil, nil
	}

	routing := r.router.Route(query, nil)
	return r.searcher.Search(ctx, routing, query)
}
