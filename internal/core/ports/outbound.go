package ports

import (
	"context"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

// Embedder builds vectors for record chunks and query text. Embed preserves
// input order and accepts at most the provider batch cap per call.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the partitioned index. Upsert has overwrite semantics for
// a given chunk id; Query returns matches ordered by similarity descending.
type VectorStore interface {
	Upsert(ctx context.Context, partition domain.Collection, chunks []domain.Chunk, vectors [][]float32) error
	Query(ctx context.Context, partition domain.Collection, vector []float32, topK int) ([]domain.Match, error)
}

// RecordSource reads source records from the document store. The indexing
// pipeline is the only consumer; nothing in this core writes through it
// except the catalog importer.
type RecordSource interface {
	ListMaterials(ctx context.Context, onlyInStock bool) ([]domain.Material, error)
	GetMaterialByCode(ctx context.Context, code string) (*domain.Material, error)
	ListFormulas(ctx context.Context) ([]domain.Formula, error)
	UpsertMaterials(ctx context.Context, materials []domain.Material) (int, error)
}

// ReindexQueue carries re-index requests from the admin surface to the
// indexing worker.
type ReindexQueue interface {
	PublishReindexRequested(ctx context.Context, collection string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// AnswerGenerator is the LLM black box: it consumes retrieved context and a
// question, and returns draft text. This core never judges with it, only
// against it.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, matches []domain.Match) (string, error)
}
