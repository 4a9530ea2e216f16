package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ingredia/retrieval-core/internal/config"
	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
	"github.com/ingredia/retrieval-core/internal/core/usecase"
	"github.com/ingredia/retrieval-core/internal/infrastructure/llm/ollama"
	natsqueue "github.com/ingredia/retrieval-core/internal/infrastructure/queue/nats"
	"github.com/ingredia/retrieval-core/internal/infrastructure/repository/postgres"
	"github.com/ingredia/retrieval-core/internal/infrastructure/resilience"
	"github.com/ingredia/retrieval-core/internal/infrastructure/vector/qdrant"
	"github.com/ingredia/retrieval-core/internal/observability/logging"
	"github.com/ingredia/retrieval-core/internal/observability/metrics"
)

// App owns the process-scoped instances of every client and use case.
// Everything is constructed exactly once here; nothing is recreated
// mid-request.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Classifier *usecase.Classifier
	Router     *usecase.Router
	SearchUC   *usecase.SearchUseCase
	IndexUC    ports.CollectionIndexer
	Retriever  ports.ContextRetriever
	Reranker   *usecase.Reranker
	Harness    ports.Evaluator

	Repo          *postgres.MaterialRepository
	Queue         *natsqueue.Queue
	Metrics       *metrics.IndexerMetrics
	SearchMetrics *metrics.SearchMetrics

	closeFn func()
}

type Options struct {
	Service   string
	WithQueue bool
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	logger := logging.NewJSONLogger(opts.Service, cfg.LogLevel)

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewMaterialRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())
	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	collections := make(map[domain.Collection]string, 3)
	for tag, name := range cfg.QdrantCollections() {
		collections[domain.Collection(tag)] = name
	}
	vectorDB := qdrant.New(cfg.QdrantURL, collections)

	indexerMetrics := metrics.NewIndexerMetrics(opts.Service)
	searchMetrics := metrics.NewSearchMetrics()

	classifier := usecase.NewClassifier()
	router := usecase.NewRouter()
	searchUC := usecase.NewSearchUseCase(embedder, vectorDB, usecase.SearchConfig{
		TopK:             cfg.SearchTopK,
		ResultCap:        cfg.SearchResultCap,
		PartitionTimeout: cfg.PartitionTimeout,
	}, logger, searchMetrics.Recorder(opts.Service))
	indexUC := usecase.NewIndexUseCase(repo, embedder, vectorDB, usecase.IndexerConfig{
		BatchSize:  cfg.EmbedBatchSize,
		BatchDelay: cfg.BatchDelay,
	}, logger, indexerMetrics.Recorder(opts.Service))
	retriever := usecase.NewPipelineRetriever(classifier, router, searchUC)
	reranker := usecase.NewReranker(cfg.GroundednessThreshold)
	harness := usecase.NewHarness(classifier, retriever, generator, logger)

	var queue *natsqueue.Queue
	if opts.WithQueue {
		queue, err = natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init reindex queue: %w", err)
		}
	}

	return &App{
		Config: cfg,
		Logger: logger,

		Classifier: classifier,
		Router:     router,
		SearchUC:   searchUC,
		IndexUC:    indexUC,
		Retriever:  retriever,
		Reranker:   reranker,
		Harness:    harness,

		Repo:          repo,
		Queue:         queue,
		Metrics:       indexerMetrics,
		SearchMetrics: searchMetrics,

		closeFn: func() {
			if queue != nil {
				queue.Close()
			}
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
