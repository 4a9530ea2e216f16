package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
)

type SearchConfig struct {
	TopK             int
	ResultCap        int
	PartitionTimeout time.Duration
}

func (c SearchConfig) normalize() SearchConfig {
	out := c
	if out.TopK <= 0 {
		out.TopK = defaultResultCap
	}
	if out.ResultCap <= 0 {
		out.ResultCap = defaultResultCap
	}
	if out.PartitionTimeout <= 0 {
		out.PartitionTimeout = 3 * time.Second
	}
	return out
}

// SearchMetrics is implemented by the observability layer; a nil recorder
// disables metrics.
type SearchMetrics interface {
	PartitionQueried(partition string, duration time.Duration, failed bool)
	ResultsMerged(mode string, results int)
}

// SearchUseCase embeds the query once, fans out one vector query per routed
// partition, and merges the results per the routing mode. A failed or
// timed-out partition contributes zero matches; the search errors only when
// every partition fails.
type SearchUseCase struct {
	embedder ports.Embedder
	vectorDB ports.VectorStore
	cfg      SearchConfig
	logger   *slog.Logger
	metrics  SearchMetrics
}

func NewSearchUseCase(embedder ports.Embedder, vectorDB ports.VectorStore, cfg SearchConfig, logger *slog.Logger, metrics SearchMetrics) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		embedder: embedder,
		vectorDB: vectorDB,
		cfg:      cfg.normalize(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error) {
	if len(routing.Collections) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search", errors.New("routing decision has no collections"))
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type partitionResult struct {
		partition domain.Collection
		matches   []domain.Match
		err       error
	}

	results := make([]partitionResult, len(routing.Collections))
	var wg sync.WaitGroup
	for i, partition := range routing.Collections {
		wg.Add(1)
		go func(i int, partition domain.Collection) {
			defer wg.Done()
			partitionCtx, cancel := context.WithTimeout(ctx, uc.cfg.PartitionTimeout)
			defer cancel()

			start := time.Now()
			matches, err := uc.vectorDB.Query(partitionCtx, partition, queryVector, uc.cfg.TopK)
			if uc.metrics != nil {
				uc.metrics.PartitionQueried(string(partition), time.Since(start), err != nil)
			}
			for j := range matches {
				matches[j].Source = partition
			}
			results[i] = partitionResult{partition: partition, matches: matches, err: err}
		}(i, partition)
	}
	wg.Wait()

	byPartition := make(map[domain.Collection][]domain.Match, len(results))
	failures := 0
	for _, result := range results {
		if result.err != nil {
			failures++
			uc.logger.Warn("partition_search_failed",
				"partition", string(result.partition),
				"error", result.err,
			)
			continue
		}
		byPartition[result.partition] = result.matches
	}
	if failures == len(routing.Collections) {
		return nil, domain.WrapError(domain.ErrTemporary, "search", errors.New("all partitions failed"))
	}

	merged := mergeMatches(routing.Mode, byPartition, uc.cfg.ResultCap)
	if uc.metrics != nil {
		uc.metrics.ResultsMerged(string(routing.Mode), len(merged))
	}
	uc.logger.Debug("search_merged",
		"mode", string(routing.Mode),
		"partitions", len(routing.Collections),
		"results", len(merged),
	)
	return merged, nil
}
