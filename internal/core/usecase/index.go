package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
)

type IndexerConfig struct {
	BatchSize  int
	BatchDelay time.Duration
}

func (c IndexerConfig) normalize() IndexerConfig {
	out := c
	if out.BatchSize <= 0 {
		out.BatchSize = 100
	}
	if out.BatchDelay < 0 {
		out.BatchDelay = 0
	}
	return out
}

// IndexMetrics is implemented by the observability layer; a nil recorder
// disables metrics.
type IndexMetrics interface {
	BatchIndexed(collection string, duration time.Duration)
	RecordsIndexed(collection string, processed, skipped int)
}

// IndexUseCase is the offline pipeline that converts source records into
// chunks, embeds them in bounded batches, and upserts them into the target
// partition. Best effort by design: failed records are skipped and counted,
// never fatal. Deterministic chunk ids plus overwrite-semantics upserts make
// any run safe to repeat.
type IndexUseCase struct {
	source   ports.RecordSource
	embedder ports.Embedder
	vectorDB ports.VectorStore
	cfg      IndexerConfig
	limiter  *rate.Limiter
	logger   *slog.Logger
	metrics  IndexMetrics
}

func NewIndexUseCase(
	source ports.RecordSource,
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	cfg IndexerConfig,
	logger *slog.Logger,
	metrics IndexMetrics,
) *IndexUseCase {
	cfg = cfg.normalize()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.BatchDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.BatchDelay), 1)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexUseCase{
		source:   source,
		embedder: embedder,
		vectorDB: vectorDB,
		cfg:      cfg,
		limiter:  limiter,
		logger:   logger,
		metrics:  metrics,
	}
}

// record is the unit the pipeline batches over: one source record rendered
// to its chunks.
type record struct {
	code   string
	chunks []domain.Chunk
}

func (uc *IndexUseCase) IndexCollection(ctx context.Context, collection string) (domain.IndexReport, error) {
	report := domain.IndexReport{Collection: collection}

	records, partition, err := uc.loadRecords(ctx, collection)
	if err != nil {
		return report, err
	}

	runID := uuid.NewString()
	logger := uc.logger.With("run_id", runID, "collection", collection)
	logger.Info("index_run_started", "records", len(records), "batch_size", uc.cfg.BatchSize)

	for start := 0; start < len(records); start += uc.cfg.BatchSize {
		end := start + uc.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		report.Batches++

		if report.Batches > 1 {
			if err := uc.limiter.Wait(ctx); err != nil {
				return report, fmt.Errorf("wait between batches: %w", err)
			}
		}

		batchStart := time.Now()
		processed, written, skipped := uc.indexBatch(ctx, logger, partition, batch)
		report.DocsProcessed += processed
		report.ChunksWritten += written
		report.Skipped += skipped

		if uc.metrics != nil {
			uc.metrics.BatchIndexed(collection, time.Since(batchStart))
			uc.metrics.RecordsIndexed(collection, processed, skipped)
		}
		logger.Info("batch_indexed",
			"batch", report.Batches,
			"processed", processed,
			"skipped", skipped,
			"chunks", written,
		)

		if err := ctx.Err(); err != nil {
			return report, err
		}
	}

	logger.Info("index_run_finished",
		"docs_processed", report.DocsProcessed,
		"chunks_written", report.ChunksWritten,
		"skipped", report.Skipped,
		"batches", report.Batches,
	)
	return report, nil
}

func (uc *IndexUseCase) loadRecords(ctx context.Context, collection string) ([]record, domain.Collection, error) {
	switch collection {
	case string(domain.CollectionInStock), string(domain.CollectionAllFDA):
		partition := domain.Collection(collection)
		onlyInStock := partition == domain.CollectionInStock
		materials, err := uc.source.ListMaterials(ctx, onlyInStock)
		if err != nil {
			return nil, "", fmt.Errorf("list materials: %w", err)
		}
		records := make([]record, 0, len(materials))
		for _, m := range materials {
			records = append(records, record{code: m.Code, chunks: materialChunks(m, partition)})
		}
		return records, partition, nil
	case string(domain.CollectionFormulas):
		formulas, err := uc.source.ListFormulas(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("list formulas: %w", err)
		}
		records := make([]record, 0, len(formulas))
		for _, f := range formulas {
			records = append(records, record{code: f.Code, chunks: formulaChunks(f, domain.CollectionFormulas)})
		}
		return records, domain.CollectionFormulas, nil
	default:
		return nil, "", domain.WrapError(domain.ErrInvalidInput, "index collection", fmt.Errorf("unknown collection %q", collection))
	}
}

// indexBatch embeds and upserts one batch. A failed batch embedding falls
// back to per-record embedding so a single bad record cannot sink its
// neighbors; a failed upsert skips the whole batch and the run continues.
func (uc *IndexUseCase) indexBatch(
	ctx context.Context,
	logger *slog.Logger,
	partition domain.Collection,
	batch []record,
) (processed, written, skipped int) {
	embedded, failed := uc.embedBatch(ctx, logger, batch)
	skipped += failed

	if len(embedded.chunks) == 0 {
		return 0, 0, skipped
	}

	if err := uc.vectorDB.Upsert(ctx, partition, embedded.chunks, embedded.vectors); err != nil {
		logger.Warn("batch_upsert_failed", "error", err, "records", len(embedded.records))
		return 0, 0, skipped + len(embedded.records)
	}
	return len(embedded.records), len(embedded.chunks), skipped
}

type embeddedBatch struct {
	records []string
	chunks  []domain.Chunk
	vectors [][]float32
}

func (uc *IndexUseCase) embedBatch(ctx context.Context, logger *slog.Logger, batch []record) (embeddedBatch, int) {
	texts := make([]string, 0, len(batch)*2)
	for _, rec := range batch {
		for _, chunk := range rec.chunks {
			texts = append(texts, chunk.Text)
		}
	}

	vectors, err := uc.embedTexts(ctx, texts)
	if err == nil {
		out := embeddedBatch{vectors: vectors}
		for _, rec := range batch {
			out.records = append(out.records, rec.code)
			out.chunks = append(out.chunks, rec.chunks...)
		}
		return out, 0
	}

	// Batch-level failure: retry records one at a time and skip the bad ones.
	logger.Warn("batch_embed_failed_falling_back", "error", err)
	out := embeddedBatch{}
	failed := 0
	for _, rec := range batch {
		recTexts := make([]string, len(rec.chunks))
		for i, chunk := range rec.chunks {
			recTexts[i] = chunk.Text
		}
		recVectors, recErr := uc.embedder.Embed(ctx, recTexts)
		if recErr != nil || len(recVectors) != len(rec.chunks) {
			failed++
			logger.Warn("record_embed_skipped", "code", rec.code, "error", recErr)
			continue
		}
		out.records = append(out.records, rec.code)
		out.chunks = append(out.chunks, rec.chunks...)
		out.vectors = append(out.vectors, recVectors...)
	}
	return out, failed
}

// embedTexts respects the provider batch cap by splitting into sub-batches;
// output order mirrors input order.
func (uc *IndexUseCase) embedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	const providerBatchCap = 100

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += providerBatchCap {
		end := start + providerBatchCap
		if end > len(texts) {
			end = len(texts)
		}
		part, err := uc.embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(part) != end-start {
			return nil, errors.New("embedding count mismatch")
		}
		vectors = append(vectors, part...)
	}
	return vectors, nil
}
