package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

type fakeRecordSource struct {
	materials []domain.Material
	formulas  []domain.Formula
	listErr   error
}

func (f *fakeRecordSource) ListMaterials(_ context.Context, onlyInStock bool) ([]domain.Material, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if !onlyInStock {
		return f.materials, nil
	}
	var out []domain.Material
	for _, m := range f.materials {
		if m.InStock {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRecordSource) GetMaterialByCode(_ context.Context, code string) (*domain.Material, error) {
	for i := range f.materials {
		if f.materials[i].Code == code {
			return &f.materials[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRecordSource) ListFormulas(context.Context) ([]domain.Formula, error) {
	return f.formulas, nil
}

func (f *fakeRecordSource) UpsertMaterials(_ context.Context, materials []domain.Material) (int, error) {
	f.materials = append(f.materials, materials...)
	return len(materials), nil
}

type recordingVectorStore struct {
	mu      sync.Mutex
	upserts int
	chunks  []domain.Chunk
	err     error
}

func (s *recordingVectorStore) Upsert(_ context.Context, _ domain.Collection, chunks []domain.Chunk, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}
	s.upserts++
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *recordingVectorStore) Query(context.Context, domain.Collection, []float32, int) ([]domain.Match, error) {
	return nil, nil
}

func catalogMaterials(n int) []domain.Material {
	out := make([]domain.Material, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Material{
			Code:   fmt.Sprintf("RM%06d", i),
			NameEN: fmt.Sprintf("Material %d", i),
		})
	}
	return out
}

func TestIndexCollectionBatchMath(t *testing.T) {
	source := &fakeRecordSource{materials: catalogMaterials(250)}
	store := &recordingVectorStore{}
	uc := NewIndexUseCase(source, &fakeEmbedder{}, store, IndexerConfig{BatchSize: 100}, nil, nil)

	report, err := uc.IndexCollection(context.Background(), string(domain.CollectionAllFDA))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Batches != 3 {
		t.Fatalf("expected 3 batches for 250 records, got %d", report.Batches)
	}
	if report.DocsProcessed != 250 {
		t.Fatalf("expected 250 docs processed, got %d", report.DocsProcessed)
	}
	if report.Skipped != 0 {
		t.Fatalf("expected no skips, got %d", report.Skipped)
	}
	if store.upserts != 3 {
		t.Fatalf("expected one upsert per batch, got %d", store.upserts)
	}
}

func TestIndexCollectionSkipsFailedRecord(t *testing.T) {
	source := &fakeRecordSource{materials: catalogMaterials(250)}
	store := &recordingVectorStore{}
	embedder := &fakeEmbedder{
		embedFn: func(_ context.Context, texts []string) ([][]float32, error) {
			for _, text := range texts {
				if strings.Contains(text, "RM000150") {
					return nil, errors.New("record rejected by provider")
				}
			}
			out := make([][]float32, len(texts))
			for i := range out {
				out[i] = []float32{0.1}
			}
			return out, nil
		},
	}
	uc := NewIndexUseCase(source, embedder, store, IndexerConfig{BatchSize: 100}, nil, nil)

	report, err := uc.IndexCollection(context.Background(), string(domain.CollectionAllFDA))
	if err != nil {
		t.Fatalf("one bad record must not fail the run: %v", err)
	}
	if report.DocsProcessed != 249 {
		t.Fatalf("expected 249 docs processed, got %d", report.DocsProcessed)
	}
	if report.Skipped != 1 {
		t.Fatalf("expected 1 skipped record, got %d", report.Skipped)
	}
	if report.Batches != 3 {
		t.Fatalf("expected 3 batches, got %d", report.Batches)
	}
	for _, chunk := range store.chunks {
		if strings.Contains(chunk.Text, "RM000150") {
			t.Fatalf("failed record leaked into the store: %s", chunk.ID)
		}
	}
}

func TestIndexCollectionUpsertFailureSkipsBatch(t *testing.T) {
	source := &fakeRecordSource{materials: catalogMaterials(150)}
	store := &recordingVectorStore{err: errors.New("store down")}
	uc := NewIndexUseCase(source, &fakeEmbedder{}, store, IndexerConfig{BatchSize: 100}, nil, nil)

	report, err := uc.IndexCollection(context.Background(), string(domain.CollectionAllFDA))
	if err != nil {
		t.Fatalf("upsert failures are skips, not run errors: %v", err)
	}
	if report.DocsProcessed != 0 {
		t.Fatalf("expected 0 processed, got %d", report.DocsProcessed)
	}
	if report.Skipped != 150 {
		t.Fatalf("expected all 150 skipped, got %d", report.Skipped)
	}
}

func TestIndexCollectionStockFilter(t *testing.T) {
	materials := catalogMaterials(10)
	for i := range materials {
		materials[i].InStock = i%2 == 0
	}
	source := &fakeRecordSource{materials: materials}
	store := &recordingVectorStore{}
	uc := NewIndexUseCase(source, &fakeEmbedder{}, store, IndexerConfig{}, nil, nil)

	report, err := uc.IndexCollection(context.Background(), string(domain.CollectionInStock))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.DocsProcessed != 5 {
		t.Fatalf("expected only in-stock records, got %d", report.DocsProcessed)
	}
}

func TestIndexCollectionUnknownCollection(t *testing.T) {
	uc := NewIndexUseCase(&fakeRecordSource{}, &fakeEmbedder{}, &recordingVectorStore{}, IndexerConfig{}, nil, nil)

	_, err := uc.IndexCollection(context.Background(), "nope")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestIndexCollectionCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	source := &fakeRecordSource{materials: catalogMaterials(250)}
	uc := NewIndexUseCase(source, &fakeEmbedder{}, &recordingVectorStore{}, IndexerConfig{BatchSize: 100, BatchDelay: time.Millisecond}, nil, nil)

	_, err := uc.IndexCollection(ctx, string(domain.CollectionAllFDA))
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}

func TestMaterialChunksDeterministic(t *testing.T) {
	m := domain.Material{
		Code:        "RM000001",
		NameEN:      "Vitamin C",
		NameTH:      "วิตามินซี",
		Supplier:    "Acme",
		Category:    "Actives",
		Description: "Ascorbic acid powder.",
		InStock:     true,
	}

	first := materialChunks(m, domain.CollectionInStock)
	second := materialChunks(m, domain.CollectionInStock)
	if len(first) != 2 {
		t.Fatalf("expected identity and description chunks, got %d", len(first))
	}
	if first[0].ID != "RM000001_identity" || first[1].ID != "RM000001_description" {
		t.Fatalf("unexpected chunk ids: %s, %s", first[0].ID, first[1].ID)
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Text != second[i].Text {
			t.Fatalf("chunk rendering not deterministic at %d", i)
		}
	}
	if !strings.HasPrefix(first[0].Text, "Code: RM000001 | Name: Vitamin C") {
		t.Fatalf("unexpected identity text: %s", first[0].Text)
	}
}

func TestMaterialChunksOmitEmptyDescription(t *testing.T) {
	m := domain.Material{Code: "RM000002", NameEN: "Glycerin"}

	chunks := materialChunks(m, domain.CollectionAllFDA)
	if len(chunks) != 1 {
		t.Fatalf("expected identity chunk only, got %d", len(chunks))
	}
	if strings.Contains(chunks[0].Text, "Description") {
		t.Fatalf("empty description leaked into text: %s", chunks[0].Text)
	}
	if chunks[0].Metadata["partition"] != string(domain.CollectionAllFDA) {
		t.Fatalf("unexpected partition metadata: %v", chunks[0].Metadata["partition"])
	}
}

func TestFormulaChunksComposition(t *testing.T) {
	f := domain.Formula{
		Code: "F-001",
		Name: "Brightening serum",
		Ingredients: []domain.FormulaIngredient{
			{MaterialCode: "RM000001", Percent: 2.5},
			{MaterialCode: "RM000002", Percent: 10},
		},
	}

	chunks := formulaChunks(f, domain.CollectionFormulas)
	if len(chunks) != 2 {
		t.Fatalf("expected identity and composition chunks, got %d", len(chunks))
	}
	if chunks[1].ID != "F-001_composition" {
		t.Fatalf("unexpected composition chunk id: %s", chunks[1].ID)
	}
	if !strings.Contains(chunks[1].Text, "RM000001 2.50%") {
		t.Fatalf("unexpected composition text: %s", chunks[1].Text)
	}
}
