package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/infrastructure/resilience"
)

func testExecutor() *resilience.Executor {
	return resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
}

func TestEmbedPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "embed-model" {
			t.Fatalf("unexpected model %s", req.Model)
		}
		embeddings := make([][]float32, len(req.Input))
		for i := range req.Input {
			embeddings[i] = []float32{float32(i)}
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen-model", "embed-model", testExecutor()))
	vectors, err := embedder.Embed(context.Background(), []string{"first", "second", "third"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}
	for i, v := range vectors {
		if len(v) != 1 || v[0] != float32(i) {
			t.Fatalf("vector %d out of order: %v", i, v)
		}
	}
}

func TestEmbedRejectsOversizedBatch(t *testing.T) {
	embedder := NewEmbedder(New("http://unused", "gen", "embed", testExecutor()))

	texts := make([]string, MaxEmbedBatch+1)
	_, err := embedder.Embed(context.Background(), texts)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}

func TestEmbedEmptyInputIsNoop(t *testing.T) {
	embedder := NewEmbedder(New("http://unused", "gen", "embed", testExecutor()))

	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("expected nil/nil for empty input, got %v, %v", vectors, err)
	}
}

func TestEmbedRetriesServerErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1}}})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", testExecutor()))
	vectors, err := embedder.EmbedQuery(context.Background(), "collagen")
	if err != nil {
		t.Fatalf("expected recovery after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(vectors) != 1 {
		t.Fatalf("unexpected vector: %v", vectors)
	}
}

func TestEmbedDoesNotRetryClientErrors(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad model", http.StatusBadRequest)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", testExecutor()))
	_, err := embedder.Embed(context.Background(), []string{"x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("client errors must not retry, got %d attempts", calls)
	}
	if !domain.IsKind(err, domain.ErrPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
}

func TestEmbedCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"embeddings": [][]float32{{0.1}}})
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed", testExecutor()))
	_, err := embedder.Embed(context.Background(), []string{"first", "second"})
	if err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestGenerateAnswerBuildsPromptFromMatches(t *testing.T) {
	var gotPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Fatal("expected stream disabled")
		}
		gotPrompt = req.Prompt
		json.NewEncoder(w).Encode(map[string]any{"response": "  Vitamin C from Acme.  "})
	}))
	defer server.Close()

	generator := NewGenerator(New(server.URL, "gen-model", "embed-model", testExecutor()))
	answer, err := generator.GenerateAnswer(context.Background(), "what is RM000001", []domain.Match{
		{ID: "1", Text: "Code: RM000001 | Name: Vitamin C"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if answer != "Vitamin C from Acme." {
		t.Fatalf("expected trimmed answer, got %q", answer)
	}
	for _, want := range []string{"Code: RM000001 | Name: Vitamin C", "what is RM000001"} {
		if !strings.Contains(gotPrompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, gotPrompt)
		}
	}
}

func TestClassifyProviderErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{"cancelled", context.Canceled, false, false},
		{"server error", &HTTPStatusError{StatusCode: http.StatusInternalServerError}, true, true},
		{"rate limited", &HTTPStatusError{StatusCode: http.StatusTooManyRequests}, true, true},
		{"bad request", &HTTPStatusError{StatusCode: http.StatusBadRequest}, false, false},
	}
	for _, tc := range tests {
		class := classifyProviderError(tc.err)
		if class.Retryable != tc.retryable || class.RecordFailure != tc.record {
			t.Fatalf("%s: got %+v", tc.name, class)
		}
	}
}
