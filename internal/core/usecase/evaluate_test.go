package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/ingredia/retrieval-core/internal/core/domain"
)

type fakeRetriever struct {
	matches []domain.Match
	err     error
}

func (f *fakeRetriever) Retrieve(context.Context, string) ([]domain.Match, error) {
	return f.matches, f.err
}

type fakeGenerator struct {
	answer string
	err    error
}

func (f *fakeGenerator) GenerateAnswer(context.Context, string, []domain.Match) (string, error) {
	return f.answer, f.err
}

func vitaminCCase() domain.EvaluationCase {
	return domain.EvaluationCase{
		Name:            "vitamin-c-lookup",
		Query:           "what is RM000001",
		ExpectedCode:    "RM000001",
		ExpectedInfo:    []string{"Vitamin C", "Acme"},
		ContextKeywords: []string{"vitamin", "RM000001"},
	}
}

func TestEvaluateScoresWithinBounds(t *testing.T) {
	retriever := &fakeRetriever{matches: []domain.Match{
		{ID: "1", Code: "RM000001", Text: "Code: RM000001 | Name: Vitamin C | Supplier: Acme", Score: 0.9},
	}}
	generator := &fakeGenerator{answer: "RM000001 is Vitamin C supplied by Acme."}
	h := NewHarness(NewClassifier(), retriever, generator, nil)

	results, summary, err := h.Evaluate(context.Background(), []domain.EvaluationCase{vitaminCCase()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	r := results[0]
	for name, score := range map[string]float64{
		"faithfulness": r.Faithfulness,
		"relevancy":    r.AnswerRelevancy,
		"precision":    r.ContextPrecision,
		"recall":       r.ContextRecall,
		"overall":      r.Overall,
	} {
		if score < 0 || score > 1 {
			t.Fatalf("%s out of bounds: %f", name, score)
		}
	}

	mean := (r.Faithfulness + r.AnswerRelevancy + r.ContextPrecision + r.ContextRecall) / 4
	if math.Abs(r.Overall-mean) > 1e-9 {
		t.Fatalf("overall %f is not the mean %f", r.Overall, mean)
	}
	if summary.Cases != 1 {
		t.Fatalf("expected 1 case in summary, got %d", summary.Cases)
	}
}

func TestEvaluateGoodCaseScoresHigh(t *testing.T) {
	retriever := &fakeRetriever{matches: []domain.Match{
		{ID: "1", Code: "RM000001", Text: "Code: RM000001 | Name: Vitamin C | Supplier: Acme", Score: 0.9},
	}}
	generator := &fakeGenerator{answer: "RM000001 is Vitamin C supplied by Acme."}
	h := NewHarness(NewClassifier(), retriever, generator, nil)

	results, summary, err := h.Evaluate(context.Background(), []domain.EvaluationCase{vitaminCCase()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r := results[0]
	if r.ContextRecall != 1.0 {
		t.Fatalf("both expected facts are in context, recall should be 1.0, got %f", r.ContextRecall)
	}
	if r.ContextPrecision != 1.0 {
		t.Fatalf("the only chunk carries both keywords, precision should be 1.0, got %f", r.ContextPrecision)
	}
	if len(r.MissingInfo) != 0 {
		t.Fatalf("answer carries all expected facts, got missing %v", r.MissingInfo)
	}
	if r.MissingCode != "" {
		t.Fatalf("a retrieved match carries the expected code, got missing code %q", r.MissingCode)
	}
	if summary.Verdict != domain.VerdictGood && summary.Verdict != domain.VerdictAcceptable {
		t.Fatalf("expected a passing verdict, got %s", summary.Verdict)
	}
}

func TestEvaluateRetrievalFailureScoresAgainstEmptyContext(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("vector store down")}
	generator := &fakeGenerator{answer: "Vitamin C supplied by Acme."}
	h := NewHarness(NewClassifier(), retriever, generator, nil)

	results, _, err := h.Evaluate(context.Background(), []domain.EvaluationCase{vitaminCCase()})
	if err != nil {
		t.Fatalf("retrieval failure must not abort the run: %v", err)
	}
	r := results[0]
	if r.ContextRecall != 0 || r.ContextPrecision != 0 {
		t.Fatalf("empty context must zero the context scores, got recall %f precision %f", r.ContextRecall, r.ContextPrecision)
	}
	if r.MissingCode != "RM000001" {
		t.Fatalf("no retrieved match carries the expected code, got missing code %q", r.MissingCode)
	}
}

func TestEvaluateGenerationFailureScoresEmptyAnswer(t *testing.T) {
	retriever := &fakeRetriever{matches: []domain.Match{
		{ID: "1", Text: "Code: RM000001 | Name: Vitamin C | Supplier: Acme"},
	}}
	generator := &fakeGenerator{err: errors.New("llm down")}
	h := NewHarness(NewClassifier(), retriever, generator, nil)

	results, _, err := h.Evaluate(context.Background(), []domain.EvaluationCase{vitaminCCase()})
	if err != nil {
		t.Fatalf("generation failure must not abort the run: %v", err)
	}
	r := results[0]
	if r.Faithfulness != 0 {
		t.Fatalf("empty answer has no supported clauses, got %f", r.Faithfulness)
	}
	if len(r.MissingInfo) != 2 {
		t.Fatalf("every expected fact is missing from an empty answer, got %v", r.MissingInfo)
	}
}

func TestEvaluateMissingInfoDiagnostics(t *testing.T) {
	retriever := &fakeRetriever{matches: []domain.Match{
		{ID: "1", Text: "Code: RM000001 | Name: Vitamin C"},
	}}
	generator := &fakeGenerator{answer: "RM000001 is Vitamin C."}
	h := NewHarness(NewClassifier(), retriever, generator, nil)

	results, _, err := h.Evaluate(context.Background(), []domain.EvaluationCase{vitaminCCase()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	missing := results[0].MissingInfo
	if len(missing) != 1 || missing[0] != "Acme" {
		t.Fatalf("expected only the supplier fact missing, got %v", missing)
	}
}

func TestEvaluateCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := NewHarness(NewClassifier(), &fakeRetriever{}, &fakeGenerator{}, nil)

	results, _, err := h.Evaluate(ctx, []domain.EvaluationCase{vitaminCCase()})
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if len(results) != 0 {
		t.Fatalf("expected no results after immediate cancel, got %d", len(results))
	}
}

func TestSummarizeEmptyRun(t *testing.T) {
	summary := summarize(nil)
	if summary.Cases != 0 {
		t.Fatalf("expected 0 cases, got %d", summary.Cases)
	}
	if summary.Verdict != domain.VerdictNeedsImprovement {
		t.Fatalf("empty run must not pass, got %s", summary.Verdict)
	}
}

func TestSummarizeVerdictBands(t *testing.T) {
	mk := func(overall float64) domain.EvaluationResult {
		return domain.EvaluationResult{
			Faithfulness:     overall,
			AnswerRelevancy:  overall,
			ContextPrecision: overall,
			ContextRecall:    overall,
			Overall:          overall,
		}
	}

	tests := []struct {
		overall float64
		verdict string
	}{
		{0.95, domain.VerdictGood},
		{0.8, domain.VerdictGood},
		{0.7, domain.VerdictAcceptable},
		{0.6, domain.VerdictAcceptable},
		{0.5, domain.VerdictNeedsImprovement},
	}
	for _, tc := range tests {
		summary := summarize([]domain.EvaluationResult{mk(tc.overall)})
		if summary.Verdict != tc.verdict {
			t.Fatalf("overall %f: expected %s, got %s", tc.overall, tc.verdict, summary.Verdict)
		}
	}
}

func TestPipelineRetrieverGatesNonDomainQueries(t *testing.T) {
	searchCalled := false
	searcher := searcherFunc(func(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error) {
		searchCalled = true
		return nil, nil
	})
	r := NewPipelineRetriever(NewClassifier(), NewRouter(), searcher)

	matches, err := r.Retrieve(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches != nil || searchCalled {
		t.Fatal("off-domain query must skip search entirely")
	}
}

func TestPipelineRetrieverSearchesDomainQueries(t *testing.T) {
	want := []domain.Match{{ID: "1", Code: "RM000001"}}
	searcher := searcherFunc(func(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error) {
		if len(routing.Collections) == 0 {
			t.Fatal("expected a routed decision")
		}
		return want, nil
	})
	r := NewPipelineRetriever(NewClassifier(), NewRouter(), searcher)

	matches, err := r.Retrieve(context.Background(), "what is RM000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Code != "RM000001" {
		t.Fatalf("expected search results passed through, got %v", matches)
	}
}

type searcherFunc func(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error)

func (f searcherFunc) Search(ctx context.Context, routing domain.RoutingDecision, query string) ([]domain.Match, error) {
	return f(ctx, routing, query)
}
