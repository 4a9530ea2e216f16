package usecase

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ingredia/retrieval-core/internal/core/domain"
	"github.com/ingredia/retrieval-core/internal/core/ports"
)

const (
	relevancyQueryWeight = 0.3
	relevancyFactWeight  = 0.7
	precisionKeywordMin  = 0.3
	verdictGoodMin       = 0.8
	verdictAcceptableMin = 0.6
)

// Harness replays fixed cases through the classifier and retrieval, scores
// the generated answers, and produces an aggregate fit for regression gating.
// Offline only: no production side effects.
type Harness struct {
	classifier *Classifier
	retriever  ports.ContextRetriever
	generator  ports.AnswerGenerator
	logger     *slog.Logger
}

func NewHarness(classifier *Classifier, retriever ports.ContextRetriever, generator ports.AnswerGenerator, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	return &Harness{
		classifier: classifier,
		retriever:  retriever,
		generator:  generator,
		logger:     logger,
	}
}

func (h *Harness) Evaluate(ctx context.Context, cases []domain.EvaluationCase) ([]domain.EvaluationResult, domain.EvaluationSummary, error) {
	results := make([]domain.EvaluationResult, 0, len(cases))
	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return results, summarize(results), err
		}
		results = append(results, h.evaluateCase(ctx, c))
	}
	return results, summarize(results), nil
}

// evaluateCase is intentionally forgiving: a retrieval or generation failure
// scores the case against empty context/answer instead of aborting the run.
func (h *Harness) evaluateCase(ctx context.Context, c domain.EvaluationCase) domain.EvaluationResult {
	classification := h.classifier.Classify(c.Query)

	matches, err := h.retriever.Retrieve(ctx, c.Query)
	if err != nil {
		h.logger.Warn("evaluation_retrieve_failed", "case", c.Name, "error", err)
		matches = nil
	}

	answer := ""
	if h.generator != nil {
		answer, err = h.generator.GenerateAnswer(ctx, c.Query, matches)
		if err != nil {
			h.logger.Warn("evaluation_generate_failed", "case", c.Name, "error", err)
			answer = ""
		}
	}

	contextText := concatMatchText(matches)

	result := domain.EvaluationResult{
		Name:             c.Name,
		Query:            c.Query,
		Classification:   classification,
		Faithfulness:     scoreFaithfulness(answer, contextText),
		AnswerRelevancy:  scoreRelevancy(c, answer),
		ContextPrecision: scorePrecision(c, matches),
		ContextRecall:    scoreRecall(c, contextText),
		MissingInfo:      missingInfo(c, answer),
		MissingCode:      expectedCodeMissing(c, matches),
	}
	result.Overall = (result.Faithfulness + result.AnswerRelevancy + result.ContextPrecision + result.ContextRecall) / 4

	h.logger.Info("evaluation_case_scored",
		"case", c.Name,
		"query_type", string(classification.Type),
		"overall", result.Overall,
		"missing_info", len(result.MissingInfo),
	)
	return result
}

func scoreFaithfulness(answer, contextText string) float64 {
	clauses := splitClauses(answer)
	if len(clauses) == 0 {
		return 0
	}
	supported := 0
	for _, clause := range clauses {
		if clauseSupported(clause, contextText) {
			supported++
		}
	}
	return float64(supported) / float64(len(clauses))
}

func scoreRelevancy(c domain.EvaluationCase, answer string) float64 {
	queryScore := supportedFraction(contentWords(c.Query), answer)

	factScore := 0.0
	if len(c.ExpectedInfo) > 0 {
		lowerAnswer := strings.ToLower(answer)
		found := 0
		for _, fact := range c.ExpectedInfo {
			if strings.Contains(lowerAnswer, strings.ToLower(fact)) {
				found++
			}
		}
		factScore = float64(found) / float64(len(c.ExpectedInfo))
	}

	score := relevancyQueryWeight*queryScore + relevancyFactWeight*factScore
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func scorePrecision(c domain.EvaluationCase, matches []domain.Match) float64 {
	if len(matches) == 0 || len(c.ContextKeywords) == 0 {
		return 0
	}
	relevant := 0
	for _, m := range matches {
		lower := strings.ToLower(m.Text)
		found := 0
		for _, keyword := range c.ContextKeywords {
			if strings.Contains(lower, strings.ToLower(keyword)) {
				found++
			}
		}
		if float64(found)/float64(len(c.ContextKeywords)) >= precisionKeywordMin {
			relevant++
		}
	}
	return float64(relevant) / float64(len(matches))
}

func scoreRecall(c domain.EvaluationCase, contextText string) float64 {
	if len(c.ExpectedInfo) == 0 {
		return 0
	}
	lower := strings.ToLower(contextText)
	found := 0
	for _, fact := range c.ExpectedInfo {
		if strings.Contains(lower, strings.ToLower(fact)) {
			found++
		}
	}
	return float64(found) / float64(len(c.ExpectedInfo))
}

// expectedCodeMissing reports the expected business code when none of the
// retrieved matches carries it. Case-insensitive: match codes come back in
// stored casing.
func expectedCodeMissing(c domain.EvaluationCase, matches []domain.Match) string {
	if c.ExpectedCode == "" {
		return ""
	}
	want := strings.ToUpper(c.ExpectedCode)
	for _, m := range matches {
		if strings.ToUpper(m.Code) == want {
			return ""
		}
	}
	return c.ExpectedCode
}

// missingInfo lists the expected facts absent from the answer, for per-case
// debugging.
func missingInfo(c domain.EvaluationCase, answer string) []string {
	lower := strings.ToLower(answer)
	var missing []string
	for _, fact := range c.ExpectedInfo {
		if !strings.Contains(lower, strings.ToLower(fact)) {
			missing = append(missing, fact)
		}
	}
	return missing
}

func summarize(results []domain.EvaluationResult) domain.EvaluationSummary {
	summary := domain.EvaluationSummary{Cases: len(results)}
	if len(results) == 0 {
		summary.Verdict = domain.VerdictNeedsImprovement
		return summary
	}

	for _, r := range results {
		summary.MeanFaithfulness += r.Faithfulness
		summary.MeanRelevancy += r.AnswerRelevancy
		summary.MeanPrecision += r.ContextPrecision
		summary.MeanRecall += r.ContextRecall
		summary.MeanOverall += r.Overall
	}
	n := float64(len(results))
	summary.MeanFaithfulness /= n
	summary.MeanRelevancy /= n
	summary.MeanPrecision /= n
	summary.MeanRecall /= n
	summary.MeanOverall /= n

	switch {
	case summary.MeanOverall >= verdictGoodMin:
		summary.Verdict = domain.VerdictGood
	case summary.MeanOverall >= verdictAcceptableMin:
		summary.Verdict = domain.VerdictAcceptable
	default:
		summary.Verdict = domain.VerdictNeedsImprovement
	}
	return summary
}
