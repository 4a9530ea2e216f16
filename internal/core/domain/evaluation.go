package domain

// EvaluationCase is one fixed regression case for the retrieval pipeline.
type EvaluationCase struct {
	Name            string   `json:"name" yaml:"name"`
	Query           string   `json:"query" yaml:"query"`
	ExpectedCode    string   `json:"expected_code,omitempty" yaml:"expected_code"`
	ExpectedInfo    []string `json:"expected_info,omitempty" yaml:"expected_info"`
	ContextKeywords []string `json:"context_keywords,omitempty" yaml:"context_keywords"`
}

// EvaluationResult holds the four retrieval-quality scores for one case,
// each in [0,1]. Overall is their unweighted mean. MissingCode carries the
// expected business code when no retrieved match had it.
type EvaluationResult struct {
	Name             string              `json:"name"`
	Query            string              `json:"query"`
	Classification   QueryClassification `json:"classification"`
	Faithfulness     float64             `json:"faithfulness"`
	AnswerRelevancy  float64             `json:"answer_relevancy"`
	ContextPrecision float64             `json:"context_precision"`
	ContextRecall    float64             `json:"context_recall"`
	Overall          float64             `json:"overall_score"`
	MissingInfo      []string            `json:"missing_info,omitempty"`
	MissingCode      string              `json:"missing_code,omitempty"`
}

type EvaluationSummary struct {
	Cases            int     `json:"cases"`
	MeanFaithfulness float64 `json:"mean_faithfulness"`
	MeanRelevancy    float64 `json:"mean_answer_relevancy"`
	MeanPrecision    float64 `json:"mean_context_precision"`
	MeanRecall       float64 `json:"mean_context_recall"`
	MeanOverall      float64 `json:"mean_overall"`
	Verdict          string  `json:"verdict"`
}

const (
	VerdictGood             = "good"
	VerdictAcceptable       = "acceptable"
	VerdictNeedsImprovement = "needs improvement"
)
