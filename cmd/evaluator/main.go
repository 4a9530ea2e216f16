package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ingredia/retrieval-core/internal/bootstrap"
	"github.com/ingredia/retrieval-core/internal/config"
	"github.com/ingredia/retrieval-core/internal/core/domain"
)

func main() {
	casesPath := flag.String("cases", "eval_cases.yaml", "YAML file with evaluation cases")
	minScore := flag.Float64("min-score", -1, "fail below this mean overall score (default from env)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	if *minScore < 0 {
		*minScore = cfg.EvalMinScore
	}

	cases, err := loadCases(*casesPath)
	if err != nil {
		log.Fatalf("load cases: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{Service: "evaluator"})
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	results, summary, err := app.Harness.Evaluate(ctx, cases)
	if err != nil {
		log.Fatalf("evaluate: %v", err)
	}

	printReport(results, summary)

	if summary.MeanOverall < *minScore {
		fmt.Fprintf(os.Stderr, "FAIL: mean overall %.3f below threshold %.3f\n", summary.MeanOverall, *minScore)
		os.Exit(1)
	}
}

func loadCases(path string) ([]domain.EvaluationCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var file struct {
		Cases []domain.EvaluationCase `yaml:"cases"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("%s contains no cases", path)
	}
	return file.Cases, nil
}

func printReport(results []domain.EvaluationResult, summary domain.EvaluationSummary) {
	for _, r := range results {
		fmt.Printf("%-32s overall=%.3f faith=%.3f rel=%.3f prec=%.3f rec=%.3f\n",
			r.Name, r.Overall, r.Faithfulness, r.AnswerRelevancy, r.ContextPrecision, r.ContextRecall)
		for _, missing := range r.MissingInfo {
			fmt.Printf("    missing: %s\n", missing)
		}
		if r.MissingCode != "" {
			fmt.Printf("    missing code: %s\n", r.MissingCode)
		}
	}
	fmt.Printf("\n%d cases | faith=%.3f rel=%.3f prec=%.3f rec=%.3f | overall=%.3f (%s)\n",
		summary.Cases, summary.MeanFaithfulness, summary.MeanRelevancy,
		summary.MeanPrecision, summary.MeanRecall, summary.MeanOverall, summary.Verdict)
}
