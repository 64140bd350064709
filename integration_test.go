package mallet_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/astcheck"
	"github.com/chris-regnier/mallet/internal/config"
	"github.com/chris-regnier/mallet/internal/evaluator"
	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/review"
	"github.com/chris-regnier/mallet/internal/store"
)

func TestFullPipeline(t *testing.T) {
	ctx := context.Background()

	// 1. Config
	cfg := config.SystemDefaults()

	// 2. Input
	src := filepath.Join(t.TempDir(), "main.js")
	if err := os.WriteFile(src, []byte("let a = 1\nlet b = 2 \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	artifacts, err := input.NewHandler(cfg.Included, cfg.Excluded).ReadFiles([]string{src})
	if err != nil {
		t.Fatal(err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected 1 artifact, got %d", len(artifacts))
	}

	// 3. Lint
	a, err := analyzer.New(astcheck.DefaultRegistry(), nil, cfg)
	if err != nil {
		t.Fatal(err)
	}
	reports, err := a.Lint(ctx, artifacts)
	if err != nil {
		t.Fatal(err)
	}

	// 4. Assemble SARIF
	sarifLog := a.SARIF(reports, "files")
	if got := len(sarifLog.Runs[0].Results); got != 1 {
		t.Fatalf("expected 1 SARIF result, got %d", got)
	}
	if rule := sarifLog.Runs[0].Results[0].RuleID; rule != "trailing_whitespace" {
		t.Errorf("expected trailing_whitespace, got %q", rule)
	}

	// 5. Store
	fs := store.NewFileStore(t.TempDir())
	id, err := fs.WriteSARIF(ctx, sarifLog)
	if err != nil {
		t.Fatal(err)
	}

	// 6. Evaluate
	eval, err := evaluator.NewEvaluator(filepath.Join(t.TempDir(), "none"))
	if err != nil {
		t.Fatal(err)
	}
	verdict, err := eval.Evaluate(ctx, sarifLog)
	if err != nil {
		t.Fatal(err)
	}
	if verdict.Decision != evaluator.DecisionReview {
		t.Errorf("expected 'review' for warning-level finding, got %q", verdict.Decision)
	}

	// 7. Store verdict
	if err := fs.WriteVerdict(ctx, id, verdict); err != nil {
		t.Fatal(err)
	}
	loaded, err := fs.ReadVerdict(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Decision != evaluator.DecisionReview {
		t.Errorf("expected stored verdict 'review', got %q", loaded.Decision)
	}

	// 8. Review the stored run
	stored, err := fs.ReadSARIF(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	statePath := filepath.Join(fs.RunDir(id), "review.json")
	state := review.NewModel(stored, id).State()
	state.Findings[review.FindingID(stored.Runs[0].Results[0])] = review.FindingReview{Status: review.StatusConfirmed}
	if err := review.SaveState(state, statePath); err != nil {
		t.Fatal(err)
	}
	restored, err := review.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed, _ := restored.Counts(); confirmed != 1 {
		t.Errorf("expected 1 confirmed finding, got %d", confirmed)
	}
}
