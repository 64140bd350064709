package lsp

import (
	"context"
	"fmt"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/input"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/sarif"
)

// AnalyzerWrapper adapts the analyzer to unsaved editor buffers. The
// analyzer's own cache, if any, serves repeated requests.
type AnalyzerWrapper struct {
	a *analyzer.Analyzer
}

// NewAnalyzerWrapper creates a new analyzer wrapper
func NewAnalyzerWrapper(a *analyzer.Analyzer) *AnalyzerWrapper {
	return &AnalyzerWrapper{a: a}
}

// artifact builds the in-memory artifact for a buffer. ok is false when
// no grammar handles the path.
func artifact(path, content string) (input.Artifact, bool) {
	lang, ok := parse.Detect(path)
	if !ok {
		return input.Artifact{}, false
	}
	return input.Artifact{Path: path, Content: content, Language: lang.Name}, true
}

// Lint returns the violations in content as SARIF results. Files in an
// unsupported language have none.
func (w *AnalyzerWrapper) Lint(ctx context.Context, path, content string) ([]sarif.Result, error) {
	art, ok := artifact(path, content)
	if !ok {
		return []sarif.Result{}, nil
	}
	reports, err := w.a.Lint(ctx, []input.Artifact{art})
	if err != nil {
		return nil, err
	}
	if err := reports[0].Err; err != nil {
		return nil, fmt.Errorf("linting %s: %w", path, err)
	}
	results := analyzer.Results(reports)
	if results == nil {
		results = []sarif.Result{}
	}
	return results, nil
}

// Fix returns content with every correction applied, and whether it
// changed. Nothing is written to disk.
func (w *AnalyzerWrapper) Fix(ctx context.Context, path, content string) (string, bool, error) {
	art, ok := artifact(path, content)
	if !ok {
		return content, false, nil
	}
	reports, err := w.a.Correct(ctx, []input.Artifact{art}, false)
	if err != nil {
		return "", false, err
	}
	rep := reports[0]
	if rep.Err != nil {
		return "", false, fmt.Errorf("correcting %s: %w", path, rep.Err)
	}
	if !rep.Changed {
		return content, false, nil
	}
	return rep.Text, true, nil
}
