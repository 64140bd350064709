// Package output provides formatters for rendering mallet lint results
// in different output formats (JSON, SARIF, Markdown, text, pretty terminal).
package output

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chris-regnier/mallet/internal/analyzer"
	"github.com/chris-regnier/mallet/internal/sarif"
	"github.com/chris-regnier/mallet/internal/store"
)

// Formatter renders an AnalysisOutput into a byte slice in a specific format.
type Formatter interface {
	Format(result *AnalysisOutput) ([]byte, error)
}

// AnalysisOutput holds the complete results of a lint run, combining the
// verdict, SARIF log, and optional analyzer statistics.
type AnalysisOutput struct {
	Verdict  *store.Verdict
	SARIFLog *sarif.Log
	Stats    *analyzer.Stats // optional, nil if not collected
	// Sources maps artifact URIs to their text, for formatters that show
	// code snippets. Optional.
	Sources map[string]string
}

// Results returns the results of every run of the log.
func (o *AnalysisOutput) Results() []sarif.Result {
	if o == nil || o.SARIFLog == nil {
		return nil
	}
	var out []sarif.Result
	for _, run := range o.SARIFLog.Runs {
		out = append(out, run.Results...)
	}
	return out
}

// Formats lists the supported format names.
var Formats = []string{"json", "sarif", "markdown", "text", "pretty"}

// ResolveFormat determines the output format to use. If flagValue is non-empty,
// it is returned directly. Otherwise, "pretty" is returned for TTY output and
// "text" for non-TTY (piped) output.
func ResolveFormat(flagValue string, stdoutIsTTY bool) string {
	if flagValue != "" {
		return flagValue
	}
	if stdoutIsTTY {
		return "pretty"
	}
	return "text"
}

// NewFormatter returns a Formatter for the given format name.
// Returns an error for unknown format names.
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "json":
		return &JSONFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	case "markdown":
		return &MarkdownFormatter{}, nil
	case "text":
		return &TextFormatter{}, nil
	case "pretty":
		return &PrettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format: %q (supported: json, sarif, markdown, text, pretty)", format)
	}
}

// sortByLocation orders results by file, then line and column, then rule.
func sortByLocation(results []sarif.Result) []sarif.Result {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b sarif.Result) int {
		ra, rb := a.Region(), b.Region()
		return cmp.Or(
			cmp.Compare(a.URI(), b.URI()),
			cmp.Compare(ra.StartLine, rb.StartLine),
			cmp.Compare(ra.StartColumn, rb.StartColumn),
			cmp.Compare(a.RuleID, b.RuleID),
		)
	})
	return sorted
}
