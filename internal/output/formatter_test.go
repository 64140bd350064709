package output

import (
	"fmt"
	"testing"

	"github.com/chris-regnier/mallet/internal/sarif"
)

func TestResolveFormat_ExplicitFlag(t *testing.T) {
	tests := []struct {
		name     string
		flag     string
		tty      bool
		expected string
	}{
		{"json flag with tty", "json", true, "json"},
		{"json flag without tty", "json", false, "json"},
		{"sarif flag with tty", "sarif", true, "sarif"},
		{"sarif flag without tty", "sarif", false, "sarif"},
		{"markdown flag with tty", "markdown", true, "markdown"},
		{"text flag with tty", "text", true, "text"},
		{"pretty flag without tty", "pretty", false, "pretty"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveFormat(tc.flag, tc.tty)
			if got != tc.expected {
				t.Errorf("ResolveFormat(%q, %v) = %q, want %q", tc.flag, tc.tty, got, tc.expected)
			}
		})
	}
}

func TestResolveFormat_AutoDetect(t *testing.T) {
	tests := []struct {
		name     string
		tty      bool
		expected string
	}{
		{"tty true defaults to pretty", true, "pretty"},
		{"tty false defaults to text", false, "text"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveFormat("", tc.tty)
			if got != tc.expected {
				t.Errorf("ResolveFormat(%q, %v) = %q, want %q", "", tc.tty, got, tc.expected)
			}
		})
	}
}

func TestNewFormatter_ValidFormats(t *testing.T) {
	for _, f := range Formats {
		t.Run(f, func(t *testing.T) {
			formatter, err := NewFormatter(f)
			if err != nil {
				t.Fatalf("NewFormatter(%q) returned error: %v", f, err)
			}
			if formatter == nil {
				t.Fatalf("NewFormatter(%q) returned nil formatter", f)
			}
		})
	}
}

func TestNewFormatter_InvalidFormat(t *testing.T) {
	invalidFormats := []string{"xml", "csv", "html", "JSON", ""}
	for _, f := range invalidFormats {
		t.Run(f, func(t *testing.T) {
			formatter, err := NewFormatter(f)
			if err == nil {
				t.Errorf("NewFormatter(%q) expected error, got nil", f)
			}
			if formatter != nil {
				t.Errorf("NewFormatter(%q) expected nil formatter, got %v", f, formatter)
			}
		})
	}
}

func TestAnalysisOutput_ResultsAcrossRuns(t *testing.T) {
	log := testSARIFLog()
	log.Runs = append(log.Runs, log.Runs[0])
	out := &AnalysisOutput{SARIFLog: log}
	if got := len(out.Results()); got != 2 {
		t.Errorf("Results() returned %d results, want 2", got)
	}

	var nilOut *AnalysisOutput
	if nilOut.Results() != nil {
		t.Error("expected nil results for nil output")
	}
}

func TestSortByLocation(t *testing.T) {
	at := func(uri string, line, col int, rule string) sarif.Result {
		return sarif.Result{
			RuleID: rule,
			Locations: []sarif.Location{{PhysicalLocation: sarif.PhysicalLocation{
				ArtifactLocation: sarif.ArtifactLocation{URI: uri},
				Region:           sarif.Region{StartLine: line, StartColumn: col},
			}}},
		}
	}
	in := []sarif.Result{
		at("b.js", 1, 1, "x"),
		at("a.js", 3, 1, "x"),
		at("a.js", 1, 5, "y"),
		at("a.js", 1, 5, "a"),
		at("a.js", 1, 2, "z"),
	}
	got := sortByLocation(in)
	want := []string{"a.js:1:2:z", "a.js:1:5:a", "a.js:1:5:y", "a.js:3:1:x", "b.js:1:1:x"}
	for i, r := range got {
		region := r.Region()
		key := fmt.Sprintf("%s:%d:%d:%s", r.URI(), region.StartLine, region.StartColumn, r.RuleID)
		if key != want[i] {
			t.Errorf("position %d = %s, want %s", i, key, want[i])
		}
	}
	if in[0].URI() != "b.js" {
		t.Error("sortByLocation modified its input")
	}
}
