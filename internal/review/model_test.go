package review

import (
	"fmt"
	"testing"

	"github.com/chris-regnier/mallet/internal/sarif"
)

func result(rule, level, uri string, line, col int) sarif.Result {
	return sarif.Result{
		RuleID:  rule,
		Level:   level,
		Message: sarif.Message{Text: rule + " message"},
		Locations: []sarif.Location{{PhysicalLocation: sarif.PhysicalLocation{
			ArtifactLocation: sarif.ArtifactLocation{URI: uri},
			Region:           sarif.Region{StartLine: line, StartColumn: col},
		}}},
	}
}

func testLog(results ...sarif.Result) *sarif.Log {
	log := sarif.NewLog("mallet", "test")
	log.Runs[0].Results = results
	log.Runs[0].Tool.Driver.Rules = []sarif.ReportingDescriptor{
		{ID: "todo", Name: "Todo", ShortDescription: sarif.Message{Text: "TODOs should be resolved"}},
	}
	return log
}

func sampleLog() *sarif.Log {
	return testLog(
		result("trailing_whitespace", "warning", "b.go", 3, 5),
		result("todo", "note", "a.go", 10, 1),
		result("empty_handler", "error", "b.go", 1, 1),
		result("todo", "warning", "a.go", 2, 4),
	)
}

func TestNewModel_SortsAndGroups(t *testing.T) {
	m := NewModel(sampleLog(), "run-1")

	want := []string{"a.go:2", "a.go:10", "b.go:1", "b.go:3"}
	if len(m.findings) != len(want) {
		t.Fatalf("expected %d findings, got %d", len(want), len(m.findings))
	}
	for i, f := range m.findings {
		got := fmt.Sprintf("%s:%d", f.URI(), f.Region().StartLine)
		if got != want[i] {
			t.Errorf("finding %d = %s, want %s", i, got, want[i])
		}
	}
	if len(m.files["a.go"]) != 2 || len(m.files["b.go"]) != 2 {
		t.Errorf("unexpected grouping: %v", m.files)
	}
	if _, ok := m.rules["todo"]; !ok {
		t.Error("expected rule descriptors to be indexed")
	}
}

func TestNewModel_EmptyLog(t *testing.T) {
	m := NewModel(&sarif.Log{}, "")
	if len(m.findings) != 0 || len(m.files) != 0 {
		t.Errorf("expected no findings, got %d", len(m.findings))
	}
	if _, ok := m.selected(); ok {
		t.Error("expected nothing selected")
	}
}

func TestNewModel_SkipsFilesWithoutLocation(t *testing.T) {
	m := NewModel(testLog(sarif.Result{RuleID: "x", Level: "error"}), "")
	if len(m.findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(m.findings))
	}
	if len(m.files) != 0 {
		t.Errorf("expected no files, got %v", m.files)
	}
}

func TestModelPath(t *testing.T) {
	log := sampleLog()
	log.Runs[0].Invocations = []sarif.Invocation{{WorkingDirectory: sarif.ArtifactLocation{URI: "/work"}}}

	m := NewModel(log, "")
	if got := m.path("src/a.go"); got != "/work/src/a.go" {
		t.Errorf("path() = %q, want /work/src/a.go", got)
	}
	if got := m.path("/abs/a.go"); got != "/abs/a.go" {
		t.Errorf("path() = %q, want /abs/a.go", got)
	}

	m = NewModel(log, "", WithRoot("/other"))
	if got := m.path("a.go"); got != "/other/a.go" {
		t.Errorf("path() = %q, want /other/a.go", got)
	}
}

func TestFindingID(t *testing.T) {
	if got := FindingID(result("todo", "warning", "a.go", 2, 4)); got != "todo:a.go:2:4" {
		t.Errorf("FindingID() = %q", got)
	}
}
