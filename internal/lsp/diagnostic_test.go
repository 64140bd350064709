package lsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris-regnier/mallet/internal/sarif"
)

func pointResult(rule, level string, line, col int) sarif.Result {
	return sarif.Result{
		RuleID:  rule,
		Level:   level,
		Message: sarif.Message{Text: rule + " violation"},
		Locations: []sarif.Location{{PhysicalLocation: sarif.PhysicalLocation{
			ArtifactLocation: sarif.ArtifactLocation{URI: "a.go"},
			Region:           sarif.Region{StartLine: line, StartColumn: col},
		}}},
	}
}

func TestLevelToSeverity(t *testing.T) {
	assert.Equal(t, DiagnosticSeverityError, levelToSeverity("error"))
	assert.Equal(t, DiagnosticSeverityWarning, levelToSeverity("warning"))
	assert.Equal(t, DiagnosticSeverityInformation, levelToSeverity("note"))
	assert.Equal(t, DiagnosticSeverityInformation, levelToSeverity(""))
}

func TestSarifToDiagnostic(t *testing.T) {
	diag := SarifToDiagnostic(pointResult("todo", "error", 2, 3), "a\nb TODO\n")

	assert.Equal(t, "todo", diag.Code)
	assert.Equal(t, "mallet", diag.Source)
	assert.Equal(t, "todo violation", diag.Message)
	assert.Equal(t, DiagnosticSeverityError, diag.Severity)
	assert.Equal(t, Range{Start: Position{Line: 1, Character: 2}, End: Position{Line: 1, Character: 3}}, diag.Range)
	assert.Nil(t, diag.Data)
}

func TestSarifToDiagnostic_UTF16Columns(t *testing.T) {
	text := "héllo 😀x\n"

	emoji := SarifToDiagnostic(pointResult("r", "warning", 1, 7), text)
	assert.Equal(t, Position{Character: 6}, emoji.Range.Start)
	assert.Equal(t, Position{Character: 8}, emoji.Range.End)

	after := SarifToDiagnostic(pointResult("r", "warning", 1, 8), text)
	assert.Equal(t, Position{Character: 8}, after.Range.Start)
	assert.Equal(t, Position{Character: 9}, after.Range.End)
}

func TestSarifToDiagnostic_EndOfLine(t *testing.T) {
	diag := SarifToDiagnostic(pointResult("r", "warning", 1, 4), "abc\r\n")
	assert.Equal(t, Range{Start: Position{Character: 3}, End: Position{Character: 3}}, diag.Range)

	missing := SarifToDiagnostic(pointResult("r", "warning", 9, 1), "abc\n")
	assert.Equal(t, Range{Start: Position{Line: 8}, End: Position{Line: 8}}, missing.Range)
}

func TestSarifToDiagnostic_Offset(t *testing.T) {
	r := pointResult("todo", "warning", 1, 1)
	r.Properties = map[string]interface{}{"mallet/offset": 12}
	diag := SarifToDiagnostic(r, "TODO\n")
	require.NotNil(t, diag.Data)
	assert.Equal(t, 12, diag.Data.Offset)

	// offsets read back from JSON are float64
	var decoded sarif.Result
	data, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	diag = SarifToDiagnostic(decoded, "TODO\n")
	require.NotNil(t, diag.Data)
	assert.Equal(t, 12, diag.Data.Offset)
}

func TestSarifResultsToDiagnostics(t *testing.T) {
	assert.Equal(t, []Diagnostic{}, SarifResultsToDiagnostics(nil, ""))

	diags := SarifResultsToDiagnostics([]sarif.Result{
		pointResult("a", "error", 1, 1),
		pointResult("b", "note", 2, 1),
	}, "x\ny\n")
	require.Len(t, diags, 2)
	assert.Equal(t, "a", diags[0].Code)
	assert.Equal(t, 1, diags[1].Range.Start.Line)
}

func TestOffsetToPosition(t *testing.T) {
	text := "a\n😀b\n"
	assert.Equal(t, Position{}, OffsetToPosition(text, 0))
	assert.Equal(t, Position{Line: 1}, OffsetToPosition(text, 2))
	assert.Equal(t, Position{Line: 1, Character: 2}, OffsetToPosition(text, 6))
	assert.Equal(t, Position{Line: 2}, OffsetToPosition(text, len(text)))
	assert.Equal(t, Position{Line: 2}, OffsetToPosition(text, 100))
	assert.Equal(t, Position{}, OffsetToPosition(text, -1))
}

func TestFullRange(t *testing.T) {
	assert.Equal(t, Range{End: Position{Line: 1, Character: 3}}, fullRange("one\ntwo"))
	assert.Equal(t, Range{}, fullRange(""))
}
