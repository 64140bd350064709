package lsp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diagAt(rule string, line, char int) Diagnostic {
	return Diagnostic{
		Range:    Range{Start: Position{Line: line, Character: char}, End: Position{Line: line, Character: char + 1}},
		Severity: DiagnosticSeverityWarning,
		Code:     rule,
		Source:   "mallet",
	}
}

func TestGetCodeActions_FixAll(t *testing.T) {
	uri := "file:///work/a.py"
	text := "x = 1 \ny = 2\n"
	fixed := "x = 1\ny = 2\n"
	diags := []Diagnostic{diagAt("trailing_whitespace", 0, 5)}

	actions := GetCodeActions(uri, text, fixed, "#", diags)
	require.Len(t, actions, 2)

	fixAll := actions[0]
	assert.Equal(t, CodeActionKindSourceFixAll, fixAll.Kind)
	assert.True(t, fixAll.IsPreferred)
	assert.Equal(t, diags, fixAll.Diagnostics)
	require.NotNil(t, fixAll.Edit)
	edits := fixAll.Edit.Changes[uri]
	require.Len(t, edits, 1)
	assert.Equal(t, fixed, edits[0].NewText)
	assert.Equal(t, Range{End: Position{Line: 2}}, edits[0].Range)

	disable := actions[1]
	assert.Equal(t, "# mallet:disable:next trailing_whitespace\n", disable.Edit.Changes[uri][0].NewText)
}

func TestGetCodeActions_DisableKeepsIndent(t *testing.T) {
	uri := "file:///work/a.go"
	text := "func f() {\n\t  x := 1 \n}\n"

	actions := GetCodeActions(uri, text, text, "//", []Diagnostic{diagAt("trailing_whitespace", 1, 9)})
	require.Len(t, actions, 1)
	assert.Equal(t, CodeActionKindQuickFix, actions[0].Kind)
	edit := actions[0].Edit.Changes[uri][0]
	assert.Equal(t, "\t  // mallet:disable:next trailing_whitespace\n", edit.NewText)
	assert.Equal(t, Range{Start: Position{Line: 1}, End: Position{Line: 1}}, edit.Range)
}

func TestGetCodeActions_OnePerLineAndRule(t *testing.T) {
	text := "a  b  c\nd\n"
	diags := []Diagnostic{
		diagAt("comma", 0, 1),
		diagAt("comma", 0, 4),
		diagAt("colon", 0, 4),
		diagAt("comma", 1, 0),
		{Range: Range{}, Message: "no code"},
	}

	actions := GetCodeActions("file:///a.js", text, text, "//", diags)
	var titles []string
	for _, a := range actions {
		titles = append(titles, a.Title)
	}
	assert.Equal(t, []string{
		"mallet: Disable comma for this line",
		"mallet: Disable colon for this line",
		"mallet: Disable comma for this line",
	}, titles)
}

func TestGetCodeActions_NoLineComment(t *testing.T) {
	assert.Empty(t, GetCodeActions("file:///a.x", "a\n", "a\n", "", []Diagnostic{diagAt("r", 0, 0)}))
}

func TestGetCodeActions_LongRuleTitle(t *testing.T) {
	rule := strings.Repeat("r", 60)
	actions := GetCodeActions("file:///a.go", "a\n", "a\n", "//", []Diagnostic{diagAt(rule, 0, 0)})
	require.Len(t, actions, 1)
	assert.Equal(t, "mallet: Disable "+strings.Repeat("r", 47)+"... for this line", actions[0].Title)
	assert.Contains(t, actions[0].Edit.Changes["file:///a.go"][0].NewText, rule)
}

func TestTruncateTitle(t *testing.T) {
	assert.Equal(t, "short", truncateTitle("short", 10))
	assert.Equal(t, "abcdefg...", truncateTitle("abcdefghijklmnop", 10))
	assert.Equal(t, "abc", truncateTitle("abcdef", 3))
}

func TestFilterDiagnosticsForRange(t *testing.T) {
	diags := []Diagnostic{
		diagAt("a", 0, 0),
		diagAt("b", 2, 4),
		diagAt("c", 5, 0),
	}

	got := FilterDiagnosticsForRange(diags, Range{Start: Position{Line: 1}, End: Position{Line: 3}})
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].Code)

	got = FilterDiagnosticsForRange(diags, Range{Start: Position{Line: 2, Character: 5}, End: Position{Line: 2, Character: 5}})
	require.Len(t, got, 1, "touching ranges overlap")

	assert.Empty(t, FilterDiagnosticsForRange(diags, Range{Start: Position{Line: 9}, End: Position{Line: 9}}))
}
