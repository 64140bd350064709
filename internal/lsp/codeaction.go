package lsp

import (
	"fmt"
	"strings"
)

// GetCodeActions returns the actions for diagnostics of a document: one
// quick fix per line and rule that inserts a disable command above the
// line, and a fix-all action when corrections change the text. An empty
// lineComment disables the quick fixes.
func GetCodeActions(uri, text, fixed, lineComment string, diagnostics []Diagnostic) []CodeAction {
	var actions []CodeAction

	if fixed != text {
		actions = append(actions, CodeAction{
			Title:       "mallet: Fix all correctable violations",
			Kind:        CodeActionKindSourceFixAll,
			Diagnostics: diagnostics,
			IsPreferred: true,
			Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
				uri: {{Range: fullRange(text), NewText: fixed}},
			}},
		})
	}

	if lineComment == "" {
		return actions
	}
	type lineRule struct {
		line int
		rule string
	}
	seen := make(map[lineRule]bool)
	for _, diag := range diagnostics {
		key := lineRule{diag.Range.Start.Line, diag.Code}
		if diag.Code == "" || seen[key] {
			continue
		}
		seen[key] = true

		line := lineAt(text, key.line)
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		insert := fmt.Sprintf("%s%s mallet:disable:next %s\n", indent, lineComment, diag.Code)
		at := Position{Line: key.line}
		actions = append(actions, CodeAction{
			Title:       "mallet: Disable " + truncateTitle(diag.Code, 50) + " for this line",
			Kind:        CodeActionKindQuickFix,
			Diagnostics: []Diagnostic{diag},
			Edit: &WorkspaceEdit{Changes: map[string][]TextEdit{
				uri: {{Range: Range{Start: at, End: at}, NewText: insert}},
			}},
		})
	}
	return actions
}

// truncateTitle truncates a string to maxLen, adding ellipsis if needed
func truncateTitle(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// FilterDiagnosticsForRange returns diagnostics that overlap with the given range
func FilterDiagnosticsForRange(diagnostics []Diagnostic, r Range) []Diagnostic {
	var filtered []Diagnostic
	for _, d := range diagnostics {
		if rangesOverlap(d.Range, r) {
			filtered = append(filtered, d)
		}
	}
	return filtered
}

// rangesOverlap checks if two ranges overlap
func rangesOverlap(a, b Range) bool {
	// Range a ends before b starts
	if a.End.Line < b.Start.Line || (a.End.Line == b.Start.Line && a.End.Character < b.Start.Character) {
		return false
	}
	// Range b ends before a starts
	if b.End.Line < a.Start.Line || (b.End.Line == a.Start.Line && b.End.Character < a.Start.Character) {
		return false
	}
	return true
}
