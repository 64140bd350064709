package lsp

import (
	"strings"
	"unicode/utf16"

	"github.com/chris-regnier/mallet/internal/sarif"
)

// DiagnosticSeverity maps to LSP severity levels
type DiagnosticSeverity int

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

// Position is a zero-based line and UTF-16 code unit offset, as the
// protocol defines it.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range represents a text range in a document
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// DiagnosticData holds the byte offset of the violation in the document.
type DiagnosticData struct {
	Offset int `json:"offset"`
}

// Diagnostic represents an LSP diagnostic message
type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
	Data     *DiagnosticData    `json:"data,omitempty"`
}

// levelToSeverity maps SARIF level strings to LSP severity
func levelToSeverity(level string) DiagnosticSeverity {
	switch level {
	case "error":
		return DiagnosticSeverityError
	case "warning":
		return DiagnosticSeverityWarning
	default:
		return DiagnosticSeverityInformation
	}
}

// SarifToDiagnostic converts a SARIF result located in text to an LSP
// diagnostic spanning the character at the violation.
func SarifToDiagnostic(result sarif.Result, text string) Diagnostic {
	diag := Diagnostic{
		Severity: levelToSeverity(result.Level),
		Code:     result.RuleID,
		Source:   "mallet",
		Message:  result.Message.Text,
	}

	region := result.Region()
	line := max(region.StartLine-1, 0)
	lineText := lineAt(text, line)
	start, end := utf16Span(lineText, region.StartColumn)
	diag.Range = Range{
		Start: Position{Line: line, Character: start},
		End:   Position{Line: line, Character: end},
	}

	if off, ok := result.Properties["mallet/offset"]; ok {
		switch v := off.(type) {
		case int:
			diag.Data = &DiagnosticData{Offset: v}
		case float64:
			diag.Data = &DiagnosticData{Offset: int(v)}
		}
	}
	return diag
}

// SarifResultsToDiagnostics converts multiple SARIF results to LSP diagnostics
func SarifResultsToDiagnostics(results []sarif.Result, text string) []Diagnostic {
	diagnostics := make([]Diagnostic, 0, len(results))
	for _, result := range results {
		diagnostics = append(diagnostics, SarifToDiagnostic(result, text))
	}
	return diagnostics
}

// lineAt returns the zero-based line n of text without its terminator.
func lineAt(text string, n int) string {
	for i := 0; i < n; i++ {
		j := strings.IndexByte(text, '\n')
		if j < 0 {
			return ""
		}
		text = text[j+1:]
	}
	if j := strings.IndexByte(text, '\n'); j >= 0 {
		text = text[:j]
	}
	return strings.TrimSuffix(text, "\r")
}

// utf16Span converts a one-based code point column on line into the
// UTF-16 offsets of the character there. At or past the end of the line
// the span is empty.
func utf16Span(line string, column int) (start, end int) {
	if column < 1 {
		return 0, 0
	}
	n := 1
	for _, r := range line {
		if n == column {
			return start, start + utf16Len(r)
		}
		start += utf16Len(r)
		n++
	}
	return start, start
}

func utf16Len(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}

// OffsetToPosition converts a byte offset in text to an LSP position.
func OffsetToPosition(text string, offset int) Position {
	offset = min(max(offset, 0), len(text))
	var pos Position
	for _, r := range text[:offset] {
		if r == '\n' {
			pos.Line++
			pos.Character = 0
			continue
		}
		pos.Character += utf16Len(r)
	}
	return pos
}

// fullRange spans the whole of text.
func fullRange(text string) Range {
	return Range{End: OffsetToPosition(text, len(text))}
}
