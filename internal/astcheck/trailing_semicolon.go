package astcheck

import (
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// TrailingSemicolon reports statement-terminating semicolons at the end
// of a line in languages where they are optional.
type TrailingSemicolon struct{}

func (r *TrailingSemicolon) Description() lint.Description {
	return lint.Description{
		ID:        "trailing_semicolon",
		Name:      "Trailing Semicolon",
		Summary:   "Lines should not have trailing semicolons",
		Kind:      lint.KindIdiomatic,
		Severity:  lint.SeverityWarning,
		Languages: []string{"swift", "javascript", "typescript"},
		OptIn:     true,
		NonTriggering: []lint.Example{
			{Code: "let a = 0\n"},
			{Code: "let a = 0; let b = 1\n"},
			{Code: "for (let i = 0; i < 3; i++) {}\n"},
		},
		Triggering: []lint.Example{
			{Code: "let a = 0↓;\n"},
			{Code: "let a = 0↓; // comment\n"},
			{Code: "let a = 0↓;"},
		},
		Corrections: []lint.CorrectionExample{
			{Before: lint.Example{Code: "let a = 0↓;\n"}, After: "let a = 0\n"},
			{Before: lint.Example{Code: "let a = 0↓; // comment\n"}, After: "let a = 0 // comment\n"},
		},
	}
}

var loopTypes = syntax.NewTypeSet("for_statement", "for_in_statement")

func endsStatementLine(c *syntax.Cursor) bool {
	if c.Node().Text() != ";" {
		return false
	}
	if p := c.Parent(); p != nil && loopTypes.Has(p.Type()) {
		return false
	}
	for _, piece := range c.Node().Trailing() {
		if !piece.IsHorizontalSpace() && !piece.IsComment() {
			return false
		}
	}
	return endsLine(c)
}

func (r *TrailingSemicolon) Visitor(*lint.File) *lint.Visitor {
	return &lint.Visitor{Visit: map[string]lint.VisitFunc{
		";": func(c *syntax.Cursor, rep *lint.Report) {
			if endsStatementLine(c) {
				rep.Add(c.Start())
			}
		},
	}}
}

func (r *TrailingSemicolon) Rewriter(*lint.File) *lint.Rewriter {
	return &lint.Rewriter{Rewrite: map[string]lint.RewriteFunc{
		";": func(c *syntax.Cursor, e *lint.Edit) *syntax.Node {
			if !endsStatementLine(c) || !e.Mark(c.Start()) {
				return nil
			}
			return c.Node().WithText("")
		},
	}}
}
