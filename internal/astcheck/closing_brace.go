package astcheck

import (
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// ClosingBrace reports a closing brace separated by spaces or tabs from
// the closing parenthesis that follows it.
type ClosingBrace struct{}

func (r *ClosingBrace) Description() lint.Description {
	return lint.Description{
		ID:        "closing_brace",
		Name:      "Closing Brace Spacing",
		Summary:   "Closing brace with closing parenthesis should not have any whitespaces in the middle",
		Kind:      lint.KindStyle,
		Severity:  lint.SeverityWarning,
		Languages: []string{"swift", "javascript", "typescript", "go", "java", "c", "rust"},
		NonTriggering: []lint.Example{
			{Code: "[].map({ })"},
			{Code: "[].map(\n  { }\n)"},
			{Code: "[].map({ } /* why */)"},
		},
		Triggering: []lint.Example{
			{Code: "[].map({ ↓} )"},
			{Code: "[].map({ ↓}\t)"},
		},
		Corrections: []lint.CorrectionExample{
			{Before: lint.Example{Code: "[].map({ ↓} )"}, After: "[].map({ })"},
			{Before: lint.Example{Code: "[].map({ ↓}\t)"}, After: "[].map({ })"},
		},
	}
}

func braceBeforeParen(c *syntax.Cursor) bool {
	if c.Node().Text() != "}" || !c.Node().Trailing().OnlyHorizontalSpace() {
		return false
	}
	next := c.NextToken()
	return next != nil && next.Node().Text() == ")" && next.Node().Leading().IsEmpty()
}

func (r *ClosingBrace) Visitor(*lint.File) *lint.Visitor {
	return &lint.Visitor{Visit: map[string]lint.VisitFunc{
		"}": func(c *syntax.Cursor, rep *lint.Report) {
			if braceBeforeParen(c) {
				rep.Add(c.Start())
			}
		},
	}}
}

func (r *ClosingBrace) Rewriter(*lint.File) *lint.Rewriter {
	return &lint.Rewriter{Rewrite: map[string]lint.RewriteFunc{
		"}": func(c *syntax.Cursor, e *lint.Edit) *syntax.Node {
			if !braceBeforeParen(c) || !e.Mark(c.Start()) {
				return nil
			}
			return c.Node().WithTrailing(nil)
		},
	}}
}
