package astcheck

import (
	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// TrailingWhitespace reports spaces and tabs at the end of a line.
// Whitespace inside comments and string literals is left alone.
type TrailingWhitespace struct{}

func (r *TrailingWhitespace) Description() lint.Description {
	return lint.Description{
		ID:       "trailing_whitespace",
		Name:     "Trailing Whitespace",
		Summary:  "Lines should not have trailing whitespace",
		Kind:     lint.KindStyle,
		Severity: lint.SeverityWarning,
		NonTriggering: []lint.Example{
			{Code: "let a = 0\n"},
			{Code: "let a = 0\n\nlet b = 1\n"},
			{Code: "let a = 0 // comment\n"},
		},
		Triggering: []lint.Example{
			{Code: "let a = 0↓ \n"},
			{Code: "let a = 0↓\t\n"},
			{Code: "let a = 0\n↓  \nlet b = 1\n"},
			{Code: "let a = 0\n↓ "},
		},
		Corrections: []lint.CorrectionExample{
			{Before: lint.Example{Code: "let a = 0↓ \n"}, After: "let a = 0\n"},
			{Before: lint.Example{Code: "let a = 0\n↓  \nlet b = 1↓ \t\n"}, After: "let a = 0\n\nlet b = 1\n"},
			{Before: lint.Example{Code: "let a = 0\n↓   \n\nlet b = 1\n"}, After: "let a = 0\n\n\nlet b = 1\n"},
		},
	}
}

// run is a span of spaces and tabs that ends a line, as piece indexes into
// the leading or trailing trivia of one token.
type run struct {
	leading  bool
	from, to int
	at       position.Position
}

// trailingRuns returns every run of spaces and tabs that ends a line
// within the trivia of the token at c.
func trailingRuns(c *syntax.Cursor) []run {
	var out []run

	lead := c.LeadingPieces()
	atEOF := c.Type() == parse.EOFType
	for i := 0; i < len(lead); {
		if !lead[i].IsHorizontalSpace() {
			i++
			continue
		}
		j := i
		for j < len(lead) && lead[j].IsHorizontalSpace() {
			j++
		}
		if (j < len(lead) && lead[j].Kind == syntax.Newlines) || (j == len(lead) && atEOF) {
			out = append(out, run{leading: true, from: i, to: j, at: lead[i].Range.Start})
		}
		i = j
	}

	trail := c.TrailingPieces()
	if n := len(trail); n > 0 && trail[n-1].IsHorizontalSpace() && endsLine(c) {
		i := n - 1
		for i > 0 && trail[i-1].IsHorizontalSpace() {
			i--
		}
		out = append(out, run{from: i, to: n, at: trail[i].Range.Start})
	}
	return out
}

// stripRuns removes the trailing runs of the token at c that mark
// accepts. It returns nil when none was removed.
func stripRuns(c *syntax.Cursor, mark func(position.Position) bool) *syntax.Node {
	n := c.Node()
	dropLead := make([]bool, len(n.Leading()))
	dropTrail := make([]bool, len(n.Trailing()))
	stripped := false
	for _, ws := range trailingRuns(c) {
		if !mark(ws.at) {
			continue
		}
		drop := dropTrail
		if ws.leading {
			drop = dropLead
		}
		for i := ws.from; i < ws.to; i++ {
			drop[i] = true
		}
		stripped = true
	}
	if !stripped {
		return nil
	}
	return n.WithLeading(without(n.Leading(), dropLead)).WithTrailing(without(n.Trailing(), dropTrail))
}

func without(t syntax.Trivia, drop []bool) syntax.Trivia {
	var out syntax.Trivia
	for i, p := range t {
		if !drop[i] {
			out = append(out, p)
		}
	}
	return out
}

func (r *TrailingWhitespace) Visitor(*lint.File) *lint.Visitor {
	return &lint.Visitor{Any: func(c *syntax.Cursor, rep *lint.Report) {
		if c.Kind() != syntax.KindToken {
			return
		}
		for _, ws := range trailingRuns(c) {
			rep.Add(ws.at)
		}
	}}
}

func (r *TrailingWhitespace) Rewriter(*lint.File) *lint.Rewriter {
	return &lint.Rewriter{Any: func(c *syntax.Cursor, e *lint.Edit) *syntax.Node {
		if c.Kind() != syntax.KindToken {
			return nil
		}
		return stripRuns(c, e.Mark)
	}}
}
