package lint

import (
	"log/slog"
	"sort"

	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// RewriteFunc inspects a node whose children have already been rewritten
// and returns a replacement, marking on e every offset it changes. It
// returns nil to keep the node. A replacement with no marks is discarded.
type RewriteFunc func(c *syntax.Cursor, e *Edit) *syntax.Node

// Edit collects the offsets one rewrite changes.
type Edit struct {
	file *File
	rule string
	at   []position.Position
}

// Mark claims a change at p, an offset in the text the cursor was built
// over. It returns false when p is malformed or the rule is disabled
// there, and the rewrite must then leave that text alone.
func (e *Edit) Mark(p position.Position) bool {
	if !e.file.Lines.Valid(p) {
		slog.Debug("skipping correction with malformed position",
			"rule", e.rule, "path", e.file.Path, "position", int(p))
		return false
	}
	if e.file.Regions.Contains(p, e.rule) {
		return false
	}
	e.at = append(e.at, p)
	return true
}

// Rewriter declares which node types a rule corrects.
type Rewriter struct {
	// Skip lists node types whose subtrees are not rewritten.
	Skip syntax.TypeSet
	// Rewrite is consulted for nodes of the keyed type.
	Rewrite map[string]RewriteFunc
	// Any is consulted for node types without an entry in Rewrite.
	Any RewriteFunc
}

func (rw *Rewriter) lookup(typ string) RewriteFunc {
	if fn := rw.Rewrite[typ]; fn != nil {
		return fn
	}
	return rw.Any
}

// Correction records one applied rewrite.
type Correction struct {
	Rule string
	// Position is the changed offset marked by the rewrite, in the text
	// before the correction.
	Position position.Position
}

// Result is the outcome of correcting one file with one rule.
type Result struct {
	Tree        *syntax.Tree
	Text        string
	Corrections []Correction
}

// Changed reports whether any correction was applied.
func (r Result) Changed() bool {
	return len(r.Corrections) > 0
}

// Correct applies rule's rewriter to f bottom-up. Children are rewritten
// before their parent, and text is only changed at offsets outside every
// region where the rule is disabled. Subtrees that are not rewritten are
// shared with the input tree.
func Correct(f *File, rule CorrectableRule) Result {
	unchanged := Result{Tree: f.Tree, Text: f.Source()}
	rw := rule.Rewriter(f)
	if rw == nil {
		return unchanged
	}

	c := &corrector{file: f, rule: rule.Description().ID, rw: rw}
	var corrections []Correction
	root := c.rewrite(f.Tree.Cursor(), &corrections)
	if len(corrections) == 0 {
		return unchanged
	}

	sort.SliceStable(corrections, func(i, j int) bool {
		return corrections[i].Position < corrections[j].Position
	})
	tree := syntax.NewTree(root, f.Tree.Language)
	return Result{Tree: tree, Text: tree.Source(), Corrections: corrections}
}

// ApplyCorrections corrects f with rule and returns the rendered text
// with the corrections that produced it.
func ApplyCorrections(f *File, rule CorrectableRule) (string, []Correction) {
	res := Correct(f, rule)
	return res.Text, res.Corrections
}

type corrector struct {
	file *File
	rule string
	rw   *Rewriter
}

func (c *corrector) rewrite(cur *syntax.Cursor, acc *[]Correction) *syntax.Node {
	orig := cur.Node()
	n := orig

	if !c.rw.Skip.Has(orig.Type()) && orig.NumChildren() > 0 {
		var children []*syntax.Node
		for i, child := range cur.Children() {
			next := c.rewrite(child, acc)
			if next != child.Node() && children == nil {
				children = make([]*syntax.Node, i, orig.NumChildren())
				for j := range i {
					children[j] = orig.Child(j)
				}
			}
			if children != nil {
				children = append(children, next)
			}
		}
		if children != nil {
			n = orig.WithChildren(children...)
		}
	}

	fn := c.rw.lookup(orig.Type())
	if fn == nil {
		return n
	}
	view := cur
	if n != orig {
		view = syntax.NewCursorAt(n, cur.Parent(), cur.Index(), cur.FullStart())
	}
	e := &Edit{file: c.file, rule: c.rule}
	repl := fn(view, e)
	if repl == nil || repl == n || len(e.at) == 0 {
		return n
	}
	for _, p := range e.at {
		*acc = append(*acc, Correction{Rule: c.rule, Position: p})
	}
	return repl.WithField(orig.Field())
}
