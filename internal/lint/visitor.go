package lint

import (
	"log/slog"

	"github.com/chris-regnier/mallet/internal/syntax"
)

// VisitFunc inspects one node and records findings in the report.
type VisitFunc func(c *syntax.Cursor, r *Report)

// Visitor declares which node types a rule inspects. The engine walks the
// tree and dispatches on type, so rules never drive traversal themselves.
type Visitor struct {
	// Skip lists node types whose subtrees are not descended into.
	Skip syntax.TypeSet
	// Visit is called on entering a node of the keyed type.
	Visit map[string]VisitFunc
	// Leave is called after the children of a node of the keyed type.
	Leave map[string]VisitFunc
	// Any is called on entering every node, before Visit.
	Any VisitFunc
}

// Walk runs the visitor over the subtree rooted at root.
func (v *Visitor) Walk(root *syntax.Cursor) *Report {
	r := &Report{}
	enter := func(c *syntax.Cursor) bool {
		if v.Any != nil {
			v.Any(c, r)
		}
		if fn := v.Visit[c.Type()]; fn != nil {
			fn(c, r)
		}
		return true
	}
	var leave func(*syntax.Cursor)
	if len(v.Leave) > 0 {
		leave = func(c *syntax.Cursor) {
			if fn := v.Leave[c.Type()]; fn != nil {
				fn(c, r)
			}
		}
	}
	syntax.Walk(root, v.Skip, enter, leave)
	return r
}

// Collect runs rule over f and returns the violations that are neither
// malformed nor inside a region where the rule is disabled, ordered by
// position.
func Collect(f *File, rule Rule) []Violation {
	kept, _ := CollectAll(f, rule)
	return kept
}

// CollectAll is Collect that also returns the violations suppressed by
// disabled regions.
func CollectAll(f *File, rule Rule) (kept, suppressed []Violation) {
	desc := rule.Description()
	v := rule.Visitor(f)
	if v == nil {
		return nil, nil
	}

	report := v.Walk(f.Tree.Cursor())
	for _, vi := range report.violations {
		vi.Rule = desc.ID
		if !f.Lines.Valid(vi.Position) {
			slog.Debug("dropping violation with malformed position",
				"rule", desc.ID, "path", f.Path, "position", int(vi.Position))
			continue
		}
		if f.Regions.Contains(vi.Position, desc.ID) {
			suppressed = append(suppressed, vi)
			continue
		}
		kept = append(kept, vi)
	}
	sortViolations(kept)
	sortViolations(suppressed)
	return kept, suppressed
}
