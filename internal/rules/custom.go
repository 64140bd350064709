package rules

import (
	"slices"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/position"
	"github.com/chris-regnier/mallet/internal/syntax"
)

func (r Rule) Description() lint.Description {
	name := r.Name
	if name == "" {
		name = r.ID
	}
	summary := r.Message
	if r.Explanation != "" {
		summary = r.Explanation
	}
	return lint.Description{
		ID:        r.ID,
		Name:      name,
		Summary:   summary,
		Kind:      lint.KindLint,
		Severity:  r.severity,
		Languages: r.Languages,
	}
}

func (r Rule) Visitor(f *lint.File) *lint.Visitor {
	if r.Pattern == nil || !r.AppliesTo(f.Path) {
		return nil
	}
	root := f.Tree.Root.Type()
	return &lint.Visitor{
		Skip: syntax.NewTypeSet(root),
		Visit: map[string]lint.VisitFunc{
			root: func(_ *syntax.Cursor, rep *lint.Report) { r.scan(f, rep) },
		},
	}
}

// scan matches the pattern against the whole source once.
func (r Rule) scan(f *lint.File, rep *lint.Report) {
	for _, loc := range r.Pattern.FindAllStringIndex(f.Source(), -1) {
		if loc[0] == loc[1] {
			continue
		}
		p := position.Position(loc[0])
		if r.accepts(MatchType(f.Tree, p)) {
			rep.AddReason(p, r.Message)
		}
	}
}

func (r Rule) accepts(class string) bool {
	if len(r.MatchTypes) > 0 && !slices.Contains(r.MatchTypes, class) {
		return false
	}
	return !slices.Contains(r.ExcludedMatchTypes, class)
}

// MatchType classifies the byte at p as the type of the token containing
// it, or as comment or whitespace when it lies in trivia.
func MatchType(tree *syntax.Tree, p position.Position) string {
	tok := tree.TokenAt(p)
	if tok == nil {
		return ""
	}
	if tok.Range().Contains(p) {
		return tok.Type()
	}
	pieces := append(tok.LeadingPieces(), tok.TrailingPieces()...)
	for _, ref := range pieces {
		if !ref.Range.Contains(p) {
			continue
		}
		if ref.IsComment() {
			return MatchComment
		}
		return MatchWhitespace
	}
	return ""
}
