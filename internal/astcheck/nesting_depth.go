package astcheck

import (
	"fmt"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

const defaultMaxDepth = 4

// NestingDepth checks that control-flow nesting does not exceed a
// configurable depth. Depth is counted per function, so a closure starts
// again from zero.
type NestingDepth struct {
	MaxDepth int
}

func (r *NestingDepth) Description() lint.Description {
	cfg := map[string]interface{}{"max_depth": 1}
	return lint.Description{
		ID:        "nesting_depth",
		Name:      "Nesting Depth",
		Summary:   fmt.Sprintf("Control flow should not be nested too deeply (default %d)", defaultMaxDepth),
		Kind:      lint.KindMetrics,
		Severity:  lint.SeverityWarning,
		Languages: []string{"go", "python", "javascript", "typescript", "java", "c", "rust", "swift"},
		NonTriggering: []lint.Example{
			{Code: "func f(x int) {\n\tif x > 0 {\n\t\treturn\n\t}\n}\n", Language: "go", Config: cfg},
			{Code: "func f() {\n\tif true {\n\t\tg := func() {\n\t\t\tif true {\n\t\t\t}\n\t\t}\n\t\tg()\n\t}\n}\n", Language: "go", Config: cfg},
		},
		Triggering: []lint.Example{
			{Code: "func f(x int) {\n\tif x > 0 {\n\t\t↓for {\n\t\t}\n\t}\n}\n", Language: "go", Config: cfg},
			{Code: "def f(xs):\n    for x in xs:\n        ↓if x:\n            pass\n", Language: "python", Config: cfg},
		},
	}
}

// Configure accepts max_depth.
func (r *NestingDepth) Configure(options map[string]interface{}) (lint.Rule, error) {
	n, err := intOption(options, "max_depth", r.maxDepth())
	if err != nil {
		return nil, err
	}
	return &NestingDepth{MaxDepth: n}, nil
}

func (r *NestingDepth) maxDepth() int {
	if r.MaxDepth > 0 {
		return r.MaxDepth
	}
	return defaultMaxDepth
}

func nestingNodeTypes(lang string) syntax.TypeSet {
	switch lang {
	case "go":
		return syntax.NewTypeSet("if_statement", "for_statement", "expression_switch_statement",
			"type_switch_statement", "select_statement")
	case "python":
		return syntax.NewTypeSet("if_statement", "for_statement", "while_statement", "with_statement", "try_statement")
	case "javascript", "typescript":
		return syntax.NewTypeSet("if_statement", "for_statement", "for_in_statement", "while_statement",
			"do_statement", "switch_statement")
	case "java":
		return syntax.NewTypeSet("if_statement", "for_statement", "enhanced_for_statement", "while_statement",
			"do_statement", "switch_expression")
	case "c":
		return syntax.NewTypeSet("if_statement", "for_statement", "while_statement", "do_statement", "switch_statement")
	case "rust":
		return syntax.NewTypeSet("if_expression", "for_expression", "while_expression", "loop_expression", "match_expression")
	case "swift":
		return syntax.NewTypeSet("if_statement", "for_statement", "while_statement", "guard_statement", "switch_statement")
	default:
		return nil
	}
}

func (r *NestingDepth) Visitor(f *lint.File) *lint.Visitor {
	nesting := nestingNodeTypes(f.Language)
	funcs := funcNodeTypes(f.Language)
	if nesting == nil {
		return nil
	}
	maxDepth := r.maxDepth()

	// scan measures one scope: the file's top level or a function body.
	// Nested functions are scanned on their own.
	scan := func(scope *syntax.Cursor, rep *lint.Report) {
		depth := 0
		enter := func(c *syntax.Cursor) bool {
			if !nesting.Has(c.Type()) {
				return true
			}
			depth++
			if depth == maxDepth+1 {
				rep.AddReason(c.Start(), fmt.Sprintf("nesting depth %d exceeds maximum %d", depth, maxDepth))
			}
			return true
		}
		leave := func(c *syntax.Cursor) {
			if nesting.Has(c.Type()) {
				depth--
			}
		}
		for _, child := range scope.Children() {
			syntax.Walk(child, funcs, enter, leave)
		}
	}

	return &lint.Visitor{Any: func(c *syntax.Cursor, rep *lint.Report) {
		if c.Parent() == nil || funcs.Has(c.Type()) {
			scan(c, rep)
		}
	}}
}
