package astcheck

import (
	"fmt"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

const defaultMaxParams = 5

// ParamCount checks that functions do not have too many parameters.
type ParamCount struct {
	MaxParams int
}

func (r *ParamCount) Description() lint.Description {
	cfg := map[string]interface{}{"max_params": 2}
	return lint.Description{
		ID:        "param_count",
		Name:      "Parameter Count",
		Summary:   fmt.Sprintf("Functions should not take too many parameters (default %d)", defaultMaxParams),
		Kind:      lint.KindMetrics,
		Severity:  lint.SeverityWarning,
		Languages: []string{"go", "python", "javascript", "typescript", "java", "c", "rust"},
		NonTriggering: []lint.Example{
			{Code: "func f(a, b int) {}\n", Language: "go", Config: cfg},
			{Code: "function f(a, b) {}\n", Language: "javascript", Config: cfg},
		},
		Triggering: []lint.Example{
			{Code: "↓func f(a, b int, c string) {}\n", Language: "go", Config: cfg},
			{Code: "↓func f(a int, b int, rest ...int) {}\n", Language: "go", Config: cfg},
			{Code: "↓def f(a, b=1, *args):\n    pass\n", Language: "python", Config: cfg},
			{Code: "↓int add(int a, int b, int c) { return a + b + c; }\n", Language: "c", Config: cfg},
		},
	}
}

// Configure accepts max_params.
func (r *ParamCount) Configure(options map[string]interface{}) (lint.Rule, error) {
	n, err := intOption(options, "max_params", r.maxParams())
	if err != nil {
		return nil, err
	}
	return &ParamCount{MaxParams: n}, nil
}

func (r *ParamCount) maxParams() int {
	if r.MaxParams > 0 {
		return r.MaxParams
	}
	return defaultMaxParams
}

func (r *ParamCount) Visitor(f *lint.File) *lint.Visitor {
	maxParams := r.maxParams()
	lang := f.Language
	return &lint.Visitor{Visit: visitEach(funcNodeTypes(lang), func(c *syntax.Cursor, rep *lint.Report) {
		params := parameterList(c.Node())
		if params == nil {
			return
		}
		if n := countParams(params, lang); n > maxParams {
			rep.AddReason(c.Start(), fmt.Sprintf("function %q has %d parameters (max %d)", funcName(c), n, maxParams))
		}
	})}
}

// parameterList finds the parameter list of a function node. C keeps it on
// the function declarator rather than the definition.
func parameterList(n *syntax.Node) *syntax.Node {
	if p := n.ChildByField("parameters"); p != nil {
		return p
	}
	if d := n.ChildByField("declarator"); d != nil {
		return d.ChildByField("parameters")
	}
	return nil
}

func countParams(params *syntax.Node, lang string) int {
	if lang == "go" {
		return countGoParams(params)
	}
	types := paramNodeTypes(lang)
	count := 0
	for _, child := range params.NamedChildren() {
		if types == nil || types.Has(child.Type()) {
			count++
		}
	}
	return count
}

// countGoParams handles grouped declarations such as `a, b int`, where one
// parameter_declaration names several parameters.
func countGoParams(params *syntax.Node) int {
	count := 0
	for _, decl := range params.NamedChildren() {
		switch decl.Type() {
		case "parameter_declaration":
			names := 0
			for _, child := range decl.NamedChildren() {
				if child.Field() == "name" {
					names++
				}
			}
			// unnamed parameters such as `func(int)`
			if names == 0 {
				names = 1
			}
			count += names
		case "variadic_parameter_declaration":
			count++
		}
	}
	return count
}

func paramNodeTypes(lang string) syntax.TypeSet {
	switch lang {
	case "python":
		return syntax.NewTypeSet("identifier", "default_parameter", "typed_parameter", "typed_default_parameter",
			"list_splat_pattern", "dictionary_splat_pattern")
	case "javascript":
		return syntax.NewTypeSet("identifier", "assignment_pattern", "rest_pattern", "object_pattern", "array_pattern")
	case "typescript":
		return syntax.NewTypeSet("identifier", "assignment_pattern", "rest_pattern", "required_parameter", "optional_parameter")
	case "java":
		return syntax.NewTypeSet("formal_parameter", "spread_parameter")
	case "c":
		return syntax.NewTypeSet("parameter_declaration", "variadic_parameter")
	case "rust":
		return syntax.NewTypeSet("parameter", "self_parameter")
	default:
		return nil
	}
}
