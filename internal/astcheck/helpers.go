package astcheck

import (
	"fmt"
	"strings"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/parse"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// funcNodeTypes returns the set of node types that represent function
// definitions for the given language.
func funcNodeTypes(lang string) syntax.TypeSet {
	switch lang {
	case "go":
		return syntax.NewTypeSet("function_declaration", "method_declaration", "func_literal")
	case "python":
		return syntax.NewTypeSet("function_definition", "lambda")
	case "javascript", "typescript":
		return syntax.NewTypeSet("function_declaration", "function_expression", "method_definition", "arrow_function")
	case "java":
		return syntax.NewTypeSet("method_declaration", "constructor_declaration", "lambda_expression")
	case "c":
		return syntax.NewTypeSet("function_definition")
	case "rust":
		return syntax.NewTypeSet("function_item", "closure_expression")
	case "swift":
		return syntax.NewTypeSet("function_declaration", "init_declaration", "lambda_literal")
	default:
		return nil
	}
}

// funcName extracts a human-readable function name from a function node.
func funcName(c *syntax.Cursor) string {
	if name := c.ChildByField("name"); name != nil {
		return name.Content()
	}
	// C nests the name inside the function declarator
	if d := c.ChildByField("declarator"); d != nil {
		if name := d.ChildByField("declarator"); name != nil {
			return name.Content()
		}
	}
	return "<anonymous>"
}

// visitEach registers fn for every type in types.
func visitEach(types syntax.TypeSet, fn lint.VisitFunc) map[string]lint.VisitFunc {
	m := make(map[string]lint.VisitFunc, len(types))
	for t := range types {
		m[t] = fn
	}
	return m
}

// endsLine reports whether the token at c is the last one on its line.
func endsLine(c *syntax.Cursor) bool {
	next := c.NextToken()
	if next == nil {
		return true
	}
	if lead := next.Node().Leading(); len(lead) > 0 {
		return lead.StartsWithNewline()
	}
	text := next.Node().Text()
	if next.Type() == parse.EOFType {
		return true
	}
	// grammars that treat line breaks as statement terminators
	return strings.HasPrefix(text, "\n") || strings.HasPrefix(text, "\r")
}

// intOption reads a positive integer option, falling back to def when the
// key is absent.
func intOption(options map[string]interface{}, key string, def int) (int, error) {
	v, ok := options[key]
	if !ok {
		return def, nil
	}
	n, ok := toInt(v)
	if !ok {
		return 0, fmt.Errorf("option %s: expected an integer, got %T", key, v)
	}
	if n < 1 {
		return 0, fmt.Errorf("option %s: must be at least 1, got %d", key, n)
	}
	return n, nil
}

// toInt converts an interface{} to int, supporting the integer and float
// types produced by YAML and TOML decoders.
func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case uint64:
		return int(val), true
	case float64:
		return int(val), true
	default:
		return 0, false
	}
}
