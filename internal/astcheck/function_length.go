package astcheck

import (
	"fmt"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

const defaultMaxLines = 50

// FunctionLength checks that functions do not exceed a configurable line count.
type FunctionLength struct {
	MaxLines int
}

func (r *FunctionLength) Description() lint.Description {
	cfg := map[string]interface{}{"max_lines": 3}
	return lint.Description{
		ID:        "function_length",
		Name:      "Function Length",
		Summary:   fmt.Sprintf("Function bodies should not span too many lines (default %d)", defaultMaxLines),
		Kind:      lint.KindMetrics,
		Severity:  lint.SeverityWarning,
		Languages: []string{"go", "python", "javascript", "typescript", "java", "c", "rust", "swift"},
		NonTriggering: []lint.Example{
			{Code: "func f() {\n\treturn\n}\n", Language: "go", Config: cfg},
			{Code: "// doc\n// more doc\nfunc f() {\n}\n", Language: "go", Config: cfg},
		},
		Triggering: []lint.Example{
			{Code: "↓func f() {\n\ta := 1\n\t_ = a\n}\n", Language: "go", Config: cfg},
			{Code: "↓def f():\n    a = 1\n    b = 2\n    return a + b\n", Language: "python", Config: cfg},
		},
	}
}

// Configure accepts max_lines.
func (r *FunctionLength) Configure(options map[string]interface{}) (lint.Rule, error) {
	n, err := intOption(options, "max_lines", r.maxLines())
	if err != nil {
		return nil, err
	}
	return &FunctionLength{MaxLines: n}, nil
}

func (r *FunctionLength) maxLines() int {
	if r.MaxLines > 0 {
		return r.MaxLines
	}
	return defaultMaxLines
}

func (r *FunctionLength) Visitor(f *lint.File) *lint.Visitor {
	maxLines := r.maxLines()
	return &lint.Visitor{Visit: visitEach(funcNodeTypes(f.Language), func(c *syntax.Cursor, rep *lint.Report) {
		first := f.Lines.Line(c.Start())
		last := f.Lines.Line(c.End())
		if n := last - first + 1; n > maxLines {
			rep.AddReason(c.Start(), fmt.Sprintf("function %q is %d lines long (max %d)", funcName(c), n, maxLines))
		}
	})}
}
