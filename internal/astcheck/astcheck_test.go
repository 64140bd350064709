package astcheck

import (
	"strings"
	"testing"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/lint/linttest"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func runRule(t *testing.T, rule lint.Rule, lang, src string) []lint.Violation {
	t.Helper()
	return lint.Collect(linttest.Parse(t, lang, src), rule)
}

func configured(t *testing.T, rule lint.Configurable, options map[string]interface{}) lint.Rule {
	t.Helper()
	r, err := rule.Configure(options)
	if err != nil {
		t.Fatalf("Configure(%v): %v", options, err)
	}
	return r
}

func repeatLines(line string, n int) string {
	return strings.Repeat(line, n)
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBasics(t *testing.T) {
	r := NewRegistry()
	if len(r.Names()) != 0 {
		t.Fatal("new registry should be empty")
	}

	r.Register(&FunctionLength{})
	r.Register(&NestingDepth{})

	names := r.Names()
	if len(names) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(names))
	}
	if names[0] != "function_length" || names[1] != "nesting_depth" {
		t.Fatalf("unexpected names: %v", names)
	}

	c, ok := r.Get("function_length")
	if !ok || c == nil {
		t.Fatal("expected to find function_length rule")
	}

	if _, ok := r.Get("nonexistent"); ok {
		t.Fatal("should not find nonexistent rule")
	}
	if got := len(r.All()); got != 2 {
		t.Errorf("All() returned %d rules, want 2", got)
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	names := r.Names()
	expected := []string{
		"closing_brace", "empty_handler", "function_length", "nesting_depth",
		"param_count", "trailing_semicolon", "trailing_whitespace",
	}
	if len(names) != len(expected) {
		t.Fatalf("expected %d rules, got %d: %v", len(expected), len(names), names)
	}
	for i, name := range expected {
		if names[i] != name {
			t.Errorf("expected names[%d]=%q, got %q", i, name, names[i])
		}
	}
}

// TestRuleExamples runs every documented example of every built-in rule.
func TestRuleExamples(t *testing.T) {
	for _, rule := range DefaultRegistry().All() {
		desc := rule.Description()
		lang := "javascript"
		if !desc.Supports(lang) {
			lang = desc.Languages[0]
		}
		t.Run(desc.ID, func(t *testing.T) {
			linttest.Verify(t, rule, lang)
		})
	}
}

func TestDescriptionsAreComplete(t *testing.T) {
	for _, rule := range DefaultRegistry().All() {
		desc := rule.Description()
		if desc.Name == "" || desc.Summary == "" || desc.Kind == "" {
			t.Errorf("%s: incomplete description %+v", desc.ID, desc)
		}
		if desc.Severity == lint.SeverityDefault {
			t.Errorf("%s: missing default severity", desc.ID)
		}
		if _, ok := rule.(lint.CorrectableRule); ok && len(desc.Corrections) == 0 {
			t.Errorf("%s: correctable rule has no correction examples", desc.ID)
		}
	}
}

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

func TestConfigureRejectsBadOptions(t *testing.T) {
	tests := []struct {
		name    string
		rule    lint.Configurable
		options map[string]interface{}
	}{
		{"string", &FunctionLength{}, map[string]interface{}{"max_lines": "ten"}},
		{"zero", &NestingDepth{}, map[string]interface{}{"max_depth": 0}},
		{"negative", &ParamCount{}, map[string]interface{}{"max_params": -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.rule.Configure(tt.options); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConfigureAcceptsDecodedNumbers(t *testing.T) {
	for _, v := range []interface{}{3, int64(3), uint64(3), float64(3)} {
		r := configured(t, &FunctionLength{}, map[string]interface{}{"max_lines": v})
		if got := r.(*FunctionLength).MaxLines; got != 3 {
			t.Errorf("max_lines %T: got %d, want 3", v, got)
		}
	}
}

func TestConfigureKeepsDefaultsForMissingKeys(t *testing.T) {
	r := configured(t, &ParamCount{}, map[string]interface{}{"unrelated": true})
	if got := r.(*ParamCount).MaxParams; got != defaultMaxParams {
		t.Errorf("got %d, want %d", got, defaultMaxParams)
	}
}

// ---------------------------------------------------------------------------
// FunctionLength tests
// ---------------------------------------------------------------------------

func TestFunctionLengthShortFunc(t *testing.T) {
	src := `package main

func short() {
	return
}
`
	if got := runRule(t, &FunctionLength{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations for short function, got %d", len(got))
	}
}

func TestFunctionLengthLongFunc(t *testing.T) {
	src := "package main\n\nfunc longFunc() {\n" + repeatLines("\t_ = 0\n", 55) + "}\n"

	got := runRule(t, &FunctionLength{}, "go", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, `"longFunc"`) {
		t.Errorf("expected reason to name longFunc, got %q", got[0].Reason)
	}
	if got[0].Rule != "function_length" {
		t.Errorf("expected rule function_length, got %q", got[0].Rule)
	}
}

func TestFunctionLengthCustomThreshold(t *testing.T) {
	src := `package main

func medium() {
	a := 1
	b := 2
	c := 3
	d := 4
	e := 5
}
`
	if got := runRule(t, &FunctionLength{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations with default threshold, got %d", len(got))
	}

	rule := configured(t, &FunctionLength{}, map[string]interface{}{"max_lines": 3})
	if got := runRule(t, rule, "go", src); len(got) != 1 {
		t.Errorf("expected 1 violation with threshold 3, got %d", len(got))
	}
}

func TestFunctionLengthGoMethod(t *testing.T) {
	src := "package main\n\ntype S struct{}\n\nfunc (s S) longMethod() {\n" + repeatLines("\tx := 1\n", 55) + "}\n"

	got := runRule(t, &FunctionLength{}, "go", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation for long method, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, `"longMethod"`) {
		t.Errorf("expected reason to name longMethod, got %q", got[0].Reason)
	}
}

func TestFunctionLengthPython(t *testing.T) {
	src := "def long_func():\n" + repeatLines("    x = 1\n", 55)
	if got := runRule(t, &FunctionLength{}, "python", src); len(got) != 1 {
		t.Errorf("expected 1 violation for long Python function, got %d", len(got))
	}
}

func TestFunctionLengthJSArrow(t *testing.T) {
	src := "const f = () => {\n" + repeatLines("  let x = 1;\n", 55) + "};\n"
	got := runRule(t, &FunctionLength{}, "javascript", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation for long arrow function, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, "<anonymous>") {
		t.Errorf("expected anonymous function, got %q", got[0].Reason)
	}
}

func TestFunctionLengthCName(t *testing.T) {
	src := "int add(int a, int b) {\n" + repeatLines("  a++;\n", 55) + "  return a + b;\n}\n"
	got := runRule(t, &FunctionLength{}, "c", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, `"add"`) {
		t.Errorf("expected reason to name add, got %q", got[0].Reason)
	}
}

func TestFunctionLengthDisabledRegion(t *testing.T) {
	src := "package main\n\n// mallet:disable function_length\nfunc longFunc() {\n" +
		repeatLines("\t_ = 0\n", 55) + "}\n// mallet:enable function_length\n"
	if got := runRule(t, &FunctionLength{}, "go", src); len(got) != 0 {
		t.Errorf("expected disabled region to suppress, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// NestingDepth tests
// ---------------------------------------------------------------------------

func TestNestingDepthShallow(t *testing.T) {
	src := `package main

func f(x int) {
	if x > 0 {
		for i := 0; i < x; i++ {
		}
	}
}
`
	if got := runRule(t, &NestingDepth{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations, got %d", len(got))
	}
}

func TestNestingDepthDeep(t *testing.T) {
	src := `package main

func f(x int) {
	if x > 0 {
		for {
			if x > 1 {
				for {
					if x > 2 {
						for {
						}
					}
				}
			}
		}
	}
}
`
	got := runRule(t, &NestingDepth{}, "go", src)
	if len(got) != 1 {
		t.Fatalf("expected exactly 1 violation at the first level past the limit, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, "nesting depth 5 exceeds maximum 4") {
		t.Errorf("unexpected reason %q", got[0].Reason)
	}
	if loc := linttest.Parse(t, "go", src).Lines.Location(got[0].Position); loc.Line != 8 {
		t.Errorf("expected violation on line 8, got %s", loc)
	}
}

func TestNestingDepthResetsInClosures(t *testing.T) {
	src := `package main

func f(x int) {
	if x > 0 {
		go func() {
			if x > 1 {
			}
		}()
	}
}
`
	rule := configured(t, &NestingDepth{}, map[string]interface{}{"max_depth": 1})
	if got := runRule(t, rule, "go", src); len(got) != 0 {
		t.Errorf("closure should start from depth zero, got %d violations", len(got))
	}
}

func TestNestingDepthSiblingsReportSeparately(t *testing.T) {
	src := `package main

func f(x int) {
	if x > 0 {
		if x > 1 {
		}
		for {
		}
	}
}
`
	rule := configured(t, &NestingDepth{}, map[string]interface{}{"max_depth": 1})
	if got := runRule(t, rule, "go", src); len(got) != 2 {
		t.Errorf("expected 2 violations, got %d", len(got))
	}
}

func TestNestingDepthPython(t *testing.T) {
	src := "def f(xs):\n    for x in xs:\n        if x:\n            while x:\n                with x:\n                    if x:\n                        pass\n"
	if got := runRule(t, &NestingDepth{}, "python", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

func TestNestingDepthTopLevel(t *testing.T) {
	src := "if (a) {\n  if (b) {\n  }\n}\n"
	rule := configured(t, &NestingDepth{}, map[string]interface{}{"max_depth": 1})
	if got := runRule(t, rule, "javascript", src); len(got) != 1 {
		t.Errorf("expected 1 violation in top-level code, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// EmptyHandler tests
// ---------------------------------------------------------------------------

func TestEmptyHandlerGoDetectsEmpty(t *testing.T) {
	src := `package main

func f() {
	err := g()
	if err != nil {
	}
}
`
	got := runRule(t, &EmptyHandler{}, "go", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got))
	}
	if got[0].Reason != "empty error handler" {
		t.Errorf("unexpected reason %q", got[0].Reason)
	}
}

func TestEmptyHandlerGoNonEmpty(t *testing.T) {
	src := `package main

func f() error {
	err := g()
	if err != nil {
		return err
	}
	return nil
}
`
	if got := runRule(t, &EmptyHandler{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations, got %d", len(got))
	}
}

func TestEmptyHandlerGoOtherCondition(t *testing.T) {
	src := `package main

func f(x int) {
	if x > 0 {
	}
}
`
	if got := runRule(t, &EmptyHandler{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations for non-error condition, got %d", len(got))
	}
}

func TestEmptyHandlerCommentCountsAsContent(t *testing.T) {
	src := "package main\n\nfunc f() {\n\tif err := g(); err != nil {\n\t\t// ignored on purpose\n\t}\n}\n"
	if got := runRule(t, &EmptyHandler{}, "go", src); len(got) != 0 {
		t.Errorf("expected commented handler to pass, got %d", len(got))
	}
}

func TestEmptyHandlerPythonDetectsPass(t *testing.T) {
	src := "try:\n    foo()\nexcept Exception:\n    pass\n"
	if got := runRule(t, &EmptyHandler{}, "python", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

func TestEmptyHandlerPythonNonEmpty(t *testing.T) {
	src := "try:\n    foo()\nexcept Exception as e:\n    print(e)\n"
	if got := runRule(t, &EmptyHandler{}, "python", src); len(got) != 0 {
		t.Errorf("expected no violations, got %d", len(got))
	}
}

func TestEmptyHandlerJSDetectsEmpty(t *testing.T) {
	src := "try {\n  foo();\n} catch (e) {\n}\n"
	if got := runRule(t, &EmptyHandler{}, "javascript", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

func TestEmptyHandlerJavaDetectsEmpty(t *testing.T) {
	src := "class A {\n  void f() {\n    try {\n      g();\n    } catch (Exception e) {\n    }\n  }\n}\n"
	if got := runRule(t, &EmptyHandler{}, "java", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

func TestEmptyHandlerUnsupportedLanguage(t *testing.T) {
	f := linttest.Parse(t, "rust", "fn main() {}\n")
	if v := (&EmptyHandler{}).Visitor(f); v != nil {
		t.Error("expected no visitor for rust")
	}
}

// ---------------------------------------------------------------------------
// ParamCount tests
// ---------------------------------------------------------------------------

func TestParamCountGoFewParams(t *testing.T) {
	src := "package main\n\nfunc f(a int, b string) {}\n"
	if got := runRule(t, &ParamCount{}, "go", src); len(got) != 0 {
		t.Errorf("expected no violations, got %d", len(got))
	}
}

func TestParamCountGoTooManyParams(t *testing.T) {
	src := "package main\n\nfunc many(a int, b int, c int, d int, e int, f int) {}\n"
	got := runRule(t, &ParamCount{}, "go", src)
	if len(got) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(got))
	}
	if !strings.Contains(got[0].Reason, "has 6 parameters (max 5)") {
		t.Errorf("unexpected reason %q", got[0].Reason)
	}
}

func TestParamCountGoGroupedParams(t *testing.T) {
	src := "package main\n\nfunc grouped(a, b, c, d, e, f int) {}\n"
	if got := runRule(t, &ParamCount{}, "go", src); len(got) != 1 {
		t.Errorf("expected grouped parameters to count individually, got %d", len(got))
	}
}

func TestParamCountGoUnnamedParams(t *testing.T) {
	src := "package main\n\nfunc f(int, []string, map[string]bool) {}\n"
	rule := configured(t, &ParamCount{}, map[string]interface{}{"max_params": 2})
	if got := runRule(t, rule, "go", src); len(got) != 1 {
		t.Errorf("expected unnamed parameters to count, got %d", len(got))
	}
}

func TestParamCountPython(t *testing.T) {
	src := "def f(a, b, c, d, e, g=1):\n    pass\n"
	if got := runRule(t, &ParamCount{}, "python", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

func TestParamCountJS(t *testing.T) {
	src := "function f(a, b, c, d, e, ...rest) {}\n"
	if got := runRule(t, &ParamCount{}, "javascript", src); len(got) != 1 {
		t.Errorf("expected 1 violation, got %d", len(got))
	}
}

// ---------------------------------------------------------------------------
// Trivia rules
// ---------------------------------------------------------------------------

func TestClosingBraceCorrectsAllOccurrences(t *testing.T) {
	f := linttest.Parse(t, "javascript", "a({ } )\nb({ }\t)\n")
	text, corrections := lint.ApplyCorrections(f, &ClosingBrace{})
	if text != "a({ })\nb({ })\n" {
		t.Errorf("unexpected correction %q", text)
	}
	if len(corrections) != 2 {
		t.Errorf("expected 2 corrections, got %d", len(corrections))
	}
}

func TestTrailingWhitespaceMultipleLines(t *testing.T) {
	src := "let a = 1 \nlet b = 2\t\n\n  \n"
	f := linttest.Parse(t, "javascript", src)
	if got := lint.Collect(f, &TrailingWhitespace{}); len(got) != 3 {
		t.Fatalf("expected 3 violations, got %d", len(got))
	}
	text, _ := lint.ApplyCorrections(f, &TrailingWhitespace{})
	if text != "let a = 1\nlet b = 2\n\n\n" {
		t.Errorf("unexpected correction %q", text)
	}
}

func TestTrailingWhitespaceDisableNextCoversBlankLine(t *testing.T) {
	src := "let a = 0\n// mallet:disable:next trailing_whitespace\n   \nlet b = 1 \n"
	f := linttest.Parse(t, "javascript", src)

	kept, suppressed := lint.CollectAll(f, &TrailingWhitespace{})
	if got := linttest.Positions(kept); len(got) != 1 || got[0] != 66 {
		t.Fatalf("kept = %v, want [66]", got)
	}
	if got := linttest.Positions(suppressed); len(got) != 1 || got[0] != 53 {
		t.Fatalf("suppressed = %v, want [53]", got)
	}

	res := lint.Correct(f, &TrailingWhitespace{})
	want := "let a = 0\n// mallet:disable:next trailing_whitespace\n   \nlet b = 1\n"
	if res.Text != want {
		t.Fatalf("unexpected correction %q", res.Text)
	}
	if len(res.Corrections) != 1 || res.Corrections[0].Position != 66 {
		t.Fatalf("corrections = %v, want one at 66", res.Corrections)
	}
}

func TestTrailingWhitespaceBlockDisableSharesTrivia(t *testing.T) {
	src := strings.Join([]string{
		"// mallet:disable trailing_whitespace",
		"let a = 0",
		"  ",
		"// mallet:enable trailing_whitespace",
		"let b = 1 ",
		"",
	}, "\n")
	f := linttest.Parse(t, "javascript", src)

	text, corrections := lint.ApplyCorrections(f, &TrailingWhitespace{})
	want := strings.Replace(src, "let b = 1 \n", "let b = 1\n", 1)
	if text != want {
		t.Fatalf("unexpected correction %q", text)
	}
	if len(corrections) != 1 || f.Lines.Line(corrections[0].Position) != 5 {
		t.Fatalf("corrections = %v, want one on line 5", corrections)
	}
}

func TestTrailingWhitespaceCorrectionMatchesViolation(t *testing.T) {
	f := linttest.Parse(t, "javascript", "let a = 0\n   \n\nlet b = 1\n")

	violations := lint.Collect(f, &TrailingWhitespace{})
	res := lint.Correct(f, &TrailingWhitespace{})
	if len(violations) != 1 || len(res.Corrections) != 1 {
		t.Fatalf("got %d violations and %d corrections, want 1 each", len(violations), len(res.Corrections))
	}
	if violations[0].Position != res.Corrections[0].Position {
		t.Errorf("correction at %d, violation at %d", res.Corrections[0].Position, violations[0].Position)
	}
	if line := f.Lines.Line(res.Corrections[0].Position); line != 2 {
		t.Errorf("correction on line %d, want 2", line)
	}
}

func TestTrailingSemicolonKeepsComments(t *testing.T) {
	f := linttest.Parse(t, "typescript", "const a = 1; // one\nconst b = 2;\n")
	text, corrections := lint.ApplyCorrections(f, &TrailingSemicolon{})
	if text != "const a = 1 // one\nconst b = 2\n" {
		t.Errorf("unexpected correction %q", text)
	}
	if len(corrections) != 2 {
		t.Errorf("expected 2 corrections, got %d", len(corrections))
	}
}
