package astcheck

import (
	"strings"

	"github.com/chris-regnier/mallet/internal/lint"
	"github.com/chris-regnier/mallet/internal/syntax"
)

// EmptyHandler checks for empty error/exception handling blocks. A handler
// whose only content is a comment is treated as deliberately empty.
type EmptyHandler struct{}

func (r *EmptyHandler) Description() lint.Description {
	return lint.Description{
		ID:        "empty_handler",
		Name:      "Empty Handler",
		Summary:   "Errors and exceptions should not be silently discarded",
		Kind:      lint.KindLint,
		Severity:  lint.SeverityError,
		Languages: []string{"go", "python", "javascript", "typescript", "java"},
		NonTriggering: []lint.Example{
			{Code: "func f() error {\n\tif err := g(); err != nil {\n\t\treturn err\n\t}\n\treturn nil\n}\n", Language: "go"},
			{Code: "func f() {\n\tif err := g(); err != nil {\n\t\t// best effort\n\t}\n}\n", Language: "go"},
			{Code: "try:\n    f()\nexcept ValueError:\n    log(1)\n", Language: "python"},
			{Code: "try { f() } catch (e) { /* ignored */ }\n", Language: "javascript"},
		},
		Triggering: []lint.Example{
			{Code: "func f() {\n\terr := g()\n\t↓if err != nil {\n\t}\n}\n", Language: "go"},
			{Code: "try:\n    f()\n↓except ValueError:\n    pass\n", Language: "python"},
			{Code: "try { f() } ↓catch (e) {}\n", Language: "javascript"},
		},
	}
}

func (r *EmptyHandler) Visitor(f *lint.File) *lint.Visitor {
	switch f.Language {
	case "go":
		return &lint.Visitor{Visit: map[string]lint.VisitFunc{"if_statement": checkGoHandler}}
	case "python":
		return &lint.Visitor{Visit: map[string]lint.VisitFunc{"except_clause": checkExceptPass}}
	case "javascript", "typescript", "java":
		return &lint.Visitor{Visit: map[string]lint.VisitFunc{"catch_clause": checkCatchClause}}
	default:
		return nil
	}
}

// checkGoHandler finds `if err != nil { }` blocks with empty bodies.
func checkGoHandler(c *syntax.Cursor, rep *lint.Report) {
	cond := c.ChildByField("condition")
	if cond == nil || strings.Join(strings.Fields(cond.Content()), " ") != "err != nil" {
		return
	}
	body := c.ChildByField("consequence")
	if body == nil || len(body.Node().NamedChildren()) > 0 || commented(body) {
		return
	}
	rep.AddReason(c.Start(), "empty error handler")
}

// checkExceptPass finds `except: pass` blocks.
func checkExceptPass(c *syntax.Cursor, rep *lint.Report) {
	var body *syntax.Cursor
	for _, child := range c.Children() {
		if child.Type() == "block" {
			body = child
			break
		}
	}
	if body == nil || commented(body) {
		return
	}
	stmts := body.Node().NamedChildren()
	if len(stmts) == 1 && stmts[0].Type() == "pass_statement" {
		rep.AddReason(c.Start(), "empty except handler (pass)")
	}
}

// checkCatchClause finds catch blocks with empty bodies.
func checkCatchClause(c *syntax.Cursor, rep *lint.Report) {
	body := c.ChildByField("body")
	if body == nil || len(body.Node().NamedChildren()) > 0 || commented(body) {
		return
	}
	rep.AddReason(c.Start(), "empty catch handler")
}

// commented reports whether a comment appears inside the block, ignoring
// trivia before its first token and after its last.
func commented(block *syntax.Cursor) bool {
	toks := syntax.Tokens(block)
	for i, tok := range toks {
		if i > 0 && tok.Node().Leading().ContainsComment() {
			return true
		}
		if i < len(toks)-1 && tok.Node().Trailing().ContainsComment() {
			return true
		}
	}
	return false
}
