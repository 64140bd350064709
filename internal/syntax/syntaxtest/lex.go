// Package syntaxtest builds small syntax trees for tests without a
// grammar.
package syntaxtest

import (
	"strings"

	"github.com/chris-regnier/mallet/internal/syntax"
)

// Lex splits src into a flat tree. Runs of letters, digits and
// underscores become "identifier" tokens, every other visible byte is a
// token typed by its own text, and // and /* */ comments become trivia.
// Trivia up to the first line break trails the previous token.
func Lex(src string) *syntax.Tree {
	var toks []*syntax.Node
	var pending syntax.Trivia

	emit := func(typ, text string) {
		split := 0
		if n := len(toks); n > 0 {
			split = len(pending)
			for i, p := range pending {
				if p.Kind == syntax.Newlines {
					split = i
					break
				}
			}
			if split > 0 {
				last := toks[n-1]
				toks[n-1] = last.WithTrailing(pending[:split:split])
			}
		}
		var leading syntax.Trivia
		if split < len(pending) {
			leading = pending[split:]
		}
		toks = append(toks, syntax.NewToken(typ, text, leading, nil))
		pending = nil
	}

	for i := 0; i < len(src); {
		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, "//"):
			j := strings.IndexByte(rest, '\n')
			if j < 0 {
				j = len(rest)
			}
			pending = append(pending, syntax.Comment(rest[:j]))
			i += j
		case strings.HasPrefix(rest, "/*"):
			j := strings.Index(rest, "*/")
			if j < 0 {
				j = len(rest)
			} else {
				j += 2
			}
			pending = append(pending, syntax.Comment(rest[:j]))
			i += j
		case isSpace(src[i]):
			j := i
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			pending = append(pending, syntax.SplitWhitespace(src[i:j])...)
			i = j
		case isWord(src[i]):
			j := i
			for j < len(src) && isWord(src[j]) {
				j++
			}
			emit("identifier", src[i:j])
			i = j
		default:
			emit(src[i:i+1], src[i:i+1])
			i++
		}
	}
	emit("eof", "")

	return syntax.NewTree(syntax.NewRoot("source_file", toks...), "test")
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isWord(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}
