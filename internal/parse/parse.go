// Package parse turns source text into a lossless syntax tree using
// tree-sitter grammars.
package parse

import (
	"context"
	"errors"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/chris-regnier/mallet/internal/syntax"
)

// ErrUnsupportedLanguage is returned for files with no known grammar.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// EOFType is the type of the zero-width token that closes every tree and
// carries the trivia at the end of the file.
const EOFType = "eof"

// Parse builds a syntax tree for src. Every byte of src ends up in exactly
// one token text or trivia piece, so rendering the tree reproduces src.
func Parse(ctx context.Context, src []byte, lang *Language) (*syntax.Tree, error) {
	if lang == nil {
		return nil, ErrUnsupportedLanguage
	}
	if _, err := safecast.Conv[uint32](len(src)); err != nil {
		return nil, fmt.Errorf("source of %d bytes is too large to parse: %w", len(src), err)
	}

	parser := sitter.NewParser()
	parser.SetLanguage(lang.Grammar)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", lang.Name, err)
	}

	b := &builder{src: string(src), lang: lang}
	root := b.convert(tree.RootNode(), true)
	b.attachTrivia()
	return syntax.NewTree(b.freeze(root, true), lang.Name), nil
}

// ParseFile detects the language of path from its extension and parses src.
func ParseFile(ctx context.Context, path string, src []byte) (*syntax.Tree, error) {
	lang, ok := Detect(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedLanguage)
	}
	return Parse(ctx, src, lang)
}

// draft is the mutable form of a node while trivia is being distributed.
type draft struct {
	typ   string
	field string
	named bool
	token bool

	text              string
	leading, trailing syntax.Trivia
	children          []*draft
}

// event is a token or a comment in source order.
type event struct {
	start, end int
	tok        *draft
}

type builder struct {
	src    string
	lang   *Language
	events []event
	eof    *draft
}

func (b *builder) convert(n *sitter.Node, root bool) *draft {
	typ := n.Type()
	start, end := int(n.StartByte()), int(n.EndByte())

	if !root && b.lang.CommentTypes.Has(typ) {
		b.events = append(b.events, event{start: start, end: end})
		return nil
	}

	d := &draft{typ: typ, named: n.IsNamed()}
	if !root && (n.ChildCount() == 0 || b.lang.AtomicTypes.Has(typ)) {
		d.token = true
		b.events = append(b.events, event{start: start, end: end, tok: d})
		return d
	}

	for i := 0; i < int(n.ChildCount()); i++ {
		child := b.convert(n.Child(i), false)
		if child == nil {
			continue
		}
		child.field = n.FieldNameForChild(i)
		d.children = append(d.children, child)
	}
	if root {
		b.eof = &draft{typ: EOFType, token: true}
		d.children = append(d.children, b.eof)
	}
	return d
}

// attachTrivia walks the token and comment stream in source order. Text
// between tokens becomes trivia; the part up to the first line break
// trails the previous token and the rest leads the next one.
func (b *builder) attachTrivia() {
	cursor := 0
	var prev *draft
	var pending syntax.Trivia

	flush := func(next *draft) {
		split := 0
		if prev != nil {
			split = len(pending)
			for i, p := range pending {
				if p.Kind == syntax.Newlines {
					split = i
					break
				}
			}
			if split > 0 {
				prev.trailing = pending[:split:split]
			}
		}
		if split < len(pending) {
			next.leading = pending[split:]
		}
		pending = nil
	}

	for _, ev := range b.events {
		if ev.start > cursor {
			pending = append(pending, syntax.SplitWhitespace(b.src[cursor:ev.start])...)
		}
		start := max(ev.start, cursor)
		end := max(ev.end, start)
		if ev.tok == nil {
			if end > start {
				pending = append(pending, syntax.Comment(b.src[start:end]))
			}
			cursor = end
			continue
		}
		flush(ev.tok)
		ev.tok.text = b.src[start:end]
		cursor = end
		prev = ev.tok
	}

	if cursor < len(b.src) {
		pending = append(pending, syntax.SplitWhitespace(b.src[cursor:])...)
	}
	flush(b.eof)
}

func (b *builder) freeze(d *draft, root bool) *syntax.Node {
	var n *syntax.Node
	if d.token {
		n = syntax.NewToken(d.typ, d.text, d.leading, d.trailing)
	} else {
		children := make([]*syntax.Node, 0, len(d.children))
		for _, c := range d.children {
			children = append(children, b.freeze(c, false))
		}
		if root {
			n = syntax.NewRoot(d.typ, children...)
		} else {
			n = syntax.NewBranch(d.typ, children...)
		}
	}
	return n.WithField(d.field).WithNamed(d.named)
}
