package syntax

import (
	"sync"

	"github.com/chris-regnier/mallet/internal/position"
)

// Tree is a parsed or rewritten source file.
type Tree struct {
	Root     *Node
	Language string

	once   sync.Once
	source string
}

// NewTree wraps root. The root is expected to have KindRoot.
func NewTree(root *Node, language string) *Tree {
	return &Tree{Root: root, Language: language}
}

// Cursor returns a cursor on the root.
func (t *Tree) Cursor() *Cursor {
	return NewCursor(t.Root)
}

// Source renders the tree once and returns the cached text.
func (t *Tree) Source() string {
	t.once.Do(func() {
		t.source = Render(t.Root)
	})
	return t.source
}

// TokenAt returns the leaf whose full span, trivia included, contains p.
// The zero-width end-of-file token is returned for the offset at the end.
func (t *Tree) TokenAt(p position.Position) *Cursor {
	cur := t.Cursor()
	if p < 0 || int(p) > cur.node.width {
		return nil
	}
	for cur.node.kind != KindToken {
		var next *Cursor
		off := cur.offset
		for i, s := range cur.node.children {
			end := off + position.Position(s.width)
			if s.hasToken && (p < end || (i == len(cur.node.children)-1 && p == end)) {
				next = &Cursor{node: s, parent: cur, index: i, offset: off}
				break
			}
			off = end
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}
