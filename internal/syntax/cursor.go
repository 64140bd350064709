package syntax

import "github.com/chris-regnier/mallet/internal/position"

// Cursor is a view of a node at a fixed place in one tree. It knows its
// absolute offset and holds a non-owning link to the cursor of its
// parent. Cursors are cheap and created on demand while walking.
type Cursor struct {
	node   *Node
	parent *Cursor
	index  int
	offset position.Position
}

// NewCursor returns a cursor on n treated as the root of a tree.
func NewCursor(n *Node) *Cursor {
	return &Cursor{node: n, index: -1}
}

// NewCursorAt places n under parent as child index, starting at offset.
// It lets a rewriter present a replacement node at the place of the node
// it replaces.
func NewCursorAt(n *Node, parent *Cursor, index int, offset position.Position) *Cursor {
	return &Cursor{node: n, parent: parent, index: index, offset: offset}
}

func (c *Cursor) Node() *Node { return c.node }

func (c *Cursor) Type() string { return c.node.typ }

func (c *Cursor) Kind() Kind { return c.node.kind }

// Parent returns the enclosing cursor, or nil at the root.
func (c *Cursor) Parent() *Cursor { return c.parent }

// Index is the position of the node among its siblings, -1 at the root.
func (c *Cursor) Index() int { return c.index }

// FullStart is the offset of the node including leading trivia.
func (c *Cursor) FullStart() position.Position { return c.offset }

// FullEnd is the offset just past the node including trailing trivia.
func (c *Cursor) FullEnd() position.Position {
	return c.offset + position.Position(c.node.width)
}

// Start is the offset of the first byte of content, after leading trivia.
func (c *Cursor) Start() position.Position {
	return c.offset + position.Position(c.node.lead)
}

// End is the offset just past the content, before trailing trivia.
func (c *Cursor) End() position.Position {
	return c.FullEnd() - position.Position(c.node.trail)
}

func (c *Cursor) Range() position.Range {
	return position.NewRange(c.Start(), c.End())
}

func (c *Cursor) FullRange() position.Range {
	return position.NewRange(c.FullStart(), c.FullEnd())
}

// Content returns the text of the node without its outer trivia.
func (c *Cursor) Content() string {
	s := Render(c.node)
	return s[c.node.lead : len(s)-c.node.trail]
}

func (c *Cursor) NumChildren() int { return len(c.node.children) }

// Child returns a cursor on child i.
func (c *Cursor) Child(i int) *Cursor {
	off := c.offset
	for _, s := range c.node.children[:i] {
		off += position.Position(s.width)
	}
	return &Cursor{node: c.node.children[i], parent: c, index: i, offset: off}
}

// Children returns cursors on all children.
func (c *Cursor) Children() []*Cursor {
	out := make([]*Cursor, len(c.node.children))
	off := c.offset
	for i, s := range c.node.children {
		out[i] = &Cursor{node: s, parent: c, index: i, offset: off}
		off += position.Position(s.width)
	}
	return out
}

// ChildByField returns a cursor on the first child under the field name.
func (c *Cursor) ChildByField(name string) *Cursor {
	for i, s := range c.node.children {
		if s.field == name {
			return c.Child(i)
		}
	}
	return nil
}

// FirstToken returns a cursor on the first leaf of the subtree.
func (c *Cursor) FirstToken() *Cursor {
	cur := c
	for cur.node.kind != KindToken {
		next := (*Cursor)(nil)
		off := cur.offset
		for i, s := range cur.node.children {
			if s.hasToken {
				next = &Cursor{node: s, parent: cur, index: i, offset: off}
				break
			}
			off += position.Position(s.width)
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// LastToken returns a cursor on the last leaf of the subtree.
func (c *Cursor) LastToken() *Cursor {
	cur := c
	for cur.node.kind != KindToken {
		next := (*Cursor)(nil)
		end := cur.FullEnd()
		for i := len(cur.node.children) - 1; i >= 0; i-- {
			s := cur.node.children[i]
			end -= position.Position(s.width)
			if s.hasToken {
				next = &Cursor{node: s, parent: cur, index: i, offset: end}
				break
			}
		}
		if next == nil {
			return nil
		}
		cur = next
	}
	return cur
}

// NextSibling returns the following sibling, or nil.
func (c *Cursor) NextSibling() *Cursor {
	if c.parent == nil || c.index+1 >= len(c.parent.node.children) {
		return nil
	}
	return &Cursor{
		node:   c.parent.node.children[c.index+1],
		parent: c.parent,
		index:  c.index + 1,
		offset: c.FullEnd(),
	}
}

// PrevSibling returns the preceding sibling, or nil.
func (c *Cursor) PrevSibling() *Cursor {
	if c.parent == nil || c.index <= 0 {
		return nil
	}
	s := c.parent.node.children[c.index-1]
	return &Cursor{
		node:   s,
		parent: c.parent,
		index:  c.index - 1,
		offset: c.offset - position.Position(s.width),
	}
}

// NextToken returns the first leaf after the subtree, or nil.
func (c *Cursor) NextToken() *Cursor {
	for cur := c; cur != nil; cur = cur.parent {
		for s := cur.NextSibling(); s != nil; s = s.NextSibling() {
			if t := s.FirstToken(); t != nil {
				return t
			}
		}
	}
	return nil
}

// PrevToken returns the last leaf before the subtree, or nil.
func (c *Cursor) PrevToken() *Cursor {
	for cur := c; cur != nil; cur = cur.parent {
		for s := cur.PrevSibling(); s != nil; s = s.PrevSibling() {
			if t := s.LastToken(); t != nil {
				return t
			}
		}
	}
	return nil
}

// Ancestor returns the nearest enclosing cursor whose type is in types.
func (c *Cursor) Ancestor(types TypeSet) *Cursor {
	for p := c.parent; p != nil; p = p.parent {
		if types.Has(p.node.typ) {
			return p
		}
	}
	return nil
}

// Depth is the number of ancestors above the cursor.
func (c *Cursor) Depth() int {
	d := 0
	for p := c.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// PieceRef is a trivia piece with its absolute span.
type PieceRef struct {
	Piece
	Range position.Range
}

// LeadingPieces returns the leading trivia of a token with offsets.
func (c *Cursor) LeadingPieces() []PieceRef {
	return pieceRefs(c.node.leading, c.offset)
}

// TrailingPieces returns the trailing trivia of a token with offsets.
func (c *Cursor) TrailingPieces() []PieceRef {
	return pieceRefs(c.node.trailing, c.End())
}

func pieceRefs(t Trivia, at position.Position) []PieceRef {
	if len(t) == 0 {
		return nil
	}
	out := make([]PieceRef, len(t))
	for i, p := range t {
		end := at + position.Position(len(p.Text))
		out[i] = PieceRef{Piece: p, Range: position.NewRange(at, end)}
		at = end
	}
	return out
}
