package syntax

import "github.com/chris-regnier/mallet/internal/position"

// TypeSet is a set of node type names.
type TypeSet map[string]bool

// NewTypeSet builds a set from names.
func NewTypeSet(types ...string) TypeSet {
	s := make(TypeSet, len(types))
	for _, t := range types {
		s[t] = true
	}
	return s
}

// Has reports membership; a nil set contains nothing.
func (s TypeSet) Has(typ string) bool {
	return s[typ]
}

// Walk visits the subtree rooted at root in pre-order. enter is called on
// every node and returns whether to descend; leave is called after the
// node's children. Nodes whose type is in skip are entered and left but
// their children are not visited. Either callback may be nil.
func Walk(root *Cursor, skip TypeSet, enter func(*Cursor) bool, leave func(*Cursor)) {
	descend := true
	if enter != nil {
		descend = enter(root)
	}
	if descend && !skip.Has(root.node.typ) {
		off := root.offset
		for i, child := range root.node.children {
			Walk(&Cursor{node: child, parent: root, index: i, offset: off}, skip, enter, leave)
			off += position.Position(child.width)
		}
	}
	if leave != nil {
		leave(root)
	}
}

// Inspect walks the subtree in pre-order while fn returns true.
func Inspect(root *Cursor, fn func(*Cursor) bool) {
	Walk(root, nil, fn, nil)
}

// Tokens returns cursors on every leaf of the subtree in source order.
func Tokens(root *Cursor) []*Cursor {
	var out []*Cursor
	Inspect(root, func(c *Cursor) bool {
		if c.node.kind == KindToken {
			out = append(out, c)
			return false
		}
		return true
	})
	return out
}

// FindAll returns every node in the subtree whose type is in types,
// outermost first.
func FindAll(root *Cursor, types TypeSet) []*Cursor {
	var out []*Cursor
	Inspect(root, func(c *Cursor) bool {
		if types.Has(c.node.typ) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// Comments returns every comment piece in the subtree with its span.
func Comments(root *Cursor) []PieceRef {
	var out []PieceRef
	for _, t := range Tokens(root) {
		if !t.node.leading.ContainsComment() && !t.node.trailing.ContainsComment() {
			continue
		}
		for _, p := range t.LeadingPieces() {
			if p.IsComment() {
				out = append(out, p)
			}
		}
		for _, p := range t.TrailingPieces() {
			if p.IsComment() {
				out = append(out, p)
			}
		}
	}
	return out
}
