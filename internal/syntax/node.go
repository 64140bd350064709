// Package syntax holds the immutable concrete syntax tree the lint engine
// works on.
//
// A Node stores only its own content and its children. It carries no
// offsets and no parent link, so a node can be shared between an
// original tree and any number of rewritten trees. Positions and
// ancestry are supplied by a Cursor, a lightweight view of a node inside
// one particular tree.
package syntax

import (
	"fmt"
	"slices"
)

// Kind is the closed set of node shapes.
type Kind uint8

const (
	KindToken Kind = iota
	KindBranch
	KindRoot
)

func (k Kind) String() string {
	switch k {
	case KindToken:
		return "token"
	case KindBranch:
		return "branch"
	case KindRoot:
		return "root"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is one immutable node of a concrete syntax tree. Rendering every
// token in order, each as leading trivia, text and trailing trivia,
// reproduces the source exactly.
type Node struct {
	kind  Kind
	typ   string
	field string
	named bool

	// tokens only
	leading  Trivia
	text     string
	trailing Trivia

	children []*Node

	width    int
	lead     int
	trail    int
	hasToken bool
}

// NewToken returns a leaf node.
func NewToken(typ, text string, leading, trailing Trivia) *Node {
	n := &Node{
		kind:     KindToken,
		typ:      typ,
		leading:  leading,
		text:     text,
		trailing: trailing,
		hasToken: true,
	}
	n.lead = leading.Len()
	n.trail = trailing.Len()
	n.width = n.lead + len(text) + n.trail
	return n
}

// NewBranch returns an interior node owning children.
func NewBranch(typ string, children ...*Node) *Node {
	return newInterior(KindBranch, typ, children)
}

// NewRoot returns the node at the top of a tree.
func NewRoot(typ string, children ...*Node) *Node {
	return newInterior(KindRoot, typ, children)
}

func newInterior(kind Kind, typ string, children []*Node) *Node {
	n := &Node{kind: kind, typ: typ, named: true, children: children}
	first, last := -1, -1
	for i, c := range children {
		n.width += c.width
		if c.hasToken {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first >= 0 {
		n.hasToken = true
		n.lead = children[first].lead
		n.trail = children[last].trail
	}
	return n
}

func (n *Node) clone() *Node {
	c := *n
	return &c
}

func (n *Node) Kind() Kind { return n.kind }

func (n *Node) Type() string { return n.typ }

func (n *Node) IsToken() bool { return n.kind == KindToken }

func (n *Node) Text() string { return n.text }

func (n *Node) Leading() Trivia { return n.leading }

func (n *Node) Trailing() Trivia { return n.trailing }

// Field is the grammar field name under which the node hangs from its
// parent, if any.
func (n *Node) Field() string { return n.field }

// Named distinguishes grammar rules from anonymous punctuation and
// keywords.
func (n *Node) Named() bool { return n.named }

// Width is the number of bytes the node renders to, trivia included.
func (n *Node) Width() int { return n.width }

// LeadingWidth is the width of the leading trivia of the first token.
func (n *Node) LeadingWidth() int { return n.lead }

// TrailingWidth is the width of the trailing trivia of the last token.
func (n *Node) TrailingWidth() int { return n.trail }

func (n *Node) NumChildren() int { return len(n.children) }

func (n *Node) Child(i int) *Node { return n.children[i] }

// Children returns a copy of the child list.
func (n *Node) Children() []*Node { return slices.Clone(n.children) }

// NamedChildren returns the children produced by named grammar rules.
func (n *Node) NamedChildren() []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.named {
			out = append(out, c)
		}
	}
	return out
}

// ChildByField returns the first child hanging under the given field name.
func (n *Node) ChildByField(name string) *Node {
	for _, c := range n.children {
		if c.field == name {
			return c
		}
	}
	return nil
}

// FirstToken returns the first leaf of the subtree, or nil when the
// subtree has none.
func (n *Node) FirstToken() *Node {
	if n.kind == KindToken {
		return n
	}
	for _, c := range n.children {
		if c.hasToken {
			return c.FirstToken()
		}
	}
	return nil
}

// LastToken returns the last leaf of the subtree, or nil.
func (n *Node) LastToken() *Node {
	if n.kind == KindToken {
		return n
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if n.children[i].hasToken {
			return n.children[i].LastToken()
		}
	}
	return nil
}

// WithChildren returns a node of the same kind and type owning children.
// Tokens are returned unchanged.
func (n *Node) WithChildren(children ...*Node) *Node {
	if n.kind == KindToken {
		return n
	}
	out := newInterior(n.kind, n.typ, children)
	out.field = n.field
	out.named = n.named
	return out
}

// WithChild returns a copy of n with child i replaced.
func (n *Node) WithChild(i int, child *Node) *Node {
	children := slices.Clone(n.children)
	children[i] = child
	return n.WithChildren(children...)
}

// WithText returns a token with new text and the same trivia.
func (n *Node) WithText(text string) *Node {
	if n.kind != KindToken {
		return n
	}
	out := NewToken(n.typ, text, n.leading, n.trailing)
	out.field = n.field
	out.named = n.named
	return out
}

// WithLeading replaces the leading trivia of the first token of the
// subtree.
func (n *Node) WithLeading(t Trivia) *Node {
	if n.kind == KindToken {
		out := NewToken(n.typ, n.text, t, n.trailing)
		out.field = n.field
		out.named = n.named
		return out
	}
	for i, c := range n.children {
		if c.hasToken {
			return n.WithChild(i, c.WithLeading(t))
		}
	}
	return n
}

// WithTrailing replaces the trailing trivia of the last token of the
// subtree.
func (n *Node) WithTrailing(t Trivia) *Node {
	if n.kind == KindToken {
		out := NewToken(n.typ, n.text, n.leading, t)
		out.field = n.field
		out.named = n.named
		return out
	}
	for i := len(n.children) - 1; i >= 0; i-- {
		if c := n.children[i]; c.hasToken {
			return n.WithChild(i, c.WithTrailing(t))
		}
	}
	return n
}

// WithField returns a copy of n attached under a different field name.
func (n *Node) WithField(name string) *Node {
	if n.field == name {
		return n
	}
	out := n.clone()
	out.field = name
	return out
}

// WithNamed returns a copy of n with the named flag set.
func (n *Node) WithNamed(named bool) *Node {
	if n.named == named {
		return n
	}
	out := n.clone()
	out.named = named
	return out
}

func (n *Node) String() string {
	return Render(n)
}
