package syntax

import (
	"io"
	"strings"
)

// Render returns the exact text of the subtree rooted at n.
func Render(n *Node) string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	b.Grow(n.width)
	write(&b, n)
	return b.String()
}

// WriteTo streams the text of the subtree to w.
func (n *Node) WriteTo(w io.Writer) (int64, error) {
	s := Render(n)
	written, err := io.WriteString(w, s)
	return int64(written), err
}

func write(b *strings.Builder, n *Node) {
	if n.kind == KindToken {
		for _, p := range n.leading {
			b.WriteString(p.Text)
		}
		b.WriteString(n.text)
		for _, p := range n.trailing {
			b.WriteString(p.Text)
		}
		return
	}
	for _, c := range n.children {
		write(b, c)
	}
}
