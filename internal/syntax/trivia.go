package syntax

import "strings"

// PieceKind classifies one run of trivia.
type PieceKind uint8

const (
	Spaces PieceKind = iota
	Tabs
	Newlines
	LineComment
	BlockComment
	// Unexpected holds bytes between tokens that are neither whitespace
	// nor comments, such as a form feed.
	Unexpected
)

func (k PieceKind) String() string {
	switch k {
	case Spaces:
		return "spaces"
	case Tabs:
		return "tabs"
	case Newlines:
		return "newlines"
	case LineComment:
		return "line_comment"
	case BlockComment:
		return "block_comment"
	default:
		return "unexpected"
	}
}

// Piece is one run of trivia with its exact source text.
type Piece struct {
	Kind PieceKind
	Text string
}

func (p Piece) IsComment() bool {
	return p.Kind == LineComment || p.Kind == BlockComment
}

// IsHorizontalSpace reports whether the piece is spaces or tabs.
func (p Piece) IsHorizontalSpace() bool {
	return p.Kind == Spaces || p.Kind == Tabs
}

// IsWhitespace reports whether the piece is spaces, tabs or newlines.
func (p Piece) IsWhitespace() bool {
	return p.IsHorizontalSpace() || p.Kind == Newlines
}

// Comment classifies comment text as a line or block comment.
func Comment(text string) Piece {
	if strings.HasPrefix(text, "/*") {
		return Piece{Kind: BlockComment, Text: text}
	}
	return Piece{Kind: LineComment, Text: text}
}

// Trivia is the ordered sequence of pieces attached to one side of a token.
type Trivia []Piece

// SplitWhitespace lexes text that contains no comments into pieces.
// Consecutive bytes of the same class share one piece.
func SplitWhitespace(text string) Trivia {
	var out Trivia
	for i := 0; i < len(text); {
		kind := classify(text[i])
		j := i + 1
		for j < len(text) && classify(text[j]) == kind {
			j++
		}
		out = append(out, Piece{Kind: kind, Text: text[i:j]})
		i = j
	}
	return out
}

func classify(b byte) PieceKind {
	switch b {
	case ' ':
		return Spaces
	case '\t':
		return Tabs
	case '\n', '\r':
		return Newlines
	}
	return Unexpected
}

func (t Trivia) String() string {
	if len(t) == 1 {
		return t[0].Text
	}
	var b strings.Builder
	for _, p := range t {
		b.WriteString(p.Text)
	}
	return b.String()
}

// Len returns the width of the trivia in bytes.
func (t Trivia) Len() int {
	n := 0
	for _, p := range t {
		n += len(p.Text)
	}
	return n
}

func (t Trivia) IsEmpty() bool {
	return t.Len() == 0
}

func (t Trivia) ContainsNewline() bool {
	for _, p := range t {
		if p.Kind == Newlines {
			return true
		}
	}
	return false
}

func (t Trivia) ContainsComment() bool {
	for _, p := range t {
		if p.IsComment() {
			return true
		}
	}
	return false
}

// OnlyHorizontalSpace reports whether the trivia is non-empty and made
// of spaces and tabs alone.
func (t Trivia) OnlyHorizontalSpace() bool {
	if len(t) == 0 {
		return false
	}
	for _, p := range t {
		if !p.IsHorizontalSpace() {
			return false
		}
	}
	return true
}

// StartsWithNewline reports whether the first piece is a line break.
func (t Trivia) StartsWithNewline() bool {
	return len(t) > 0 && t[0].Kind == Newlines
}
