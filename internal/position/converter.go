package position

import (
	"sort"
	"unicode/utf8"
)

type runeSpan struct {
	start, end int
}

// Converter answers coordinate queries for one immutable buffer. It is
// built once in a single pass and is safe for concurrent use.
type Converter struct {
	size       int
	lineStarts []int
	// multi-byte runes in offset order, with the running count of bytes
	// beyond the first for each prefix
	runes []runeSpan
	extra []int
}

// NewConverter indexes src. Lines are terminated by '\n'; a "\r\n" pair
// therefore belongs to the line it ends.
func NewConverter(src string) *Converter {
	c := &Converter{size: len(src), lineStarts: []int{0}}
	extra := 0
	for i := 0; i < len(src); {
		b := src[i]
		if b < utf8.RuneSelf {
			if b == '\n' {
				c.lineStarts = append(c.lineStarts, i+1)
			}
			i++
			continue
		}
		// invalid bytes decode with size 1 and count as one character
		_, size := utf8.DecodeRuneInString(src[i:])
		if size > 1 {
			extra += size - 1
			c.runes = append(c.runes, runeSpan{start: i, end: i + size})
			c.extra = append(c.extra, extra)
		}
		i += size
	}
	return c
}

// Size is the length of the indexed buffer in bytes.
func (c *Converter) Size() int {
	return c.size
}

// Valid reports whether p addresses the buffer. The offset one past the
// last byte is valid and denotes the end of the file.
func (c *Converter) Valid(p Position) bool {
	return p >= 0 && int(p) <= c.size
}

// LineCount returns the number of lines, counting a trailing empty line.
func (c *Converter) LineCount() int {
	return len(c.lineStarts)
}

func (c *Converter) lineIndex(p Position) int {
	return sort.SearchInts(c.lineStarts, int(p)+1) - 1
}

// Location returns the 1-based line and byte column of p, or
// InvalidLocation when p is outside the buffer.
func (c *Converter) Location(p Position) Location {
	if !c.Valid(p) {
		return InvalidLocation
	}
	i := c.lineIndex(p)
	return Location{Line: i + 1, Column: int(p) - c.lineStarts[i] + 1}
}

// Line returns the 1-based line of p, or 0 when p is outside the buffer.
func (c *Converter) Line(p Position) int {
	return c.Location(p).Line
}

// CharOffset converts a byte offset into a character offset, where every
// decoded rune counts once. Offsets outside the buffer or inside a
// multi-byte rune yield Invalid.
func (c *Converter) CharOffset(p Position) Position {
	if !c.Valid(p) {
		return Invalid
	}
	n := sort.Search(len(c.runes), func(i int) bool { return c.runes[i].end > int(p) })
	if n < len(c.runes) && c.runes[n].start < int(p) {
		return Invalid
	}
	if n == 0 {
		return p
	}
	return p - Position(c.extra[n-1])
}

// LineStart returns the offset of the first byte of a 1-based line.
func (c *Converter) LineStart(line int) Position {
	if line < 1 || line > len(c.lineStarts) {
		return Invalid
	}
	return Position(c.lineStarts[line-1])
}

// LineEnd returns the offset just past a 1-based line, including its
// terminator.
func (c *Converter) LineEnd(line int) Position {
	if line < 1 || line > len(c.lineStarts) {
		return Invalid
	}
	if line == len(c.lineStarts) {
		return Position(c.size)
	}
	return Position(c.lineStarts[line])
}

// LineRange returns the span of a 1-based line including its terminator.
func (c *Converter) LineRange(line int) (Range, bool) {
	start, end := c.LineStart(line), c.LineEnd(line)
	if start == Invalid {
		return Range{}, false
	}
	return NewRange(start, end), true
}

// Offset is the inverse of Location. Columns may address the line
// terminator but not beyond it.
func (c *Converter) Offset(loc Location) Position {
	if !loc.Valid() {
		return Invalid
	}
	start, end := c.LineStart(loc.Line), c.LineEnd(loc.Line)
	if start == Invalid {
		return Invalid
	}
	p := start + Position(loc.Column-1)
	if p > end {
		return Invalid
	}
	if p == end && loc.Line < len(c.lineStarts) {
		// only the last line may address the offset past its end
		return Invalid
	}
	return p
}
