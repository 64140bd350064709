// Package position maps absolute byte offsets in a source buffer to
// human-facing coordinates.
package position

import (
	"fmt"
	"math"
)

// Position is an absolute byte offset into a source buffer.
type Position int

const (
	// Invalid marks an offset that does not address the buffer.
	Invalid Position = -1
	// EOF is the open upper bound used by regions that run to the end of a file.
	EOF Position = math.MaxInt
)

func (p Position) String() string {
	switch p {
	case Invalid:
		return "invalid"
	case EOF:
		return "EOF"
	}
	return fmt.Sprintf("%d", int(p))
}

// Range is a half-open span [Start, End) of byte offsets.
type Range struct {
	Start Position
	End   Position
}

// NewRange returns the range [start, end). An end before start collapses
// to an empty range at start.
func NewRange(start, end Position) Range {
	if end < start {
		end = start
	}
	return Range{Start: start, End: end}
}

// Contains reports whether p lies inside the range.
func (r Range) Contains(p Position) bool {
	return p >= r.Start && p < r.End
}

func (r Range) Len() int {
	return int(r.End - r.Start)
}

func (r Range) Empty() bool {
	return r.End <= r.Start
}

// Overlaps reports whether the two ranges share at least one offset.
func (r Range) Overlaps(o Range) bool {
	return r.Start < o.End && o.Start < r.End
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// Location is a 1-based line and byte column.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// InvalidLocation is returned for offsets outside the buffer.
var InvalidLocation = Location{}

func (l Location) Valid() bool {
	return l.Line > 0 && l.Column > 0
}

func (l Location) String() string {
	if !l.Valid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}
