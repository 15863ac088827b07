package editor

import "fmt"

// Position represents a line and column position in the buffer.
// Line is 0-indexed; Ch is a 0-indexed column measured in bytes from
// the start of the line.
type Position struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	return fmt.Sprintf("(%d:%d)", p.Line, p.Ch)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Position) Compare(other Position) int {
	if p.Line != other.Line {
		if p.Line < other.Line {
			return -1
		}
		return 1
	}
	if p.Ch != other.Ch {
		if p.Ch < other.Ch {
			return -1
		}
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Position) Before(other Position) bool {
	return p.Compare(other) < 0
}

// Range is a span between two positions. From and To are normalized by
// ordered() before use; callers may pass them in either order.
type Range struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// ordered returns the range with From <= To.
func (r Range) ordered() Range {
	if r.To.Before(r.From) {
		return Range{From: r.To, To: r.From}
	}
	return r
}

// IsEmpty returns true if the range spans no content.
func (r Range) IsEmpty() bool {
	return r.From.Compare(r.To) == 0
}
