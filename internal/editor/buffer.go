package editor

import "strings"

// Buffer holds the document text as lines and supports coordinate
// translation between Positions and absolute byte offsets.
//
// An empty buffer has exactly one empty line; LineCount is never zero.
type Buffer struct {
	lines []string
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{lines: []string{""}}
}

// NewBufferFromString creates a buffer holding s.
// Line endings are normalized to LF.
func NewBufferFromString(s string) *Buffer {
	b := NewBuffer()
	b.SetText(s)
	return b
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return strings.Join(b.lines, "\n")
}

// SetText replaces the entire buffer content.
func (b *Buffer) SetText(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	b.lines = strings.Split(s, "\n")
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	n := 0
	for i, line := range b.lines {
		if i > 0 {
			n++ // newline
		}
		n += len(line)
	}
	return n
}

// LineCount returns the total number of lines.
func (b *Buffer) LineCount() int {
	return len(b.lines)
}

// Line returns the text of a line, or "" for an out-of-range index.
func (b *Buffer) Line(n int) string {
	if n < 0 || n >= len(b.lines) {
		return ""
	}
	return b.lines[n]
}

// Clamp constrains a position to valid buffer bounds.
// Out-of-range coordinates never fail; they snap to the nearest valid
// position.
func (b *Buffer) Clamp(p Position) Position {
	if p.Line < 0 {
		return Position{Line: 0, Ch: 0}
	}
	if p.Line >= len(b.lines) {
		last := len(b.lines) - 1
		return Position{Line: last, Ch: len(b.lines[last])}
	}
	if p.Ch < 0 {
		p.Ch = 0
	}
	if p.Ch > len(b.lines[p.Line]) {
		p.Ch = len(b.lines[p.Line])
	}
	return p
}

// PositionToOffset translates a position to an absolute byte offset.
// The position is clamped first.
func (b *Buffer) PositionToOffset(p Position) int {
	p = b.Clamp(p)
	offset := 0
	for i := 0; i < p.Line; i++ {
		offset += len(b.lines[i]) + 1
	}
	return offset + p.Ch
}

// OffsetToPosition translates an absolute byte offset to a position.
// Offsets beyond the buffer end clamp to the final position.
func (b *Buffer) OffsetToPosition(offset int) Position {
	if offset < 0 {
		return Position{}
	}
	for i, line := range b.lines {
		if offset <= len(line) {
			return Position{Line: i, Ch: offset}
		}
		offset -= len(line) + 1
	}
	last := len(b.lines) - 1
	return Position{Line: last, Ch: len(b.lines[last])}
}

// TextRange returns the content between two positions.
// The range is normalized and clamped.
func (b *Buffer) TextRange(r Range) string {
	r = r.ordered()
	from := b.Clamp(r.From)
	to := b.Clamp(r.To)

	if from.Line == to.Line {
		return b.lines[from.Line][from.Ch:to.Ch]
	}

	var sb strings.Builder
	sb.WriteString(b.lines[from.Line][from.Ch:])
	for i := from.Line + 1; i < to.Line; i++ {
		sb.WriteByte('\n')
		sb.WriteString(b.lines[i])
	}
	sb.WriteByte('\n')
	sb.WriteString(b.lines[to.Line][:to.Ch])
	return sb.String()
}

// Replace substitutes the content between two positions with text and
// returns the position immediately after the inserted text.
func (b *Buffer) Replace(r Range, text string) Position {
	r = r.ordered()
	from := b.Clamp(r.From)
	to := b.Clamp(r.To)

	head := b.lines[from.Line][:from.Ch]
	tail := b.lines[to.Line][to.Ch:]

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	inserted := strings.Split(text, "\n")

	end := Position{}
	if len(inserted) == 1 {
		end = Position{Line: from.Line, Ch: from.Ch + len(inserted[0])}
	} else {
		end = Position{Line: from.Line + len(inserted) - 1, Ch: len(inserted[len(inserted)-1])}
	}

	inserted[0] = head + inserted[0]
	inserted[len(inserted)-1] = inserted[len(inserted)-1] + tail

	replaced := make([]string, 0, len(b.lines)-(to.Line-from.Line+1)+len(inserted))
	replaced = append(replaced, b.lines[:from.Line]...)
	replaced = append(replaced, inserted...)
	replaced = append(replaced, b.lines[to.Line+1:]...)
	b.lines = replaced

	return end
}
