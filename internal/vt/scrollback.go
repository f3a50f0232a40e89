package vt

import "strings"

// DefaultScrollbackSize is the number of lines kept when no limit is given.
const DefaultScrollbackSize = 1000

// Line is one row of cells.
type Line []Cell

// String returns the characters of the line with trailing blanks removed.
func (l Line) String() string {
	var b strings.Builder
	for _, c := range l {
		switch {
		case c.Width == 0:
			// trailing half of a wide rune
		case c.Char == 0:
			b.WriteByte(' ')
		default:
			b.WriteRune(c.Char)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Scrollback holds lines that scrolled off the top of the screen.
// It is a bounded FIFO backed by a ring buffer: once full, each push
// overwrites the oldest line.
type Scrollback struct {
	lines    []Line
	maxLines int
	head     int // oldest line
	tail     int // next write position
	full     bool
}

// NewScrollback creates a scrollback buffer holding at most maxLines lines.
// If maxLines is not positive, DefaultScrollbackSize is used.
func NewScrollback(maxLines int) *Scrollback {
	if maxLines <= 0 {
		maxLines = DefaultScrollbackSize
	}
	return &Scrollback{
		lines:    make([]Line, maxLines),
		maxLines: maxLines,
	}
}

// PushLine appends a copy of line, evicting the oldest line when full.
func (sb *Scrollback) PushLine(line Line) {
	lineCopy := make(Line, len(line))
	copy(lineCopy, line)

	sb.lines[sb.tail] = lineCopy
	sb.tail = (sb.tail + 1) % sb.maxLines

	if sb.full {
		sb.head = (sb.head + 1) % sb.maxLines
	}
	if sb.tail == sb.head {
		sb.full = true
	}
}

// Len returns the number of stored lines.
func (sb *Scrollback) Len() int {
	if sb.full {
		return sb.maxLines
	}
	if sb.tail >= sb.head {
		return sb.tail - sb.head
	}
	return sb.maxLines - sb.head + sb.tail
}

// Line returns the line at index, where 0 is the oldest line.
// Out of range indexes return nil.
func (sb *Scrollback) Line(index int) Line {
	if index < 0 || index >= sb.Len() {
		return nil
	}
	return sb.lines[(sb.head+index)%sb.maxLines]
}

// Clear removes every line.
func (sb *Scrollback) Clear() {
	sb.head, sb.tail, sb.full = 0, 0, false
	for i := range sb.lines {
		sb.lines[i] = nil
	}
}
