package vt

import (
	"iter"
	"strings"
)

// Snapshot is a read-only copy of the visible screen. Cells are stored
// row-major and every Fg is resolved: cells without an explicit colour
// carry the emulator's default foreground.
type Snapshot struct {
	Rows, Cols    int
	Cursor        Position
	CursorVisible bool
	Title         string
	Cells         []Cell
}

// Snapshot copies the visible screen. It takes only the read lock and does
// not change the emulator.
func (e *Emulator) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Snapshot{
		Rows:          e.rows,
		Cols:          e.cols,
		Cursor:        e.cursor,
		CursorVisible: !e.cursorHidden,
		Title:         e.title,
		Cells:         make([]Cell, 0, e.rows*e.cols),
	}
	for _, line := range e.grid {
		for _, c := range line {
			if c.Fg == nil {
				c.Fg = e.defaultFg
			}
			s.Cells = append(s.Cells, c)
		}
	}
	return s
}

// Cell returns the cell at (row, col), or a zero Cell when out of range.
func (s Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return Cell{}
	}
	return s.Cells[row*s.Cols+col]
}

// Row returns the cells of one row.
func (s Snapshot) Row(row int) Line {
	if row < 0 || row >= s.Rows {
		return nil
	}
	return Line(s.Cells[row*s.Cols : (row+1)*s.Cols])
}

// All iterates over every cell with its position, row by row.
func (s Snapshot) All() iter.Seq2[Position, Cell] {
	return func(yield func(Position, Cell) bool) {
		for i, c := range s.Cells {
			if !yield(Position{Row: i / s.Cols, Col: i % s.Cols}, c) {
				return
			}
		}
	}
}

// Lines returns the text of each row with trailing blanks removed.
func (s Snapshot) Lines() []string {
	lines := make([]string, s.Rows)
	for r := range s.Rows {
		lines[r] = s.Row(r).String()
	}
	return lines
}

// String returns the screen text with trailing blank rows removed.
func (s Snapshot) String() string {
	lines := s.Lines()
	end := len(lines)
	for end > 0 && lines[end-1] == "" {
		end--
	}
	return strings.Join(lines[:end], "\n")
}
