package app

import "github.com/olivierchoquet/rustty/internal/config"

// Fallback screen size used before the first WindowSizeMsg.
const (
	defaultWidth  = 80
	defaultHeight = 24
)

// formHeight is the height of the primary window: title, blank line,
// fields, blank line, status line and the border.
const formHeight = int(numFields) + 6

// minGridWidth is the narrowest grid kept beside the form. Below it the
// form floats over the grid while it has focus.
const minGridWidth = 40

// Rect is an area of the screen in cells.
type Rect struct {
	X, Y, W, H int
}

// GridPosition returns the row and column of the i-th terminal window:
// row-major, GridColumns per row.
func GridPosition(i int) (row, col int) {
	return i / config.GridColumns, i % config.GridColumns
}

// Layout places the primary window and n terminal tiles on a screen of
// width × height cells. The last line is kept for the status bar. The form
// is docked on the left when there is room, otherwise it floats and
// docked is false.
func Layout(width, height, n int) (form Rect, tiles []Rect, docked bool) {
	usable := max(height-config.StatusBarHeight, 1)
	fw := min(config.FormWidth, width)
	fh := min(formHeight, usable)

	if n == 0 {
		return Rect{X: max((width-fw)/2, 0), Y: max((usable-fh)/2, 0), W: fw, H: fh}, nil, true
	}

	gx, gw := 0, width
	docked = width-config.FormWidth >= minGridWidth
	if docked {
		gx, gw = config.FormWidth, width-config.FormWidth
		form = Rect{X: 0, Y: 0, W: fw, H: fh}
	} else {
		form = Rect{X: max((width-fw)/2, 0), Y: max((usable-fh)/2, 0), W: fw, H: fh}
	}

	cols := min(n, config.GridColumns)
	rows := (n + cols - 1) / cols
	tw, th := gw/cols, usable/rows
	tiles = make([]Rect, n)
	for i := range n {
		row, col := GridPosition(i)
		r := Rect{X: gx + col*tw, Y: row * th, W: tw, H: th}
		// The last column and row absorb the remainder.
		if col == cols-1 {
			r.W = gw - col*tw
		}
		if row == rows-1 {
			r.H = usable - row*th
		}
		tiles[i] = r
	}
	return form, tiles, docked
}
