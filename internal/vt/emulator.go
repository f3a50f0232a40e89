// Package vt provides the terminal emulator that backs each remote shell
// window: a fixed-size cell grid, a cursor, and a bounded scrollback.
package vt

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/ansi/parser"
	"github.com/mattn/go-runewidth"
)

// Default geometry of a new emulator.
const (
	DefaultRows = 24
	DefaultCols = 80
)


// Logger represents a logger interface.
type Logger interface {
	Printf(format string, v ...any)
}

// Position is a zero-based cell coordinate.
type Position struct {
	Row, Col int
}

// Cell is one character cell. Fg is nil for the default foreground.
// A wide rune occupies two cells: the first has Width 2, the second
// has Width 0 and no character.
type Cell struct {
	Char  rune
	Fg    color.Color
	Bold  bool
	Width int
}

var blankCell = Cell{Char: ' ', Width: 1}

// pen holds the attributes applied to printed characters.
type pen struct {
	fg   color.Color
	bold bool
}

type savedCursor struct {
	pos Position
	pen pen
}

// Emulator is a virtual terminal with a fixed geometry. It is safe for
// concurrent use: Feed takes the write lock, Snapshot the read lock.
type Emulator struct {
	mu sync.RWMutex

	parser *ansi.Parser
	logger Logger

	rows, cols int
	grid       []Line
	cursor     Position
	saved      savedCursor
	pen        pen

	// Scroll region, inclusive rows.
	top, bottom int

	autowrap     bool
	pendingWrap  bool
	cursorHidden bool

	scrollback *Scrollback
	defaultFg  color.Color
	title      string

	closed atomic.Bool
}

// NewEmulator creates an emulator of rows × cols cells keeping at most
// maxScrollback lines of history. Non-positive arguments select the
// defaults. The geometry never changes afterwards.
func NewEmulator(rows, cols, maxScrollback int) *Emulator {
	if rows <= 0 {
		rows = DefaultRows
	}
	if cols <= 0 {
		cols = DefaultCols
	}
	e := &Emulator{
		rows:       rows,
		cols:       cols,
		bottom:     rows - 1,
		autowrap:   true,
		scrollback: NewScrollback(maxScrollback),
		defaultFg:  color.White,
	}
	e.grid = make([]Line, rows)
	for i := range e.grid {
		e.grid[i] = e.blankLine()
	}

	e.parser = ansi.NewParser()
	e.parser.SetParamsSize(parser.MaxParamsSize)
	e.parser.SetDataSize(64 * 1024)
	e.parser.SetHandler(ansi.Handler{
		Print:     e.handlePrint,
		Execute:   e.handleControl,
		HandleCsi: e.handleCsi,
		HandleEsc: e.handleEsc,
		HandleOsc: e.handleOsc,
	})
	return e
}

// SetLogger sets the logger used for unhandled sequences.
func (e *Emulator) SetLogger(l Logger) {
	e.mu.Lock()
	e.logger = l
	e.mu.Unlock()
}

// SetDefaultForeground sets the colour used for cells without an explicit
// foreground. A nil colour resets it to white.
func (e *Emulator) SetDefaultForeground(c color.Color) {
	if c == nil {
		c = color.White
	}
	e.mu.Lock()
	e.defaultFg = c
	e.mu.Unlock()
}

// DefaultForeground returns the colour used for cells without an explicit
// foreground.
func (e *Emulator) DefaultForeground() color.Color {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.defaultFg
}

// Title returns the last title set by the remote.
func (e *Emulator) Title() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.title
}

// Rows returns the number of rows.
func (e *Emulator) Rows() int { return e.rows }

// Cols returns the number of columns.
func (e *Emulator) Cols() int { return e.cols }

// Feed advances the emulator over p. Escape sequences and UTF-8 runes may
// be split across calls; parser state carries over.
func (e *Emulator) Feed(p []byte) {
	if e.closed.Load() {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, b := range p {
		e.parser.Advance(b)
	}
}

// Close stops the emulator from accepting further input.
func (e *Emulator) Close() error {
	e.closed.Store(true)
	return nil
}

// CursorPosition returns the cursor position.
func (e *Emulator) CursorPosition() Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// IsCursorHidden reports whether the remote hid the cursor (DECTCEM).
func (e *Emulator) IsCursorHidden() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursorHidden
}

// ScrollbackLen returns the number of lines in the scrollback buffer.
func (e *Emulator) ScrollbackLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scrollback.Len()
}

// ScrollbackLine returns a copy of a scrollback line with colours resolved
// as in Snapshot. Index 0 is the oldest.
func (e *Emulator) ScrollbackLine(index int) Line {
	e.mu.RLock()
	defer e.mu.RUnlock()
	line := e.scrollback.Line(index)
	if line == nil {
		return nil
	}
	out := make(Line, len(line))
	copy(out, line)
	for i := range out {
		if out[i].Fg == nil {
			out[i].Fg = e.defaultFg
		}
	}
	return out
}

func (e *Emulator) logf(format string, v ...any) {
	if e.logger != nil {
		e.logger.Printf(format, v...)
	}
}

func (e *Emulator) blankLine() Line {
	line := make(Line, e.cols)
	for i := range line {
		line[i] = blankCell
	}
	return line
}

func (e *Emulator) handlePrint(r rune) {
	width := runewidth.RuneWidth(r)
	if width == 0 {
		return
	}
	if width > e.cols {
		width = 1
	}

	if e.pendingWrap {
		e.pendingWrap = false
		if e.autowrap {
			e.cursor.Col = 0
			e.lineFeed()
		}
	}
	if e.cursor.Col+width > e.cols {
		if e.autowrap {
			e.eraseCells(e.cursor.Row, e.cursor.Col, e.cols)
			e.cursor.Col = 0
			e.lineFeed()
		} else {
			e.cursor.Col = e.cols - width
		}
	}

	row := e.grid[e.cursor.Row]
	e.clearWideAt(e.cursor.Row, e.cursor.Col)
	row[e.cursor.Col] = Cell{Char: r, Fg: e.pen.fg, Bold: e.pen.bold, Width: width}
	if width == 2 {
		e.clearWideAt(e.cursor.Row, e.cursor.Col+1)
		row[e.cursor.Col+1] = Cell{Fg: e.pen.fg, Bold: e.pen.bold}
	}

	e.cursor.Col += width
	if e.cursor.Col >= e.cols {
		e.cursor.Col = e.cols - 1
		e.pendingWrap = e.autowrap
	}
}

// clearWideAt blanks the other half of a wide rune overlapping (row, col).
func (e *Emulator) clearWideAt(row, col int) {
	line := e.grid[row]
	switch {
	case line[col].Width == 0 && col > 0:
		line[col-1] = blankCell
	case line[col].Width == 2 && col+1 < e.cols:
		line[col+1] = blankCell
	}
}

func (e *Emulator) handleControl(b byte) {
	switch b {
	case ansi.BEL:
	case ansi.BS:
		e.pendingWrap = false
		if e.cursor.Col > 0 {
			e.cursor.Col--
		}
	case ansi.HT:
		e.pendingWrap = false
		e.cursor.Col = min(e.cols-1, (e.cursor.Col/8+1)*8)
	case ansi.LF, ansi.VT, ansi.FF:
		e.pendingWrap = false
		e.lineFeed()
	case ansi.CR:
		e.pendingWrap = false
		e.cursor.Col = 0
	default:
		e.logf("unhandled sequence: control %#x", b)
	}
}

// lineFeed moves the cursor down one row, scrolling the region when the
// cursor sits on its bottom margin.
func (e *Emulator) lineFeed() {
	switch {
	case e.cursor.Row == e.bottom:
		e.scrollUp(1)
	case e.cursor.Row < e.rows-1:
		e.cursor.Row++
	}
}

func (e *Emulator) reverseIndex() {
	switch {
	case e.cursor.Row == e.top:
		e.scrollDown(1)
	case e.cursor.Row > 0:
		e.cursor.Row--
	}
}

// scrollUp shifts the scroll region up by n lines. Lines leaving the top of
// a full-screen region go to the scrollback.
func (e *Emulator) scrollUp(n int) {
	height := e.bottom - e.top + 1
	n = min(n, height)
	toHistory := e.top == 0 && e.bottom == e.rows-1
	for i := range n {
		if toHistory {
			e.scrollback.PushLine(e.grid[e.top+i])
		}
	}
	copy(e.grid[e.top:e.bottom+1], e.grid[e.top+n:e.bottom+1])
	for i := e.bottom - n + 1; i <= e.bottom; i++ {
		e.grid[i] = e.blankLine()
	}
}

// scrollDown shifts the scroll region down by n lines.
func (e *Emulator) scrollDown(n int) {
	height := e.bottom - e.top + 1
	n = min(n, height)
	copy(e.grid[e.top+n:e.bottom+1], e.grid[e.top:e.bottom+1-n])
	for i := e.top; i < e.top+n; i++ {
		e.grid[i] = e.blankLine()
	}
}

// eraseCells blanks cells [from, to) of a row.
func (e *Emulator) eraseCells(row, from, to int) {
	from = max(from, 0)
	to = min(to, e.cols)
	if from >= to {
		return
	}
	line := e.grid[row]
	if line[from].Width == 0 && from > 0 {
		line[from-1] = blankCell
	}
	if to < e.cols && line[to].Width == 0 {
		line[to] = blankCell
	}
	for i := from; i < to; i++ {
		line[i] = blankCell
	}
}

func (e *Emulator) setCursor(row, col int) {
	e.pendingWrap = false
	e.cursor.Row = clamp(row, 0, e.rows-1)
	e.cursor.Col = clamp(col, 0, e.cols-1)
}

func (e *Emulator) saveCursor() {
	e.saved = savedCursor{pos: e.cursor, pen: e.pen}
}

func (e *Emulator) restoreCursor() {
	e.pen = e.saved.pen
	e.setCursor(e.saved.pos.Row, e.saved.pos.Col)
}

// reset restores the power-on state. The scrollback is kept.
func (e *Emulator) reset() {
	for i := range e.grid {
		e.grid[i] = e.blankLine()
	}
	e.cursor = Position{}
	e.saved = savedCursor{}
	e.pen = pen{}
	e.top, e.bottom = 0, e.rows-1
	e.autowrap = true
	e.pendingWrap = false
	e.cursorHidden = false
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
