package testutil

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ANSIBuilder assembles terminal output for feeding emulators in tests.
type ANSIBuilder struct {
	b strings.Builder
}

// NewANSIBuilder returns an empty builder.
func NewANSIBuilder() *ANSIBuilder {
	return &ANSIBuilder{}
}

// Text appends plain text.
func (a *ANSIBuilder) Text(s string) *ANSIBuilder {
	a.b.WriteString(s)
	return a
}

// CRLF appends a carriage return and line feed.
func (a *ANSIBuilder) CRLF() *ANSIBuilder {
	a.b.WriteString("\r\n")
	return a
}

// CursorTo moves the cursor to a 1-based row and column.
func (a *ANSIBuilder) CursorTo(row, col int) *ANSIBuilder {
	a.b.WriteString(ansi.CursorPosition(col, row))
	return a
}

// CursorHome moves the cursor to the top-left cell.
func (a *ANSIBuilder) CursorHome() *ANSIBuilder {
	a.b.WriteString(ansi.CursorHomePosition)
	return a
}

// CursorUp moves the cursor up n rows.
func (a *ANSIBuilder) CursorUp(n int) *ANSIBuilder {
	a.b.WriteString(ansi.CursorUp(n))
	return a
}

// CursorDown moves the cursor down n rows.
func (a *ANSIBuilder) CursorDown(n int) *ANSIBuilder {
	a.b.WriteString(ansi.CursorDown(n))
	return a
}

// CursorForward moves the cursor right n columns.
func (a *ANSIBuilder) CursorForward(n int) *ANSIBuilder {
	a.b.WriteString(ansi.CursorForward(n))
	return a
}

// CursorBackward moves the cursor left n columns.
func (a *ANSIBuilder) CursorBackward(n int) *ANSIBuilder {
	a.b.WriteString(ansi.CursorBackward(n))
	return a
}

// ClearScreen erases the whole display.
func (a *ANSIBuilder) ClearScreen() *ANSIBuilder {
	a.b.WriteString(ansi.EraseDisplay(2))
	return a
}

// ClearToEndOfLine erases from the cursor to the end of the line.
func (a *ANSIBuilder) ClearToEndOfLine() *ANSIBuilder {
	a.b.WriteString(ansi.EraseLine(0))
	return a
}

// ScrollRegion sets 1-based top and bottom margins.
func (a *ANSIBuilder) ScrollRegion(top, bottom int) *ANSIBuilder {
	a.b.WriteString(ansi.SetTopBottomMargins(top, bottom))
	return a
}

// HideCursor hides the cursor.
func (a *ANSIBuilder) HideCursor() *ANSIBuilder {
	a.b.WriteString(ansi.HideCursor)
	return a
}

// ShowCursor shows the cursor.
func (a *ANSIBuilder) ShowCursor() *ANSIBuilder {
	a.b.WriteString(ansi.ShowCursor)
	return a
}

// Title sets the window title.
func (a *ANSIBuilder) Title(s string) *ANSIBuilder {
	a.b.WriteString(ansi.SetWindowTitle(s))
	return a
}

// Reset clears all graphic attributes.
func (a *ANSIBuilder) Reset() *ANSIBuilder {
	a.b.WriteString("\x1b[0m")
	return a
}

// Bold turns on bold.
func (a *ANSIBuilder) Bold() *ANSIBuilder {
	a.b.WriteString("\x1b[1m")
	return a
}

// FgColor sets a basic SGR foreground code (30–37, 90–97).
func (a *ANSIBuilder) FgColor(code int) *ANSIBuilder {
	fmt.Fprintf(&a.b, "\x1b[%dm", code)
	return a
}

// Fg256 sets a 256-colour foreground.
func (a *ANSIBuilder) Fg256(n int) *ANSIBuilder {
	fmt.Fprintf(&a.b, "\x1b[38;5;%dm", n)
	return a
}

// FgRGB sets a 24-bit foreground.
func (a *ANSIBuilder) FgRGB(r, g, b int) *ANSIBuilder {
	fmt.Fprintf(&a.b, "\x1b[38;2;%d;%d;%dm", r, g, b)
	return a
}

// String returns the accumulated output.
func (a *ANSIBuilder) String() string {
	return a.b.String()
}

// Bytes returns the accumulated output as bytes.
func (a *ANSIBuilder) Bytes() []byte {
	return []byte(a.b.String())
}

// Clear empties the builder.
func (a *ANSIBuilder) Clear() *ANSIBuilder {
	a.b.Reset()
	return a
}

// ShellPrompt renders a bash-style prompt.
func ShellPrompt(user, host, dir string) string {
	return fmt.Sprintf("\x1b[1;32m%s@%s\x1b[0m:\x1b[1;34m%s\x1b[0m$ ", user, host, dir)
}

// ColoredLine renders text in a basic SGR colour followed by CRLF.
func ColoredLine(code int, text string) string {
	return fmt.Sprintf("\x1b[%dm%s\x1b[0m\r\n", code, text)
}

// CommandNotFound renders bash's error for an unknown command.
func CommandNotFound(cmd string) string {
	return fmt.Sprintf("bash: %s: command not found\r\n", cmd)
}
