package app

import (
	"image/color"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/terminal"
	"github.com/olivierchoquet/rustty/internal/theme"
	"github.com/olivierchoquet/rustty/internal/vt"
)

func getBorder() lipgloss.Border {
	return config.GetBorderForStyle()
}

// titledBorder wraps content, already sized to the inner area, in a border
// whose top edge carries title.
func titledBorder(content, title string, w, h int, c color.Color) string {
	inner := max(w-2, 0)
	b := getBorder()
	fg := lipgloss.NewStyle().Foreground(c)

	title = ansi.Truncate(title, max(inner-4, 0), "…")
	var top string
	if title == "" {
		top = b.TopLeft + strings.Repeat(b.Top, inner) + b.TopRight
	} else {
		label := " " + title + " "
		fill := max(inner-1-ansi.StringWidth(label), 0)
		top = b.TopLeft + b.Top + label + strings.Repeat(b.Top, fill) + b.TopRight
	}

	box := lipgloss.NewStyle().
		Border(b).
		BorderTop(false).
		BorderForeground(c).
		Width(w).
		Height(max(h-1, 1)).
		MaxWidth(w)
	return fg.Render(top) + "\n" + box.Render(content)
}

// windowTitle is the label shown on a tile border.
func windowTitle(w *terminal.Window, scroll int) string {
	title := w.DisplayTitle()
	switch w.State() {
	case terminal.StateConnecting:
		if w.Failure() != "" {
			title += " (échec)"
		} else {
			title += " (connexion…)"
		}
	}
	if scroll > 0 {
		title += " [-" + strconv.Itoa(scroll) + "]"
	}
	return title
}

// liveStart is the first screen row shown when only height rows fit: the
// top of the screen, scrolled just enough to keep the cursor visible.
func liveStart(cursorRow, rows, height int) int {
	if height >= rows || cursorRow < height {
		return 0
	}
	return min(cursorRow-height+1, rows-height)
}

// visibleLines returns the lines of w that fit in height rows, offset lines
// back into the scrollback, and the screen row of the first line when the
// view is live (-1 otherwise).
func visibleLines(w *terminal.Window, snap vt.Snapshot, height, offset int) ([]vt.Line, int) {
	if offset <= 0 {
		start := liveStart(snap.Cursor.Row, snap.Rows, height)
		end := min(start+height, snap.Rows)
		lines := make([]vt.Line, 0, end-start)
		for r := start; r < end; r++ {
			lines = append(lines, snap.Row(r))
		}
		return lines, start
	}

	sb := w.Terminal.ScrollbackLen()
	bottom := sb + snap.Rows - offset
	top := max(bottom-height, 0)
	lines := make([]vt.Line, 0, bottom-top)
	for i := top; i < bottom; i++ {
		if i < sb {
			lines = append(lines, w.Terminal.ScrollbackLine(i))
		} else {
			lines = append(lines, snap.Row(i-sb))
		}
	}
	return lines, -1
}

func cellStyle(fg color.Color, bold, cursor bool) string {
	var st ansi.Style
	if cursor {
		st = st.Reverse(true)
	}
	if fg != nil {
		st = st.ForegroundColor(ansi.Color(fg))
	}
	if bold {
		st = st.Bold()
	}
	return st.String()
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

// renderLine renders up to width cells of line, grouping runs of equal
// style. cursorCol marks the cell drawn in reverse video, or -1.
func renderLine(line vt.Line, width, cursorCol int, defaultFg color.Color) string {
	var b strings.Builder
	var run strings.Builder
	var runFg color.Color
	var runBold, runCursor bool
	started := false

	flush := func() {
		if run.Len() == 0 {
			return
		}
		b.WriteString(cellStyle(runFg, runBold, runCursor))
		b.WriteString(run.String())
		b.WriteString(ansi.ResetStyle)
		run.Reset()
	}

	col := 0
	for _, c := range line {
		if col >= width {
			break
		}
		if c.Width == 0 {
			continue
		}
		ch := c.Char
		if ch == 0 {
			ch = ' '
		}
		cw := max(c.Width, 1)
		if col+cw > width {
			ch, cw = ' ', 1
		}
		fg := c.Fg
		if fg == nil {
			fg = defaultFg
		}
		isCursor := col == cursorCol
		if !started || !sameColor(fg, runFg) || c.Bold != runBold || isCursor != runCursor {
			flush()
			runFg, runBold, runCursor = fg, c.Bold, isCursor
			started = true
		}
		run.WriteRune(ch)
		col += cw
	}
	flush()
	if col < width {
		if cursorCol >= col && cursorCol < width {
			b.WriteString(strings.Repeat(" ", cursorCol-col))
			b.WriteString(cellStyle(nil, false, true) + " " + ansi.ResetStyle)
			col = cursorCol + 1
		}
		b.WriteString(strings.Repeat(" ", width-col))
	}
	return b.String()
}

// renderTerminal renders the inner area of a terminal tile.
func renderTerminal(w *terminal.Window, width, height, offset int, drawCursor bool) string {
	snap := w.Snapshot()
	lines, start := visibleLines(w, snap, height, offset)
	fg := theme.TerminalFg()

	out := make([]string, 0, height)
	for i, line := range lines {
		cursorCol := -1
		if drawCursor && start >= 0 && snap.CursorVisible && start+i == snap.Cursor.Row {
			cursorCol = snap.Cursor.Col
		}
		out = append(out, renderLine(line, width, cursorCol, fg))
	}
	for len(out) < height {
		out = append(out, strings.Repeat(" ", width))
	}
	return strings.Join(out, "\n")
}
