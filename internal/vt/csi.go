package vt

import "github.com/charmbracelet/x/ansi"

// count returns parameter i as a repeat count: missing or zero means one.
func count(params ansi.Params, i int) int {
	n, _, _ := params.Param(i, 1)
	return max(n, 1)
}

func (e *Emulator) handleCsi(cmd ansi.Cmd, params ansi.Params) {
	if cmd.Intermediate() != 0 {
		e.logf("unhandled sequence: CSI %q", cmd.Final())
		return
	}
	if cmd.Prefix() == '?' {
		e.handlePrivateMode(cmd.Final(), params)
		return
	}
	if cmd.Prefix() != 0 {
		return
	}

	switch cmd.Final() {
	case 'A': // CUU
		e.cursorUp(count(params, 0))
	case 'B', 'e': // CUD, VPR
		e.cursorDown(count(params, 0))
	case 'C', 'a': // CUF, HPR
		e.setCursor(e.cursor.Row, e.cursor.Col+count(params, 0))
	case 'D': // CUB
		e.setCursor(e.cursor.Row, e.cursor.Col-count(params, 0))
	case 'E': // CNL
		e.cursorDown(count(params, 0))
		e.cursor.Col = 0
	case 'F': // CPL
		e.cursorUp(count(params, 0))
		e.cursor.Col = 0
	case 'G', '`': // CHA, HPA
		e.setCursor(e.cursor.Row, count(params, 0)-1)
	case 'd': // VPA
		e.setCursor(count(params, 0)-1, e.cursor.Col)
	case 'H', 'f': // CUP, HVP
		e.setCursor(count(params, 0)-1, count(params, 1)-1)
	case 'J': // ED
		n, _, _ := params.Param(0, 0)
		e.eraseDisplay(n)
	case 'K': // EL
		n, _, _ := params.Param(0, 0)
		e.eraseLine(n)
	case 'L': // IL
		e.insertLines(count(params, 0))
	case 'M': // DL
		e.deleteLines(count(params, 0))
	case '@': // ICH
		e.insertChars(count(params, 0))
	case 'P': // DCH
		e.deleteChars(count(params, 0))
	case 'X': // ECH
		e.pendingWrap = false
		e.eraseCells(e.cursor.Row, e.cursor.Col, e.cursor.Col+count(params, 0))
	case 'S': // SU
		e.scrollUp(count(params, 0))
	case 'T': // SD
		e.scrollDown(count(params, 0))
	case 'm': // SGR
		e.handleSgr(params)
	case 'r': // DECSTBM
		top, _, _ := params.Param(0, 1)
		bottom, _, _ := params.Param(1, e.rows)
		e.setScrollRegion(top-1, bottom-1)
	case 's': // SCOSC
		e.saveCursor()
	case 'u': // SCORC
		e.restoreCursor()
	default:
		e.logf("unhandled sequence: CSI %q", cmd.Final())
	}
}

func (e *Emulator) handlePrivateMode(final byte, params ansi.Params) {
	if final != 'h' && final != 'l' {
		return
	}
	set := final == 'h'
	params.ForEach(-1, func(_, mode int, _ bool) {
		switch mode {
		case 7: // DECAWM
			e.autowrap = set
			if !set {
				e.pendingWrap = false
			}
		case 25: // DECTCEM
			e.cursorHidden = !set
		}
	})
}

// cursorUp stops at the top margin when the cursor starts inside the region.
func (e *Emulator) cursorUp(n int) {
	limit := 0
	if e.cursor.Row >= e.top {
		limit = e.top
	}
	e.setCursor(max(e.cursor.Row-n, limit), e.cursor.Col)
}

// cursorDown stops at the bottom margin when the cursor starts inside the region.
func (e *Emulator) cursorDown(n int) {
	limit := e.rows - 1
	if e.cursor.Row <= e.bottom {
		limit = e.bottom
	}
	e.setCursor(min(e.cursor.Row+n, limit), e.cursor.Col)
}

func (e *Emulator) setScrollRegion(top, bottom int) {
	top = clamp(top, 0, e.rows-1)
	bottom = clamp(bottom, 0, e.rows-1)
	if top >= bottom {
		return
	}
	e.top, e.bottom = top, bottom
	e.setCursor(0, 0)
}

func (e *Emulator) eraseDisplay(mode int) {
	e.pendingWrap = false
	row := e.cursor.Row
	switch mode {
	case 0:
		e.eraseCells(row, e.cursor.Col, e.cols)
		for i := row + 1; i < e.rows; i++ {
			e.grid[i] = e.blankLine()
		}
	case 1:
		for i := range row {
			e.grid[i] = e.blankLine()
		}
		e.eraseCells(row, 0, e.cursor.Col+1)
	case 2:
		for i := range e.grid {
			e.grid[i] = e.blankLine()
		}
	case 3:
		e.scrollback.Clear()
	}
}

func (e *Emulator) eraseLine(mode int) {
	e.pendingWrap = false
	row := e.cursor.Row
	switch mode {
	case 0:
		e.eraseCells(row, e.cursor.Col, e.cols)
	case 1:
		e.eraseCells(row, 0, e.cursor.Col+1)
	case 2:
		e.eraseCells(row, 0, e.cols)
	}
}

// insertLines inserts n blank lines at the cursor row. Outside the scroll
// region it does nothing.
func (e *Emulator) insertLines(n int) {
	if e.cursor.Row < e.top || e.cursor.Row > e.bottom {
		return
	}
	top := e.top
	e.top = e.cursor.Row
	e.scrollDown(n)
	e.top = top
	e.cursor.Col = 0
	e.pendingWrap = false
}

// deleteLines removes n lines at the cursor row. Removed lines never reach
// the scrollback.
func (e *Emulator) deleteLines(n int) {
	if e.cursor.Row < e.top || e.cursor.Row > e.bottom {
		return
	}
	n = min(n, e.bottom-e.cursor.Row+1)
	copy(e.grid[e.cursor.Row:e.bottom+1], e.grid[e.cursor.Row+n:e.bottom+1])
	for i := e.bottom - n + 1; i <= e.bottom; i++ {
		e.grid[i] = e.blankLine()
	}
	e.cursor.Col = 0
	e.pendingWrap = false
}

func (e *Emulator) insertChars(n int) {
	e.pendingWrap = false
	line := e.grid[e.cursor.Row]
	col := e.cursor.Col
	n = min(n, e.cols-col)
	copy(line[col+n:], line[col:e.cols-n])
	for i := col; i < col+n; i++ {
		line[i] = blankCell
	}
	if line[e.cols-1].Width == 2 {
		line[e.cols-1] = blankCell
	}
}

func (e *Emulator) deleteChars(n int) {
	e.pendingWrap = false
	line := e.grid[e.cursor.Row]
	col := e.cursor.Col
	n = min(n, e.cols-col)
	copy(line[col:], line[col+n:])
	for i := e.cols - n; i < e.cols; i++ {
		line[i] = blankCell
	}
	if line[col].Width == 0 {
		line[col] = blankCell
	}
}

func (e *Emulator) handleEsc(cmd ansi.Cmd) {
	if cmd.Intermediate() != 0 {
		// Charset designations and the like.
		return
	}
	switch cmd.Final() {
	case '7': // DECSC
		e.saveCursor()
	case '8': // DECRC
		e.restoreCursor()
	case 'D': // IND
		e.pendingWrap = false
		e.lineFeed()
	case 'E': // NEL
		e.pendingWrap = false
		e.cursor.Col = 0
		e.lineFeed()
	case 'M': // RI
		e.pendingWrap = false
		e.reverseIndex()
	case 'c': // RIS
		e.reset()
	default:
		e.logf("unhandled sequence: ESC %q", cmd.Final())
	}
}
