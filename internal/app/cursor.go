package app

import (
	tea "charm.land/bubbletea/v2"

	"github.com/olivierchoquet/rustty/internal/terminal"
	"github.com/olivierchoquet/rustty/internal/theme"
)

// getRealCursor returns a real terminal cursor for the focused window,
// or nil to hide the cursor.
func (m *Model) getRealCursor() *tea.Cursor {
	if m.Mode != TerminalMode || m.ShowHelp {
		return nil
	}
	id := m.reg.Focused()
	w := m.reg.Get(id)
	if w == nil || w.State() != terminal.StateChannelOpen {
		return nil
	}
	// Hidden while scrolled back or when the remote hides it
	if m.scroll[id] > 0 || w.Terminal.IsCursorHidden() {
		return nil
	}
	r, ok := m.tileOf(id)
	if !ok {
		return nil
	}

	pos := w.Terminal.CursorPosition()
	contentWidth, contentHeight := r.W-2, r.H-2
	row := pos.Row - liveStart(pos.Row, w.Terminal.Rows(), contentHeight)
	if pos.Col < 0 || pos.Col >= contentWidth || row < 0 || row >= contentHeight {
		return nil
	}

	// +1 for the border
	cursor := tea.NewCursor(r.X+1+pos.Col, r.Y+1+row)
	cursor.Color = theme.Prompt()
	return cursor
}
