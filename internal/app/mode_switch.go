package app

import (
	"slices"

	tea "charm.land/bubbletea/v2"
)

// focusPrimary switches to the connection form.
func (m *Model) focusPrimary() tea.Cmd {
	m.Mode = FormMode
	m.reg.Focus("")
	return m.form.focusCmd()
}

// focusWindow switches to the terminal window id.
func (m *Model) focusWindow(id string) {
	if !m.reg.Focus(id) {
		return
	}
	m.Mode = TerminalMode
	m.form.blur()
}

// FocusedID returns the focused terminal window, or "" when the form has
// focus.
func (m *Model) FocusedID() string {
	if m.Mode == FormMode {
		return ""
	}
	return m.reg.Focused()
}

// cycleFocus moves focus by dir through the primary window followed by the
// terminal windows in open order.
func (m *Model) cycleFocus(dir int) tea.Cmd {
	order := append([]string{""}, m.reg.IDs()...)
	i := slices.Index(order, m.FocusedID())
	if i < 0 {
		i = 0
	}
	next := order[(i+dir+len(order))%len(order)]
	if next == "" {
		return m.focusPrimary()
	}
	m.focusWindow(next)
	return nil
}

// closeWindow tears down a terminal window. Focus moves to the window
// that would now receive input, or back to the form.
func (m *Model) closeWindow(id string) tea.Cmd {
	if id == "" || !m.reg.Close(id) {
		return nil
	}
	delete(m.scroll, id)
	delete(m.pendingData, id)
	delete(m.pendingClose, id)
	m.logger.Debug("window closed", "window", id, "remaining", m.reg.Len())

	if m.Mode != TerminalMode || m.reg.Focused() != "" {
		return nil
	}
	if w := m.reg.Target(); w != nil {
		m.focusWindow(w.ID)
		return nil
	}
	if ids := m.reg.IDs(); len(ids) > 0 {
		m.focusWindow(ids[len(ids)-1])
		return nil
	}
	return m.focusPrimary()
}

// scrollFocused moves the view of the focused window n lines into its
// scrollback, or back towards the live screen when n is negative.
func (m *Model) scrollFocused(n int) {
	id := m.FocusedID()
	w := m.reg.Get(id)
	if w == nil {
		return
	}
	// The oldest line can reach the top of the tile.
	limit := w.Terminal.ScrollbackLen()
	if r, ok := m.tileOf(id); ok {
		limit += max(w.Terminal.Rows()-(r.H-2), 0)
	}
	off := min(max(m.scroll[id]+n, 0), limit)
	if off == 0 {
		delete(m.scroll, id)
		return
	}
	m.scroll[id] = off
}

// ScrollOffset returns how many lines window id is scrolled back.
func (m *Model) ScrollOffset(id string) int {
	return m.scroll[id]
}
