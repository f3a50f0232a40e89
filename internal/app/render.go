package app

import (
	"slices"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivierchoquet/rustty/internal/theme"
)

// Layer depths.
const (
	zWindow = iota + 1
	zForm
	zStatus
	zHelp
)

// GetRenderWidth returns the screen width, or a default before the first
// resize.
func (m *Model) GetRenderWidth() int {
	if m.Width > 0 {
		return m.Width
	}
	return defaultWidth
}

// GetRenderHeight returns the screen height, or a default before the first
// resize.
func (m *Model) GetRenderHeight() int {
	if m.Height > 0 {
		return m.Height
	}
	return defaultHeight
}

func (m *Model) layout() (Rect, []Rect, bool) {
	return Layout(m.GetRenderWidth(), m.GetRenderHeight(), m.reg.Len())
}

// tileOf returns the tile of window id.
func (m *Model) tileOf(id string) (Rect, bool) {
	_, tiles, _ := m.layout()
	i := slices.Index(m.reg.IDs(), id)
	if i < 0 || i >= len(tiles) {
		return Rect{}, false
	}
	return tiles[i], true
}

// pageSize is the number of lines one scroll step moves.
func (m *Model) pageSize() int {
	r, ok := m.tileOf(m.FocusedID())
	if !ok {
		return 1
	}
	return max(r.H-3, 1)
}

// GetCanvas composes the terminal tiles, the primary window, the status bar
// and the help overlay.
func (m *Model) GetCanvas() *lipgloss.Canvas {
	width, height := m.GetRenderWidth(), m.GetRenderHeight()
	canvas := lipgloss.NewCanvas(width, height)
	form, tiles, docked := m.layout()
	focused := m.FocusedID()

	for i, w := range m.reg.Windows() {
		if i >= len(tiles) {
			break
		}
		r := tiles[i]
		isFocused := w.ID == focused
		border := theme.Surface()
		if isFocused {
			border = theme.Accent()
		}
		offset := m.scroll[w.ID]
		inner := renderTerminal(w, max(r.W-2, 0), max(r.H-2, 0), offset, !isFocused)
		content := titledBorder(inner, windowTitle(w, offset), r.W, r.H, border)
		canvas.Compose(lipgloss.NewLayer(content).X(r.X).Y(r.Y).Z(zWindow).ID(w.ID))
	}

	if docked || m.Mode == FormMode {
		border := theme.Surface()
		if m.Mode == FormMode {
			border = theme.Accent()
		}
		content := titledBorder(m.form.view(), "rustty", form.W, form.H, border)
		canvas.Compose(lipgloss.NewLayer(content).X(form.X).Y(form.Y).Z(zForm).ID("primary"))
	}

	canvas.Compose(m.renderStatusBar(width, height))
	if m.ShowHelp {
		canvas.Compose(m.renderHelpOverlay(width, height))
	}
	return canvas
}

// Render returns the screen as a string.
func (m *Model) Render() string {
	return lipgloss.Sprint(m.GetCanvas().Render())
}

// View renders the program's UI.
func (m *Model) View() tea.View {
	var view tea.View

	// Fast path: nothing changed since the last frame.
	if m.renderSkipped && m.cachedViewContent != "" {
		view.SetContent(m.cachedViewContent)
	} else {
		content := m.Render()
		m.cachedViewContent = content
		view.SetContent(content)
	}

	view.AltScreen = true
	view.BackgroundColor = theme.Bg()
	view.WindowTitle = m.windowTitle()
	view.Cursor = m.getRealCursor()
	return view
}

func (m *Model) windowTitle() string {
	if w := m.reg.Get(m.FocusedID()); w != nil {
		return "rustty · " + w.DisplayTitle()
	}
	return "rustty"
}
