package app

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/key"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/theme"
)

// binding turns a configured action into a help entry.
func (m *Model) binding(action, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(m.keys.Keys(action)...),
		key.WithHelp(m.keys.GetKeysForDisplay(action), desc),
	)
}

func (m *Model) shortHelp() []key.Binding {
	if m.Mode == FormMode {
		return []key.Binding{
			m.binding(config.ActionSubmit, "connecter"),
			m.binding(config.ActionNextField, "champ suivant"),
			m.binding(config.ActionNextWindow, "fenêtre suivante"),
			m.binding(config.ActionToggleHelp, "aide"),
			m.binding(config.ActionQuit, "quitter"),
		}
	}
	return []key.Binding{
		m.binding(config.ActionNextWindow, "fenêtre suivante"),
		m.binding(config.ActionCloseWindow, "fermer"),
		m.binding(config.ActionScrollUp, "défiler"),
		m.binding(config.ActionToggleHelp, "aide"),
		m.binding(config.ActionQuit, "quitter"),
	}
}

func (m *Model) renderStatusBar(width, height int) *lipgloss.Layer {
	bar := lipgloss.NewStyle().Foreground(theme.TerminalFg())

	open, total := m.reg.OpenCount(), m.reg.Len()
	left := fmt.Sprintf(" %s │ %d/%d terminaux ", theme.Name(), open, total)
	if config.UseASCIIOnly {
		left = strings.ReplaceAll(left, "│", "|")
	}
	left = lipgloss.NewStyle().Foreground(theme.Prompt()).Bold(true).Render(left)

	m.help.SetWidth(max(width-lipgloss.Width(left)-1, 0))
	right := m.help.ShortHelpView(m.shortHelp())

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	line := ansi.Truncate(left+strings.Repeat(" ", gap)+right, width, "")
	return lipgloss.NewLayer(bar.Render(line)).X(0).Y(max(height-1, 0)).Z(zStatus).ID("status")
}

func (m *Model) renderHelpOverlay(width, height int) *lipgloss.Layer {
	sections := config.GetKeybindings(m.keys)
	groups := make([][]key.Binding, 0, len(sections))
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		group := make([]key.Binding, 0, len(s.Bindings))
		for _, b := range s.Bindings {
			group = append(group, key.NewBinding(key.WithKeys(b.Key), key.WithHelp(b.Key, b.Description)))
		}
		groups = append(groups, group)
		titles = append(titles, s.Title)
	}

	h := m.help
	h.SetWidth(0)
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.Accent())
	parts := make([]string, 0, len(groups))
	for i, g := range groups {
		parts = append(parts, heading.Render(titles[i])+"\n"+h.FullHelpView([][]key.Binding{g}))
	}
	content := strings.Join(parts, "\n\n")

	box := lipgloss.NewStyle().
		Border(getBorder()).
		BorderForeground(theme.Accent()).
		Padding(1, 2).
		Render(content)
	x := max((width-lipgloss.Width(box))/2, 0)
	y := max((height-lipgloss.Height(box))/2, 0)
	return lipgloss.NewLayer(box).X(x).Y(y).Z(zHelp).ID("help")
}
