package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/theme"
)

type formField int

const (
	fieldProfile formField = iota
	fieldHost
	fieldPort
	fieldUser
	fieldPassword
	fieldCount
	numFields
)

var fieldLabels = [numFields]string{"Profil", "Hôte", "Port", "Utilisateur", "Mot de passe", "Terminaux"}

const labelWidth = 14

// Form validation errors.
var (
	errHostRequired = errors.New("hôte requis")
	errUserRequired = errors.New("utilisateur requis")
	errBadPort      = errors.New("port invalide")
	errBadCount     = errors.New("nombre de terminaux invalide")
	errNoProfile    = errors.New("profil introuvable")
)

// connectForm is the content of the primary window.
type connectForm struct {
	inputs   [numFields]textinput.Model
	focus    formField
	focused  bool
	err      string
	profiles *config.ProfileStore
}

func newConnectForm(cfg *config.UserConfig, profiles *config.ProfileStore, password string) *connectForm {
	f := &connectForm{profiles: profiles, focus: fieldHost}
	for i := range f.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.SetWidth(config.FormWidth - labelWidth - 4)
		f.inputs[i] = in
	}

	f.inputs[fieldProfile].Placeholder = "aucun"
	if profiles != nil && len(profiles.Profiles) > 0 {
		names := make([]string, 0, len(profiles.Profiles))
		for _, p := range profiles.Search("") {
			names = append(names, p.Name)
		}
		f.inputs[fieldProfile].SetSuggestions(names)
		f.inputs[fieldProfile].ShowSuggestions = true
	}

	c := cfg.Connection
	port := c.LastPort
	if port <= 0 {
		port = config.DefaultPort
	}
	count := c.TerminalCount
	if count <= 0 {
		count = config.DefaultTerminalCount
	}
	f.inputs[fieldHost].Placeholder = "exemple.com"
	f.inputs[fieldHost].SetValue(c.LastHost)
	f.inputs[fieldPort].CharLimit = 5
	f.inputs[fieldPort].SetValue(strconv.Itoa(port))
	f.inputs[fieldUser].SetValue(c.LastUsername)
	f.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	f.inputs[fieldPassword].SetValue(password)
	f.inputs[fieldCount].CharLimit = 2
	f.inputs[fieldCount].SetValue(strconv.Itoa(count))
	return f
}

func (f *connectForm) value(field formField) string {
	return f.inputs[field].Value()
}

func (f *connectForm) setValue(field formField, v string) {
	f.inputs[field].SetValue(v)
}

func (f *connectForm) focusCmd() tea.Cmd {
	f.focused = true
	return f.inputs[f.focus].Focus()
}

func (f *connectForm) blur() {
	f.focused = false
	f.inputs[f.focus].Blur()
}

// move cycles the focused field. Leaving the profile field loads the
// profile it names.
func (f *connectForm) move(dir int) tea.Cmd {
	if f.focus == fieldProfile {
		name := strings.TrimSpace(f.value(fieldProfile))
		if s := f.inputs[fieldProfile].CurrentSuggestion(); name != "" && s != "" {
			name = s
		}
		if name != "" {
			if err := f.loadProfile(name); err != nil {
				f.err = err.Error()
			} else {
				f.err = ""
			}
		}
	}
	f.inputs[f.focus].Blur()
	f.focus = formField((int(f.focus) + dir + int(numFields)) % int(numFields))
	return f.focusCmd()
}

func (f *connectForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// loadProfile fills the form from the profile called name.
func (f *connectForm) loadProfile(name string) error {
	if f.profiles == nil {
		return fmt.Errorf("%w: %s", errNoProfile, name)
	}
	p, ok := f.profiles.ByName(name)
	if !ok {
		return fmt.Errorf("%w: %s", errNoProfile, name)
	}
	f.setValue(fieldProfile, p.Name)
	f.setValue(fieldHost, p.Host)
	f.setValue(fieldPort, strconv.Itoa(p.Port))
	f.setValue(fieldUser, p.Username)
	f.setValue(fieldCount, strconv.Itoa(p.TerminalCount))
	return nil
}

// target validates the form.
func (f *connectForm) target() (Target, error) {
	host := strings.TrimSpace(f.value(fieldHost))
	if host == "" {
		return Target{}, errHostRequired
	}
	portText := strings.TrimSpace(f.value(fieldPort))
	port, err := strconv.ParseUint(portText, 10, 16)
	if err != nil || port == 0 {
		return Target{}, fmt.Errorf("%w: %q", errBadPort, portText)
	}
	user := strings.TrimSpace(f.value(fieldUser))
	if user == "" {
		return Target{}, errUserRequired
	}
	countText := strings.TrimSpace(f.value(fieldCount))
	count, err := strconv.Atoi(countText)
	if err != nil || count < 1 || count > config.MaxTerminalCount {
		return Target{}, fmt.Errorf("%w (1-%d): %q", errBadCount, config.MaxTerminalCount, countText)
	}
	return Target{
		Host:          host,
		Port:          uint16(port),
		Username:      user,
		Password:      f.value(fieldPassword),
		TerminalCount: count,
	}, nil
}

func (f *connectForm) view() string {
	label := lipgloss.NewStyle().Width(labelWidth).Foreground(theme.TerminalFg())
	active := label.Foreground(theme.Prompt()).Bold(true)

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(theme.Accent()).Render("Connexion SSH"))
	b.WriteString("\n\n")
	for i := range f.inputs {
		st := label
		if f.focused && formField(i) == f.focus {
			st = active
		}
		b.WriteString(st.Render(fieldLabels[i]))
		b.WriteString(f.inputs[i].View())
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	if f.err != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error()).Render(f.err))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Surface()).Render("Entrée pour se connecter"))
	}
	return b.String()
}
