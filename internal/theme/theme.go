// Package theme provides the colour palettes for terminal windows and the
// surrounding chrome.
package theme

import (
	"fmt"
	"image/color"
	"slices"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/log"
	tint "github.com/lrstanley/bubbletint/v2"
)

// DefaultID is the palette used when none is configured.
const DefaultID = "slate"

// Palette is a colour scheme. Text is the terminal's default foreground;
// Prompt, Accent and Surface colour the chrome. Custom themes use the same
// fields in JSON.
type Palette struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Bg      string `json:"bg"`
	Text    string `json:"text"`
	Prompt  string `json:"prompt"`
	Accent  string `json:"accent"`
	Surface string `json:"surface"`
}

var palettes = []Palette{
	{"slate", "Ardoise", "#1c212b", "#d9dee8", "#80e0bf", "#66b2ff", "#262b38"},
	{"matrix", "Matrix", "#050a05", "#00cc00", "#00ff00", "#009900", "#0d1a0d"},
	{"cyberpunk", "Cyberpunk", "#0d0514", "#00ffff", "#ff00ff", "#ffcc00", "#1a0d26"},
	{"nord", "Nordique", "#2e3340", "#e0e8f0", "#87bfd1", "#82a1c2", "#3b4252"},
	{"dracula", "Dracula", "#292b3b", "#f2f2f5", "#4ffa7a", "#bd91f7", "#424559"},
	{"solarized", "Solarized", "#002b36", "#829494", "#b58a00", "#2673bd", "#083642"},
	{"tos", "Amstrad/BIOS", "#0000bf", "#ffffff", "#ffff00", "#00ffff", "#000080"},
	{"gruvbox", "Gruvbox", "#262626", "#ebdbb2", "#b8ba24", "#d45c1c", "#333333"},
	{"tokyonight", "Tokyo Night", "#0f0f17", "#a6b2d9", "#ba94f2", "#ff75a6", "#1a1a26"},
	{"coffee", "Café", "#3b2e26", "#ede3d9", "#c2996b", "#8c7359", "#4c4033"},
	{"ghost", "Fantôme (Minimal)", "#050505", "#f2f2f2", "#666666", "#cccccc", "#1a1a1a"},
	{"catppuccin", "Catppuccin (Doux)", "#1c1c2b", "#ccd6f2", "#ccf2bf", "#c9b8f5", "#1f1f30"},
	{"everforest", "Everforest (Reposant)", "#2b332e", "#d4d1b8", "#a3bf80", "#e3b270", "#333b36"},
	{"rosepine", "Rosé Pine", "#12121a", "#e0e0f2", "#f5bdbd", "#9cccd9", "#1a1a26"},
	{"ayumirage", "Ayu Mirage", "#1a212e", "#cccccc", "#ffcc70", "#5cbdd9", "#242b3b"},
}

// Palettes returns the built-in palettes in display order.
func Palettes() []Palette {
	return slices.Clone(palettes)
}

// Tint converts p into a bubbletint tint. Prompt maps to the cursor colour,
// Accent to bright blue and Surface to black. Other slots stay nil.
func (p Palette) Tint() *tint.Tint {
	return &tint.Tint{
		ID:          p.ID,
		DisplayName: p.Name,
		Dark:        true,
		Fg:          tint.FromHex(p.Text),
		Bg:          tint.FromHex(p.Bg),
		Cursor:      tint.FromHex(p.Prompt),
		Black:       tint.FromHex(p.Surface),
		BrightBlue:  tint.FromHex(p.Accent),
	}
}

var logger = log.Default().WithPrefix("theme")

// registry holds the built-in palettes from package init, so the colour
// accessors work before Initialize.
var registry = newRegistry()

func newRegistry() *tint.Registry {
	tints := make([]*tint.Tint, 0, len(palettes))
	for _, p := range palettes {
		tints = append(tints, p.Tint())
	}
	return tint.NewRegistry(tints[0], tints...)
}

// SetLogger replaces the package logger.
func SetLogger(l *log.Logger) {
	logger = l.WithPrefix("theme")
}

// Initialize registers any custom JSON themes, then selects id. An unknown
// id selects DefaultID and returns an error describing the fallback.
func Initialize(id string) error {
	if dir, err := GetThemesDir(); err == nil {
		if loaded, err := LoadCustomThemes(dir); err != nil {
			logger.Warn("loading custom themes", "dir", dir, "err", err)
		} else if len(loaded) > 0 {
			logger.Debug("custom themes loaded", "ids", loaded)
		}
	}

	if id == "" {
		id = DefaultID
	}
	if !registry.SetTintID(id) {
		registry.SetTintID(DefaultID)
		return fmt.Errorf("unknown theme %q, using %q", id, DefaultID)
	}
	return nil
}

// IDs returns the built-in palette ids followed by every other registered
// theme id.
func IDs() []string {
	ids := make([]string, 0, len(palettes))
	for _, p := range palettes {
		ids = append(ids, p.ID)
	}
	for _, id := range registry.TintIDs() {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Current returns the active tint.
func Current() *tint.Tint {
	return registry.Current()
}

// Name returns the display name of the active theme.
func Name() string {
	if t := Current(); t != nil {
		return t.DisplayName
	}
	return palettes[0].Name
}

// TerminalFg returns the default foreground of terminal text.
func TerminalFg() color.Color {
	if t := Current(); t != nil && t.Fg != nil {
		return t.Fg
	}
	return lipgloss.Color(palettes[0].Text)
}

// Bg returns the window background.
func Bg() color.Color {
	if t := Current(); t != nil && t.Bg != nil {
		return t.Bg
	}
	return lipgloss.Color(palettes[0].Bg)
}

// Prompt returns the colour for labels and the focused cursor.
func Prompt() color.Color {
	if t := Current(); t != nil && t.Cursor != nil {
		return t.Cursor
	}
	return lipgloss.Color(palettes[0].Prompt)
}

// Accent returns the colour of the focused window border.
func Accent() color.Color {
	if t := Current(); t != nil && t.BrightBlue != nil {
		return t.BrightBlue
	}
	return lipgloss.Color(palettes[0].Accent)
}

// Surface returns the colour of unfocused borders and panels.
func Surface() color.Color {
	if t := Current(); t != nil && t.Black != nil {
		return t.Black
	}
	return lipgloss.Color(palettes[0].Surface)
}

// Error returns the colour for error messages in the chrome.
func Error() color.Color {
	return lipgloss.Color("#cd0000")
}
