package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	tint "github.com/lrstanley/bubbletint/v2"
)

// GetThemesDir returns the custom themes directory (~/.config/rustty/themes/),
// creating it if needed.
func GetThemesDir() (string, error) {
	keepFile, err := xdg.ConfigFile("rustty/themes/.keep")
	if err != nil {
		return "", fmt.Errorf("failed to get themes directory: %w", err)
	}
	return filepath.Dir(keepFile), nil
}

// LoadCustomThemes registers every *.json theme in themesDir and returns
// the ids it loaded. Unreadable files are logged and skipped.
func LoadCustomThemes(themesDir string) ([]string, error) {
	entries, err := os.ReadDir(themesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read themes directory: %w", err)
	}

	var loaded []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		p, err := LoadCustomThemeFile(filepath.Join(themesDir, entry.Name()))
		if err != nil {
			logger.Warn("skipping custom theme", "file", entry.Name(), "err", err)
			continue
		}
		registry.Register(p.Tint())
		loaded = append(loaded, p.ID)
	}
	return loaded, nil
}

// LoadCustomThemeFile reads a palette from a JSON file such as
//
//	{"name": "Sea", "bg": "#1e1e2e", "text": "#d4d4d4", "accent": "#89b4fa"}
//
// The id defaults to the file name and the name to the id. Colours left out
// come from the default palette.
func LoadCustomThemeFile(path string) (Palette, error) {
	// #nosec G304 - path is from user's config directory, reading custom themes is intentional
	data, err := os.ReadFile(path)
	if err != nil {
		return Palette{}, fmt.Errorf("failed to read theme file: %w", err)
	}

	var p Palette
	if err := json.Unmarshal(data, &p); err != nil {
		return Palette{}, fmt.Errorf("failed to parse theme JSON: %w", err)
	}

	if p.ID == "" {
		base := filepath.Base(path)
		p.ID = strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if p.ID == "" {
		return Palette{}, fmt.Errorf("theme has no ID")
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	base := palettes[0]
	for _, c := range []struct {
		field string
		value *string
		def   string
	}{
		{"bg", &p.Bg, base.Bg},
		{"text", &p.Text, base.Text},
		{"prompt", &p.Prompt, base.Prompt},
		{"accent", &p.Accent, base.Accent},
		{"surface", &p.Surface, base.Surface},
	} {
		if *c.value == "" {
			*c.value = c.def
			continue
		}
		if tint.FromHex(*c.value) == nil {
			return Palette{}, fmt.Errorf("invalid %s colour %q", c.field, *c.value)
		}
	}
	return p, nil
}
