package config

import (
	"slices"
	"strings"
)

// Window actions.
const (
	ActionCloseWindow = "close_window"
	ActionQuit        = "quit"
	ActionNextWindow  = "next_window"
	ActionPrevWindow  = "prev_window"
	ActionToggleHelp  = "toggle_help"
	ActionScrollUp    = "scroll_up"
	ActionScrollDown  = "scroll_down"
)

// Form actions.
const (
	ActionNextField = "next_field"
	ActionPrevField = "prev_field"
	ActionSubmit    = "submit"
)

// KeybindingsConfig maps actions to key strings as reported by
// tea.KeyPressMsg.String, for example "ctrl+w".
type KeybindingsConfig struct {
	Window map[string][]string `toml:"window"`
	Form   map[string][]string `toml:"form"`
}

// DefaultKeybindings returns the default bindings.
func DefaultKeybindings() KeybindingsConfig {
	return KeybindingsConfig{
		Window: map[string][]string{
			ActionCloseWindow: {"ctrl+w"},
			ActionQuit:        {"ctrl+q"},
			ActionNextWindow:  {"ctrl+n"},
			ActionPrevWindow:  {"ctrl+p"},
			ActionToggleHelp:  {"f1"},
			ActionScrollUp:    {"shift+pgup"},
			ActionScrollDown:  {"shift+pgdown"},
		},
		Form: map[string][]string{
			ActionNextField: {"tab", "down"},
			ActionPrevField: {"shift+tab", "up"},
			ActionSubmit:    {"enter"},
		},
	}
}

func fillMissingKeybinds(cfg *KeybindingsConfig, def KeybindingsConfig) {
	if cfg.Window == nil {
		cfg.Window = make(map[string][]string)
	}
	if cfg.Form == nil {
		cfg.Form = make(map[string][]string)
	}
	fillMapDefaults(cfg.Window, def.Window)
	fillMapDefaults(cfg.Form, def.Form)
}

func fillMapDefaults(target, defaults map[string][]string) {
	for k, v := range defaults {
		if _, exists := target[k]; !exists {
			target[k] = v
		}
	}
}

// KeybindRegistry resolves key strings to actions.
type KeybindRegistry struct {
	window map[string]string
	form   map[string]string
	keys   map[string][]string
}

// NewKeybindRegistry builds a registry from cfg, or from the defaults when
// cfg is nil.
func NewKeybindRegistry(cfg *UserConfig) *KeybindRegistry {
	kb := DefaultKeybindings()
	if cfg != nil {
		kb = cfg.Keybindings
		fillMissingKeybinds(&kb, DefaultKeybindings())
	}
	r := &KeybindRegistry{
		window: make(map[string]string),
		form:   make(map[string]string),
		keys:   make(map[string][]string),
	}
	for action, keys := range kb.Window {
		for _, k := range keys {
			r.window[normalizeKey(k)] = action
		}
		r.keys[action] = keys
	}
	for action, keys := range kb.Form {
		for _, k := range keys {
			r.form[normalizeKey(k)] = action
		}
		r.keys[action] = keys
	}
	return r
}

// GetAction returns the window action bound to key, or "".
func (r *KeybindRegistry) GetAction(key string) string {
	return r.window[normalizeKey(key)]
}

// GetFormAction returns the form action bound to key, or "".
func (r *KeybindRegistry) GetFormAction(key string) string {
	return r.form[normalizeKey(key)]
}

// Keys returns the keys bound to action.
func (r *KeybindRegistry) Keys(action string) []string {
	return slices.Clone(r.keys[action])
}

// GetKeysForDisplay returns the keys bound to action formatted for help
// text, for example "Ctrl+W".
func (r *KeybindRegistry) GetKeysForDisplay(action string) string {
	keys := r.keys[action]
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, displayKey(k))
	}
	return strings.Join(out, ", ")
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func displayKey(k string) string {
	parts := strings.Split(normalizeKey(k), "+")
	for i, p := range parts {
		switch {
		case p == "":
		case len(p) == 1:
			parts[i] = strings.ToUpper(p)
		default:
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "+")
}

// Keybinding represents a single keybinding entry.
type Keybinding struct {
	Key         string
	Description string
}

// KeybindingSection represents a section of related keybindings.
type KeybindingSection struct {
	Title    string
	Bindings []Keybinding
}

// GetKeybindings returns the help sections for registry.
func GetKeybindings(registry *KeybindRegistry) []KeybindingSection {
	if registry == nil {
		registry = NewKeybindRegistry(nil)
	}
	windows := KeybindingSection{Title: "WINDOWS"}
	addBinding(&windows, registry, ActionNextWindow, "Next window")
	addBinding(&windows, registry, ActionPrevWindow, "Previous window")
	addBinding(&windows, registry, ActionCloseWindow, "Close window")
	addBinding(&windows, registry, ActionScrollUp, "Scroll back")
	addBinding(&windows, registry, ActionScrollDown, "Scroll forward")
	addBinding(&windows, registry, ActionQuit, "Quit")
	addBinding(&windows, registry, ActionToggleHelp, "Toggle help")

	form := KeybindingSection{Title: "CONNECTION FORM"}
	addBinding(&form, registry, ActionNextField, "Next field")
	addBinding(&form, registry, ActionPrevField, "Previous field")
	addBinding(&form, registry, ActionSubmit, "Connect")

	return slices.DeleteFunc([]KeybindingSection{windows, form}, func(s KeybindingSection) bool {
		return len(s.Bindings) == 0
	})
}

func addBinding(section *KeybindingSection, registry *KeybindRegistry, action, description string) {
	if keys := registry.GetKeysForDisplay(action); keys != "" {
		section.Bindings = append(section.Bindings, Keybinding{Key: keys, Description: description})
	}
}
