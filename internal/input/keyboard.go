package input

import (
	"unicode"

	tea "charm.land/bubbletea/v2"
)

var teaNamedKeys = map[rune]NamedKey{
	tea.KeyEnter:     KeyEnter,
	tea.KeyBackspace: KeyBackspace,
	tea.KeyTab:       KeyTab,
	tea.KeyEscape:    KeyEscape,
	tea.KeySpace:     KeySpace,
	tea.KeyUp:        KeyUp,
	tea.KeyDown:      KeyDown,
	tea.KeyRight:     KeyRight,
	tea.KeyLeft:      KeyLeft,
	tea.KeyHome:      KeyHome,
	tea.KeyEnd:       KeyEnd,
	tea.KeyInsert:    KeyInsert,
	tea.KeyDelete:    KeyDelete,
	tea.KeyPgUp:      KeyPageUp,
	tea.KeyPgDown:    KeyPageDown,
}

// FromKeyPress converts a bubbletea key press into a Key and its Modifiers.
func FromKeyPress(msg tea.KeyPressMsg) (Key, Modifiers) {
	k := Key{Text: msg.Text}
	if name, ok := teaNamedKeys[msg.Code]; ok {
		k.Name = name
	}
	if msg.Code <= unicode.MaxRune && unicode.IsPrint(msg.Code) {
		k.Char = string(msg.Code)
	}

	mods := Modifiers{
		Ctrl:  msg.Mod.Contains(tea.ModCtrl),
		Alt:   msg.Mod.Contains(tea.ModAlt),
		Shift: msg.Mod.Contains(tea.ModShift),
	}
	return k, mods
}

