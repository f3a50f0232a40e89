// Package input turns local key events into the bytes a remote shell expects.
package input

import (
	"unicode"
	"unicode/utf8"
)

// NamedKey identifies a non-character key.
type NamedKey int

// Named keys understood by Encode.
const (
	KeyNone NamedKey = iota
	KeyEnter
	KeyBackspace
	KeyTab
	KeyEscape
	KeySpace
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
)

// Key is a single key event. Char holds the character of the physical key
// when it has one (what Ctrl combines with). Text holds the text the key
// produced, which may be empty when a modifier suppressed it.
type Key struct {
	Name NamedKey
	Char string
	Text string
}

// Modifiers records the modifier keys held during a key event.
type Modifiers struct {
	Ctrl  bool
	Alt   bool
	Shift bool
}

var namedSequences = map[NamedKey][]byte{
	KeyEnter:     {'\r'},
	KeyBackspace: {0x7f},
	KeyTab:       {'\t'},
	KeyEscape:    {0x1b},
	KeySpace:     {' '},
	KeyUp:        []byte("\x1b[A"),
	KeyDown:      []byte("\x1b[B"),
	KeyRight:     []byte("\x1b[C"),
	KeyLeft:      []byte("\x1b[D"),
	KeyHome:      []byte("\x1b[H"),
	KeyEnd:       []byte("\x1b[F"),
	KeyInsert:    []byte("\x1b[2~"),
	KeyDelete:    []byte("\x1b[3~"),
	KeyPageUp:    []byte("\x1b[5~"),
	KeyPageDown:  []byte("\x1b[6~"),
}

// Encode maps a key event to wire bytes, or nil when the key produces none.
//
// Rules apply in order: Ctrl plus a character key yields the control byte of
// the character's first byte; otherwise text that does not start with a
// control character or a space is sent as UTF-8; otherwise named keys map to
// their fixed sequences. Enter is a lone CR; the PTY translates it.
func Encode(k Key, mods Modifiers) []byte {
	if mods.Ctrl && k.Char != "" {
		if r, _ := utf8.DecodeRuneInString(k.Char); unicode.IsPrint(r) {
			return []byte{k.Char[0] & 0x1f}
		}
	}

	if k.Text != "" {
		r, _ := utf8.DecodeRuneInString(k.Text)
		if r != utf8.RuneError && !unicode.IsControl(r) && r != ' ' {
			return []byte(k.Text)
		}
	}

	if seq, ok := namedSequences[k.Name]; ok {
		out := make([]byte, len(seq))
		copy(out, seq)
		return out
	}
	return nil
}
