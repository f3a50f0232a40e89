package vt

import "bytes"

// handleOsc handles an OSC escape sequence. Only title changes are kept.
func (e *Emulator) handleOsc(cmd int, data []byte) {
	switch cmd {
	case 0, 2:
		e.handleTitle(data)
	default:
		e.logf("unhandled sequence: OSC %q", data)
	}
}

// handleTitle sets the window title from "<cmd>;<title>".
func (e *Emulator) handleTitle(data []byte) {
	_, title, ok := bytes.Cut(data, []byte{';'})
	if !ok {
		return
	}
	e.title = string(title)
}
