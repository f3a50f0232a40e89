package vt

import (
	"image/color"

	"github.com/charmbracelet/x/ansi"
)

// StandardColors is the fixed table for SGR 30–37.
var StandardColors = [8]color.Color{
	color.RGBA{0x00, 0x00, 0x00, 0xff}, // black
	color.RGBA{0xcd, 0x00, 0x00, 0xff}, // red
	color.RGBA{0x00, 0xcd, 0x00, 0xff}, // green
	color.RGBA{0xcd, 0xcd, 0x00, 0xff}, // yellow
	color.RGBA{0x00, 0x00, 0xee, 0xff}, // blue
	color.RGBA{0xcd, 0x00, 0xcd, 0xff}, // magenta
	color.RGBA{0x00, 0xcd, 0xcd, 0xff}, // cyan
	color.RGBA{0xe5, 0xe5, 0xe5, 0xff}, // white
}

// BrightColors is the fixed table for SGR 90–97.
var BrightColors = [8]color.Color{
	color.RGBA{0x7f, 0x7f, 0x7f, 0xff},
	color.RGBA{0xff, 0x00, 0x00, 0xff},
	color.RGBA{0x00, 0xff, 0x00, 0xff},
	color.RGBA{0xff, 0xff, 0x00, 0xff},
	color.RGBA{0x5c, 0x5c, 0xff, 0xff},
	color.RGBA{0xff, 0x00, 0xff, 0xff},
	color.RGBA{0x00, 0xff, 0xff, 0xff},
	color.RGBA{0xff, 0xff, 0xff, 0xff},
}

// indexedColor resolves a 256-colour palette index.
func indexedColor(n int) color.Color {
	switch {
	case n < 0 || n > 255:
		return nil
	case n < 8:
		return StandardColors[n]
	case n < 16:
		return BrightColors[n-8]
	default:
		return ansi.IndexedColor(uint8(n)) //nolint:gosec
	}
}

// handleSgr applies Select Graphic Rendition parameters to the pen.
// Background colours are parsed so their arguments are skipped, then dropped.
// Unknown attributes are ignored.
func (e *Emulator) handleSgr(params ansi.Params) {
	if len(params) == 0 {
		e.pen = pen{}
		return
	}
	for i := 0; i < len(params); i++ {
		switch p := params[i].Param(0); {
		case p == 0:
			e.pen = pen{}
		case p == 1:
			e.pen.bold = true
		case p == 22:
			e.pen.bold = false
		case p >= 30 && p <= 37:
			e.pen.fg = StandardColors[p-30]
		case p == 38:
			c, n := readExtendedColor(params[i:])
			if c != nil {
				e.pen.fg = c
			}
			i += n
		case p == 39:
			e.pen.fg = nil
		case p == 48:
			_, n := readExtendedColor(params[i:])
			i += n
		case p >= 90 && p <= 97:
			e.pen.fg = BrightColors[p-90]
		}
	}
}

// readExtendedColor decodes the arguments of SGR 38/48 starting at
// params[0]. It supports both "38;5;n" / "38;2;r;g;b" and the colon
// forms, and returns the number of parameters consumed after params[0].
func readExtendedColor(params ansi.Params) (color.Color, int) {
	if len(params) < 2 {
		return nil, 0
	}

	var args []int
	consumed := 0
	if params[0].HasMore() {
		for j := 1; j < len(params) && params[j-1].HasMore(); j++ {
			args = append(args, params[j].Param(0))
			consumed++
		}
		// 38:2:<colorspace>:r:g:b
		if len(args) >= 5 && args[0] == 2 {
			args = append(args[:1], args[2:]...)
		}
	} else {
		mode := params[1].Param(0)
		want := 0
		switch mode {
		case 5:
			want = 2
		case 2:
			want = 4
		default:
			return nil, 1
		}
		for j := 1; j <= want && j < len(params); j++ {
			args = append(args, params[j].Param(0))
			consumed++
		}
	}

	if len(args) == 0 {
		return nil, consumed
	}
	switch args[0] {
	case 5:
		if len(args) >= 2 {
			return indexedColor(args[1]), consumed
		}
	case 2:
		if len(args) >= 4 {
			return color.RGBA{
				R: uint8(clamp(args[1], 0, 255)), //nolint:gosec
				G: uint8(clamp(args[2], 0, 255)), //nolint:gosec
				B: uint8(clamp(args[3], 0, 255)), //nolint:gosec
				A: 0xff,
			}, consumed
		}
	}
	return nil, consumed
}
