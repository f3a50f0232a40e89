package vt

import (
	"fmt"
	"image/color"
	"reflect"
	"strings"
	"testing"
)

func feedString(e *Emulator, s string) {
	e.Feed([]byte(s))
}

func TestNewEmulatorDefaults(t *testing.T) {
	e := NewEmulator(0, -1, 0)
	if e.Rows() != DefaultRows || e.Cols() != DefaultCols {
		t.Errorf("geometry = %dx%d, want %dx%d", e.Rows(), e.Cols(), DefaultRows, DefaultCols)
	}
	if got := e.scrollback.maxLines; got != DefaultScrollbackSize {
		t.Errorf("scrollback capacity = %d, want %d", got, DefaultScrollbackSize)
	}
}

func TestFeedText(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantLines  []string
		wantCursor Position
	}{
		{"plain", "hello", []string{"hello"}, Position{0, 5}},
		{"crlf", "ab\r\ncd", []string{"ab", "cd"}, Position{1, 2}},
		{"bare lf keeps column", "ab\ncd", []string{"ab", "  cd"}, Position{1, 4}},
		{"backspace overwrite", "abc\bX", []string{"abX"}, Position{0, 3}},
		{"tab stop", "a\tb", []string{"a       b"}, Position{0, 9}},
		{"cursor position", "\x1b[2;3Hx", []string{"", "  x"}, Position{1, 3}},
		{"erase line", "abcdef\x1b[3D\x1b[K", []string{"abc"}, Position{0, 3}},
		{"erase display", "abc\r\ndef\x1b[2J", []string{"", ""}, Position{1, 3}},
		{"cursor up", "a\r\nb\x1b[Ac", []string{"ac", "b"}, Position{0, 2}},
		{"delete chars", "abcdef\r\x1b[2P", []string{"cdef"}, Position{0, 0}},
		{"insert chars", "abc\r\x1b[2@", []string{"  abc"}, Position{0, 0}},
		{"erase chars", "abcdef\r\x1b[2X", []string{"  cdef"}, Position{0, 0}},
		{"save restore", "ab\x1b7\r\nxy\x1b8z", []string{"abz", "xy"}, Position{0, 3}},
		{"charset designation ignored", "\x1b(Bok", []string{"ok"}, Position{0, 2}},
		{"bell ignored", "a\ab", []string{"ab"}, Position{0, 2}},
		{"utf8", "héllo", []string{"héllo"}, Position{0, 5}},
		{"wide rune", "日本", []string{"日本"}, Position{0, 4}},
		{"reset", "abc\x1bcz", []string{"z"}, Position{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmulator(4, 20, 10)
			feedString(e, tt.input)
			snap := e.Snapshot()
			lines := snap.Lines()
			for i, want := range tt.wantLines {
				if lines[i] != want {
					t.Errorf("line %d = %q, want %q", i, lines[i], want)
				}
			}
			if snap.Cursor != tt.wantCursor {
				t.Errorf("cursor = %+v, want %+v", snap.Cursor, tt.wantCursor)
			}
		})
	}
}

func TestAutowrap(t *testing.T) {
	e := NewEmulator(3, 5, 10)
	feedString(e, "abcdefg")
	lines := e.Snapshot().Lines()
	if lines[0] != "abcde" || lines[1] != "fg" {
		t.Errorf("lines = %q, want [abcde fg]", lines[:2])
	}

	e = NewEmulator(3, 5, 10)
	feedString(e, "\x1b[?7labcdefg")
	if got := e.Snapshot().Lines()[0]; got != "abcdg" {
		t.Errorf("without autowrap line = %q, want %q", got, "abcdg")
	}
}

func TestPendingWrapThenCR(t *testing.T) {
	e := NewEmulator(3, 5, 10)
	feedString(e, "abcde\r\nx")
	lines := e.Snapshot().Lines()
	if lines[0] != "abcde" || lines[1] != "x" || lines[2] != "" {
		t.Errorf("lines = %q, want [abcde x \"\"]", lines)
	}
}

// Splitting the input at any byte boundary yields the same screen as
// feeding it in one call.
func TestFeedSplitAnywhere(t *testing.T) {
	input := "\x1b[1;31mred\x1b[0m plain \x1b[38;2;10;20;30mtrue\x1b[39m é日\r\n" +
		"\x1b[2;5Hmoved\x1b[K\x1b]0;title\x07\x1b[?25l"

	whole := NewEmulator(5, 20, 10)
	feedString(whole, input)
	want := whole.Snapshot()

	for split := 1; split < len(input); split++ {
		e := NewEmulator(5, 20, 10)
		e.Feed([]byte(input[:split]))
		e.Feed([]byte(input[split:]))
		if got := e.Snapshot(); !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: snapshot differs\n got: %q\nwant: %q", split, got.Lines(), want.Lines())
		}
	}

	byteWise := NewEmulator(5, 20, 10)
	for i := range len(input) {
		byteWise.Feed([]byte{input[i]})
	}
	if got := byteWise.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("byte-wise feed differs: %q, want %q", got.Lines(), want.Lines())
	}
}

func TestColors(t *testing.T) {
	themeFg := color.RGBA{0xd9, 0xde, 0xe8, 0xff}
	tests := []struct {
		name     string
		input    string
		wantFg   color.Color
		wantBold bool
	}{
		{"default uses theme", "x", themeFg, false},
		{"standard red", "\x1b[31mx", StandardColors[1], false},
		{"standard white", "\x1b[37mx", StandardColors[7], false},
		{"bright blue", "\x1b[94mx", BrightColors[4], false},
		{"bold", "\x1b[1mx", themeFg, true},
		{"bold and green", "\x1b[1;32mx", StandardColors[2], true},
		{"normal intensity", "\x1b[1m\x1b[22mx", themeFg, false},
		{"truecolor", "\x1b[38;2;1;2;3mx", color.RGBA{1, 2, 3, 0xff}, false},
		{"truecolor colon form", "\x1b[38:2::4:5:6mx", color.RGBA{4, 5, 6, 0xff}, false},
		{"indexed low", "\x1b[38;5;3mx", StandardColors[3], false},
		{"reset to default", "\x1b[31m\x1b[39mx", themeFg, false},
		{"reset all", "\x1b[1;31m\x1b[0mx", themeFg, false},
		{"empty sgr resets", "\x1b[1;31m\x1b[mx", themeFg, false},
		{"unknown attribute ignored", "\x1b[31;4;5;7;53mx", StandardColors[1], false},
		{"background skipped", "\x1b[48;2;9;9;9;33mx", StandardColors[3], false},
		{"plain background ignored", "\x1b[41mx", themeFg, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEmulator(2, 10, 10)
			e.SetDefaultForeground(themeFg)
			feedString(e, tt.input)
			c := e.Snapshot().Cell(0, 0)
			if c.Char != 'x' {
				t.Fatalf("cell char = %q, want 'x'", c.Char)
			}
			if !sameColor(c.Fg, tt.wantFg) {
				t.Errorf("fg = %v, want %v", c.Fg, tt.wantFg)
			}
			if c.Bold != tt.wantBold {
				t.Errorf("bold = %v, want %v", c.Bold, tt.wantBold)
			}
		})
	}
}

func sameColor(a, b color.Color) bool {
	if a == nil || b == nil {
		return a == b
	}
	ar, ag, ab, aa := a.RGBA()
	br, bg, bb, ba := b.RGBA()
	return ar == br && ag == bg && ab == bb && aa == ba
}

func TestSnapshotIsReadOnly(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	feedString(e, "ab")
	snap := e.Snapshot()
	snap.Cells[0].Char = 'z'
	if got := e.Snapshot().Cell(0, 0).Char; got != 'a' {
		t.Errorf("emulator changed through snapshot: cell = %q", got)
	}
	if got := e.Snapshot(); !reflect.DeepEqual(got, e.Snapshot()) {
		t.Error("consecutive snapshots differ")
	}
}

func TestSnapshotAll(t *testing.T) {
	e := NewEmulator(2, 3, 10)
	feedString(e, "ab\r\nc")
	var got strings.Builder
	for pos, c := range e.Snapshot().All() {
		if pos.Col == 0 && pos.Row > 0 {
			got.WriteByte('|')
		}
		got.WriteRune(c.Char)
	}
	if got.String() != "ab |c  " {
		t.Errorf("All() = %q, want %q", got.String(), "ab |c  ")
	}
}

func TestCursorVisibility(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	feedString(e, "\x1b[?25l")
	if !e.IsCursorHidden() || e.Snapshot().CursorVisible {
		t.Error("cursor should be hidden after DECTCEM reset")
	}
	feedString(e, "\x1b[?25h")
	if e.IsCursorHidden() {
		t.Error("cursor should be visible after DECTCEM set")
	}
}

func TestTitle(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	feedString(e, "\x1b]2;user@host: ~\x07")
	if e.Title() != "user@host: ~" {
		t.Errorf("Title() = %q", e.Title())
	}
	feedString(e, "\x1b]0;no terminator")
	if e.Title() != "user@host: ~" {
		t.Errorf("unterminated OSC changed the title to %q", e.Title())
	}
}

func TestScrollbackBounded(t *testing.T) {
	const rows, maxLines = 3, 5
	e := NewEmulator(rows, 10, maxLines)
	for i := range 20 {
		feedString(e, fmt.Sprintf("line%d\r\n", i))
		if n := e.ScrollbackLen(); n > maxLines {
			t.Fatalf("scrollback length %d exceeds %d", n, maxLines)
		}
	}
	// 20 lines plus the empty prompt row: rows 18, 19 and "" stay on screen.
	if n := e.ScrollbackLen(); n != maxLines {
		t.Fatalf("ScrollbackLen() = %d, want %d", n, maxLines)
	}
	for i := range maxLines {
		want := fmt.Sprintf("line%d", 13+i)
		if got := e.ScrollbackLine(i).String(); got != want {
			t.Errorf("ScrollbackLine(%d) = %q, want %q", i, got, want)
		}
	}
	lines := e.Snapshot().Lines()
	if lines[0] != "line18" || lines[1] != "line19" {
		t.Errorf("screen = %q", lines)
	}
}

func TestScrollbackLineResolvesDefaultForeground(t *testing.T) {
	themeFg := color.RGBA{0xd9, 0xde, 0xe8, 0xff}
	e := NewEmulator(2, 10, 10)
	e.SetDefaultForeground(themeFg)
	feedString(e, "plain\r\n\x1b[31mred\x1b[0m\r\nlast\r\n")

	if e.ScrollbackLen() != 2 {
		t.Fatalf("ScrollbackLen() = %d, want 2", e.ScrollbackLen())
	}
	plain := e.ScrollbackLine(0)
	if plain.String() != "plain" {
		t.Fatalf("ScrollbackLine(0) = %q", plain.String())
	}
	for i, c := range plain {
		if c.Fg != themeFg {
			t.Fatalf("plain cell %d fg = %v, want the default foreground", i, c.Fg)
		}
	}
	if got := e.ScrollbackLine(1)[0].Fg; got != StandardColors[1] {
		t.Errorf("red cell fg = %v, want %v", got, StandardColors[1])
	}
	if live := e.Snapshot().Row(0)[0].Fg; live != themeFg {
		t.Errorf("live row fg = %v, want %v", live, themeFg)
	}
}

func TestScrollRegion(t *testing.T) {
	e := NewEmulator(4, 10, 10)
	feedString(e, "top\r\na\r\nb\r\nbottom")
	// Region rows 2-3; scrolling inside it keeps row 1 and row 4.
	feedString(e, "\x1b[2;3r\x1b[3;1H\nnew")
	lines := e.Snapshot().Lines()
	want := []string{"top", "b", "new", "bottom"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if e.ScrollbackLen() != 0 {
		t.Errorf("region scroll reached scrollback: %d lines", e.ScrollbackLen())
	}
}

func TestInsertDeleteLines(t *testing.T) {
	e := NewEmulator(3, 5, 10)
	feedString(e, "a\r\nb\r\nc\x1b[2;1H\x1b[L")
	if got := e.Snapshot().Lines(); !reflect.DeepEqual(got, []string{"a", "", "b"}) {
		t.Errorf("after IL lines = %q", got)
	}
	feedString(e, "\x1b[M")
	if got := e.Snapshot().Lines(); !reflect.DeepEqual(got, []string{"a", "b", ""}) {
		t.Errorf("after DL lines = %q", got)
	}
}

func TestReverseIndexAtTop(t *testing.T) {
	e := NewEmulator(3, 5, 10)
	feedString(e, "a\r\nb\x1b[H\x1bM")
	if got := e.Snapshot().Lines(); !reflect.DeepEqual(got, []string{"", "a", "b"}) {
		t.Errorf("lines = %q", got)
	}
}

func TestEraseScrollback(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	feedString(e, "a\r\nb\r\nc\r\n")
	if e.ScrollbackLen() == 0 {
		t.Fatal("expected scrollback")
	}
	feedString(e, "\x1b[3J")
	if e.ScrollbackLen() != 0 {
		t.Errorf("ScrollbackLen() = %d after ED 3", e.ScrollbackLen())
	}
}

func TestFeedAfterClose(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	_ = e.Close()
	e.Feed([]byte("x"))
	if got := e.Snapshot().Lines()[0]; got != "" {
		t.Errorf("Feed after Close changed screen: %q", got)
	}
}

type recordingLogger struct{ lines []string }

func (l *recordingLogger) Printf(format string, v ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func TestUnhandledSequenceLogged(t *testing.T) {
	e := NewEmulator(2, 5, 10)
	logger := &recordingLogger{}
	e.SetLogger(logger)
	feedString(e, "\x1b[5n")
	if len(logger.lines) != 1 || !strings.Contains(logger.lines[0], "unhandled sequence") {
		t.Errorf("log lines = %q", logger.lines)
	}
}
