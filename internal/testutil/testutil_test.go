package testutil_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olivierchoquet/rustty/internal/sshclient"
	"github.com/olivierchoquet/rustty/internal/testutil"
	"github.com/olivierchoquet/rustty/internal/vt"
)

func TestFakeChannel_Input(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	ctx := context.Background()

	if err := ch.Send(ctx, []byte("ls -la")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := ch.Send(ctx, []byte("\r")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if got := string(ch.GetInput()); got != "ls -la\r" {
		t.Errorf("Expected %q, got %q", "ls -la\r", got)
	}
	history := ch.GetInputHistory()
	if len(history) != 2 || history[0] != "ls -la" || history[1] != "\r" {
		t.Errorf("Expected history [ls -la \\r], got %q", history)
	}

	ch.ClearInput()
	if len(ch.GetInput()) != 0 || len(ch.GetInputHistory()) != 0 {
		t.Error("Expected empty input after clear")
	}
}

func TestFakeChannel_DoubleClose(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	if err := ch.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := ch.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if ch.CloseCount() != 2 {
		t.Errorf("Expected 2 closes, got %d", ch.CloseCount())
	}
	select {
	case <-ch.Closed():
	default:
		t.Error("Closed() not signalled")
	}
	if err := ch.Send(context.Background(), []byte("x")); !errors.Is(err, testutil.ErrFakeClosed) {
		t.Errorf("Send after Close: expected ErrFakeClosed, got %v", err)
	}
}

func TestFakeChannel_Errors(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	boom := errors.New("boom")
	ch.SetSendError(boom)
	ch.SetCloseError(boom)
	if err := ch.Send(context.Background(), []byte("x")); !errors.Is(err, boom) {
		t.Errorf("Expected send error, got %v", err)
	}
	if err := ch.Close(); !errors.Is(err, boom) {
		t.Errorf("Expected close error, got %v", err)
	}
}

func TestFakeChannel_StallSends(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	ch.StallSends()

	done := make(chan error, 1)
	go func() { done <- ch.Send(context.Background(), []byte("x")) }()
	select {
	case err := <-done:
		t.Fatalf("stalled Send returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	_ = ch.Close()
	select {
	case err := <-done:
		if !errors.Is(err, testutil.ErrFakeClosed) {
			t.Errorf("Expected ErrFakeClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not release the stalled Send")
	}
	if len(ch.GetInput()) != 0 {
		t.Errorf("Expected no input, got %q", ch.GetInput())
	}
}

func TestFakeChannel_WaitForInput(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = ch.Send(context.Background(), []byte("ab"))
	}()
	if got := ch.WaitForInput("ab", time.Second); got != "ab" {
		t.Errorf("Expected %q, got %q", "ab", got)
	}
}

func TestFakeChannel_ConcurrentClose(t *testing.T) {
	ch := testutil.NewFakeChannel("w1")
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = ch.Close()
		}()
	}
	wg.Wait()
	if ch.CloseCount() != 10 {
		t.Errorf("Expected 10 closes, got %d", ch.CloseCount())
	}
}

func TestFakeSession_OpenChannel(t *testing.T) {
	boom := errors.New("pty refused")
	sess := testutil.NewFakeSession(map[int]error{1: boom})
	ctx := context.Background()

	var mu sync.Mutex
	got := map[string]string{}
	cb := sshclient.Callbacks{Data: func(id string, p []byte) {
		mu.Lock()
		got[id] += string(p)
		mu.Unlock()
	}}

	if _, err := sess.OpenChannel(ctx, sshclient.NewWindowCell("a"), cb); err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if _, err := sess.OpenChannel(ctx, sshclient.NewWindowCell("b"), cb); !errors.Is(err, boom) {
		t.Fatalf("Expected second open to fail with %v, got %v", boom, err)
	}
	if sess.Opens() != 2 || len(sess.Channels()) != 1 {
		t.Errorf("Expected 2 opens and 1 channel, got %d and %d", sess.Opens(), len(sess.Channels()))
	}

	sess.Channel("a").SendOutputf("hello %s", "a")
	if got["a"] != "hello a" {
		t.Errorf("Expected output %q, got %q", "hello a", got["a"])
	}

	_ = sess.Close()
	if _, err := sess.OpenChannel(ctx, sshclient.NewWindowCell("c"), cb); !errors.Is(err, sshclient.ErrSessionClosed) {
		t.Errorf("Expected ErrSessionClosed after Close, got %v", err)
	}
}

func TestANSIBuilder(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*testutil.ANSIBuilder) string
		expected string
	}{
		{"text", func(b *testutil.ANSIBuilder) string { return b.Text("Hello").Text(" World").String() }, "Hello World"},
		{"cursor to", func(b *testutil.ANSIBuilder) string { return b.CursorTo(5, 10).String() }, "\x1b[5;10H"},
		{"cursor home", func(b *testutil.ANSIBuilder) string { return b.CursorHome().String() }, "\x1b[H"},
		{"cursor up", func(b *testutil.ANSIBuilder) string { return b.CursorUp(3).String() }, "\x1b[3A"},
		{"clear screen", func(b *testutil.ANSIBuilder) string { return b.ClearScreen().String() }, "\x1b[2J"},
		{"scroll region", func(b *testutil.ANSIBuilder) string { return b.ScrollRegion(2, 10).String() }, "\x1b[2;10r"},
		{"hide cursor", func(b *testutil.ANSIBuilder) string { return b.HideCursor().String() }, "\x1b[?25l"},
		{"fg color", func(b *testutil.ANSIBuilder) string { return b.FgColor(31).String() }, "\x1b[31m"},
		{"rgb fg", func(b *testutil.ANSIBuilder) string { return b.FgRGB(255, 128, 0).String() }, "\x1b[38;2;255;128;0m"},
		{"clear", func(b *testutil.ANSIBuilder) string { return b.Text("x").Clear().Text("y").String() }, "y"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if result := tc.build(testutil.NewANSIBuilder()); result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

// Builder output drives the emulator the way a real shell would.
func TestANSIBuilderFeedsEmulator(t *testing.T) {
	e := vt.NewEmulator(5, 40, 10)
	out := testutil.NewANSIBuilder().
		Text(testutil.ShellPrompt("user", "host", "~")).
		Text("ls").CRLF().
		Text(testutil.ColoredLine(34, "dir1")).
		Text(testutil.CommandNotFound("foo")).
		Title("user@host").
		Bytes()
	e.Feed(out)

	lines := e.Snapshot().Lines()
	if !strings.HasPrefix(lines[0], "user@host:~$ ls") {
		t.Errorf("Expected prompt line, got %q", lines[0])
	}
	if lines[1] != "dir1" {
		t.Errorf("Expected dir1, got %q", lines[1])
	}
	if lines[2] != "bash: foo: command not found" {
		t.Errorf("Expected error line, got %q", lines[2])
	}
	if e.Title() != "user@host" {
		t.Errorf("Expected title user@host, got %q", e.Title())
	}
}
