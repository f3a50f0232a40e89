package registry_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/olivierchoquet/rustty/internal/input"
	"github.com/olivierchoquet/rustty/internal/registry"
	"github.com/olivierchoquet/rustty/internal/terminal"
	"github.com/olivierchoquet/rustty/internal/testutil"
)

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r := registry.New(log.New(io.Discard))
	t.Cleanup(r.Wait)
	return r
}

// open adds a window and attaches a fake channel to it.
func open(t *testing.T, r *registry.Registry, id string) *testutil.FakeChannel {
	t.Helper()
	if err := r.Add(terminal.NewWindow(id, id, 24, 80, 100)); err != nil {
		t.Fatalf("Add(%s): %v", id, err)
	}
	ch := testutil.NewFakeChannel(id)
	if !r.Attach(id, ch) {
		t.Fatalf("Attach(%s) failed", id)
	}
	return ch
}

func waitClosed(t *testing.T, ch *testutil.FakeChannel) {
	t.Helper()
	select {
	case <-ch.Closed():
	case <-time.After(2 * time.Second):
		t.Fatalf("channel %s was not closed", ch.ID)
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(terminal.NewWindow("w1", "", 24, 80, 0)); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(terminal.NewWindow("w1", "", 24, 80, 0)); err == nil {
		t.Error("duplicate Add should fail")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestAddRejectsNonConnecting(t *testing.T) {
	r := newRegistry(t)
	w := terminal.NewWindow("w1", "", 24, 80, 0)
	w.Close()
	if err := r.Add(w); err == nil {
		t.Error("Add of a closed window should fail")
	}
}

func TestAttachUnknownWindow(t *testing.T) {
	r := newRegistry(t)
	if r.Attach("nope", testutil.NewFakeChannel("nope")) {
		t.Error("Attach to unknown window should fail")
	}
}

func TestAttachAfterClose(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(terminal.NewWindow("w1", "", 24, 80, 0)); err != nil {
		t.Fatal(err)
	}
	r.Close("w1")
	if r.Attach("w1", testutil.NewFakeChannel("w1")) {
		t.Error("Attach after Close should fail")
	}
	if got := r.State("w1"); got != terminal.StateClosed {
		t.Errorf("State = %v, want closed", got)
	}
}

// Output for one window never shows up in another.
func TestFeedIsolation(t *testing.T) {
	r := newRegistry(t)
	for i := 1; i <= 3; i++ {
		open(t, r, fmt.Sprintf("w%d", i))
	}

	if !r.Feed("w2", []byte("only-two")) {
		t.Fatal("Feed(w2) failed")
	}
	for _, id := range []string{"w1", "w3"} {
		if got := r.Get(id).Snapshot().Lines()[0]; got != "" {
			t.Errorf("%s line 0 = %q, want empty", id, got)
		}
	}
	if got := r.Get("w2").Snapshot().Lines()[0]; got != "only-two" {
		t.Errorf("w2 line 0 = %q", got)
	}
}

func TestFeedDropsForUnknownAndConnecting(t *testing.T) {
	r := newRegistry(t)
	if r.Feed("ghost", []byte("x")) {
		t.Error("Feed to unknown window should be dropped")
	}
	if err := r.Add(terminal.NewWindow("w1", "", 24, 80, 0)); err != nil {
		t.Fatal(err)
	}
	if r.Feed("w1", []byte("x")) {
		t.Error("Feed to connecting window should be dropped")
	}
}

// After Close returns, no later output or input reaches the window.
func TestCloseStopsTraffic(t *testing.T) {
	r := newRegistry(t)
	ch := open(t, r, "w1")
	w := r.Get("w1")

	if !r.Close("w1") {
		t.Fatal("Close(w1) returned false")
	}
	waitClosed(t, ch)

	if r.Feed("w1", []byte("late output")) {
		t.Error("Feed after Close reached the window")
	}
	if err := r.Send(context.Background(), "w1", []byte("late input")); err != nil {
		t.Errorf("Send to closed window = %v, want nil", err)
	}
	if len(ch.GetInput()) != 0 {
		t.Errorf("channel received %q after Close", ch.GetInput())
	}
	if w.State() != terminal.StateClosed {
		t.Errorf("window state = %v", w.State())
	}
	if r.Get("w1") != nil || r.Len() != 0 {
		t.Error("window still registered")
	}
}

func TestCloseUnknownIsNoop(t *testing.T) {
	r := newRegistry(t)
	open(t, r, "w1")
	if r.Close("ghost") {
		t.Error("Close(ghost) should report false")
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestCloseTwice(t *testing.T) {
	r := newRegistry(t)
	ch := open(t, r, "w1")
	r.Close("w1")
	r.Close("w1")
	r.Wait()
	if n := ch.CloseCount(); n != 1 {
		t.Errorf("channel closed %d times, want 1", n)
	}
}

func TestCloseErrorIsNotFatal(t *testing.T) {
	r := newRegistry(t)
	ch := open(t, r, "w1")
	ch.SetCloseError(errors.New("eof"))
	if !r.Close("w1") {
		t.Fatal("Close returned false")
	}
	r.Wait()
	if !ch.IsClosed() {
		t.Error("channel not closed")
	}
}

func TestSendRoutesToWindow(t *testing.T) {
	r := newRegistry(t)
	c1 := open(t, r, "w1")
	c2 := open(t, r, "w2")
	ctx := context.Background()

	if err := r.Send(ctx, "w1", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := r.Send(ctx, "w2", []byte("b")); err != nil {
		t.Fatal(err)
	}
	got1, got2 := c1.WaitForInput("a", time.Second), c2.WaitForInput("b", time.Second)
	if got1 != "a" || got2 != "b" {
		t.Errorf("w1=%q w2=%q", got1, got2)
	}
	if err := r.Send(ctx, "ghost", []byte("c")); err != nil {
		t.Errorf("Send to unknown = %v", err)
	}
}

func TestTargetFallsBackToMostRecentlyOpened(t *testing.T) {
	r := newRegistry(t)
	if r.Target() != nil {
		t.Fatal("empty registry should have no target")
	}

	open(t, r, "w1")
	open(t, r, "w2")
	// w3 is still connecting and must not become the target.
	if err := r.Add(terminal.NewWindow("w3", "", 24, 80, 0)); err != nil {
		t.Fatal(err)
	}

	if got := r.Target().ID; got != "w2" {
		t.Errorf("Target = %s, want w2", got)
	}
	r.Focus("w1")
	if got := r.Target().ID; got != "w1" {
		t.Errorf("Target = %s, want focused w1", got)
	}

	r.Close("w1")
	if r.Focused() != "" {
		t.Errorf("focus should clear when the focused window closes, got %q", r.Focused())
	}
	if got := r.Target().ID; got != "w2" {
		t.Errorf("Target after closing focus = %s, want w2", got)
	}

	r.Close("w2")
	if r.Target() != nil {
		t.Error("only a connecting window remains; target should be nil")
	}
}

func TestFocusUnknownClears(t *testing.T) {
	r := newRegistry(t)
	open(t, r, "w1")
	r.Focus("w1")
	if r.Focus("ghost") {
		t.Error("Focus(ghost) should fail")
	}
	if r.Focused() != "" {
		t.Errorf("Focused = %q, want empty", r.Focused())
	}
}

func TestRouteEncodesKeys(t *testing.T) {
	r := newRegistry(t)
	ch := open(t, r, "w1")
	ctx := context.Background()

	keys := []struct {
		key  input.Key
		mods input.Modifiers
	}{
		{input.Key{Text: "l"}, input.Modifiers{}},
		{input.Key{Text: "s"}, input.Modifiers{}},
		{input.Key{Name: input.KeyEnter}, input.Modifiers{}},
		{input.Key{Char: "c"}, input.Modifiers{Ctrl: true}},
		{input.Key{Name: input.KeyUp}, input.Modifiers{}},
	}
	for _, k := range keys {
		id, err := r.Route(ctx, k.key, k.mods)
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
		if id != "w1" {
			t.Errorf("Route target = %q", id)
		}
	}
	want := "ls\r\x03\x1b[A"
	if got := ch.WaitForInput(want, time.Second); got != want {
		t.Errorf("input = %q, want %q", got, want)
	}
}

// A peer that stops reading must not hold up routing or closing.
func TestRouteWithStalledChannel(t *testing.T) {
	r := newRegistry(t)
	stalled := open(t, r, "w1")
	stalled.StallSends()
	other := open(t, r, "w2")
	ctx := context.Background()

	routed := make(chan error, 1)
	go func() {
		r.Focus("w1")
		_, err := r.Route(ctx, input.Key{Text: "a"}, input.Modifiers{})
		if err == nil {
			_, err = r.Route(ctx, input.Key{Text: "b"}, input.Modifiers{})
		}
		routed <- err
	}()
	select {
	case err := <-routed:
		if err != nil {
			t.Fatalf("Route: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Route waited for a stalled channel")
	}

	if err := r.Send(ctx, "w2", []byte("pwd\r")); err != nil {
		t.Fatal(err)
	}
	if got := other.WaitForInput("pwd\r", time.Second); got != "pwd\r" {
		t.Errorf("w2 input = %q", got)
	}

	r.Close("w1")
	waited := make(chan struct{})
	go func() {
		r.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked behind a stalled write")
	}
	if len(stalled.GetInput()) != 0 {
		t.Errorf("stalled channel recorded %q", stalled.GetInput())
	}
}

func TestRouteUnencodableKey(t *testing.T) {
	r := newRegistry(t)
	ch := open(t, r, "w1")
	id, err := r.Route(context.Background(), input.Key{}, input.Modifiers{})
	if err != nil || id != "w1" {
		t.Errorf("Route = %q, %v", id, err)
	}
	if len(ch.GetInputHistory()) != 0 {
		t.Error("nothing should be sent for an unencodable key")
	}
}

func TestRouteWithoutTarget(t *testing.T) {
	r := newRegistry(t)
	id, err := r.Route(context.Background(), input.Key{Text: "x"}, input.Modifiers{})
	if id != "" || err != nil {
		t.Errorf("Route = %q, %v", id, err)
	}
}

func TestFail(t *testing.T) {
	r := newRegistry(t)
	if err := r.Add(terminal.NewWindow("w1", "", 24, 80, 0)); err != nil {
		t.Fatal(err)
	}
	r.Fail("w1", "unreachable", "Serveur introuvable")
	r.Fail("ghost", "x", "y")
	if got := r.Get("w1").Failure(); got != "unreachable" {
		t.Errorf("Failure = %q", got)
	}
}

func TestIDsKeepInsertionOrder(t *testing.T) {
	r := newRegistry(t)
	for _, id := range []string{"c", "a", "b"} {
		open(t, r, id)
	}
	r.Close("a")
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != "c" || ids[1] != "b" {
		t.Errorf("IDs = %v", ids)
	}
	ws := r.Windows()
	if len(ws) != 2 || ws[0].ID != "c" {
		t.Errorf("Windows order wrong")
	}
	if r.OpenCount() != 2 {
		t.Errorf("OpenCount = %d", r.OpenCount())
	}
}

func TestCloseAll(t *testing.T) {
	r := newRegistry(t)
	var chans []*testutil.FakeChannel
	for i := range 4 {
		chans = append(chans, open(t, r, fmt.Sprintf("w%d", i)))
	}
	r.CloseAll()
	r.Wait()
	for _, ch := range chans {
		if !ch.IsClosed() {
			t.Errorf("%s not closed", ch.ID)
		}
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d", r.Len())
	}
}

// Closing one of four windows leaves the other three fully usable.
func TestCloseOneOfFour(t *testing.T) {
	r := newRegistry(t)
	chans := map[string]*testutil.FakeChannel{}
	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("w%d", i)
		chans[id] = open(t, r, id)
	}

	r.Close("w2")
	waitClosed(t, chans["w2"])

	ctx := context.Background()
	for _, id := range []string{"w1", "w3", "w4"} {
		if err := r.Send(ctx, id, []byte("pwd\r")); err != nil {
			t.Errorf("Send(%s): %v", id, err)
		}
		if !r.Feed(id, []byte("/home/alice")) {
			t.Errorf("Feed(%s) dropped", id)
		}
		if got := chans[id].WaitForInput("pwd\r", time.Second); got != "pwd\r" {
			t.Errorf("%s input = %q", id, got)
		}
		if got := r.Get(id).Snapshot().Lines()[0]; got != "/home/alice" {
			t.Errorf("%s line 0 = %q", id, got)
		}
	}
}

func TestConcurrentFeedAndClose(t *testing.T) {
	r := newRegistry(t)
	for i := range 8 {
		open(t, r, fmt.Sprintf("w%d", i))
	}

	var wg sync.WaitGroup
	for i := range 8 {
		id := fmt.Sprintf("w%d", i)
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 100 {
				r.Feed(id, []byte("data "))
				_ = r.Send(context.Background(), id, []byte("k"))
			}
		}()
		go func() {
			defer wg.Done()
			r.Close(id)
		}()
	}
	wg.Wait()
	r.Wait()
	if r.Len() != 0 {
		t.Errorf("Len = %d", r.Len())
	}
}
