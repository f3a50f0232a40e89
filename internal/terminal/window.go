// Package terminal provides the terminal window: an emulator bound to the
// remote channel that feeds it.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/olivierchoquet/rustty/internal/vt"
)

// State is the lifecycle state of a window. It only moves forward:
// Connecting, then ChannelOpen, then Closed. A window may also go straight
// from Connecting to Closed.
type State int32

// Window states.
const (
	StateConnecting State = iota
	StateChannelOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateChannelOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// ErrNotOpen is returned by SendInput when the window has no open channel.
var ErrNotOpen = errors.New("window has no open channel")

// ErrInputBacklog is returned by SendInput when the writer has fallen too
// far behind. The input is dropped.
var ErrInputBacklog = errors.New("window input backlog full")

// inputQueueSize bounds the writes queued per window while the channel is
// busy.
const inputQueueSize = 256

type pendingInput struct {
	ctx context.Context
	p   []byte
}

// Channel is the remote end of a window.
type Channel interface {
	Send(ctx context.Context, p []byte) error
	Close() error
}

// Window is one terminal tile. The emulator exists from creation so that
// connection errors can be shown; the channel is attached once, when the
// remote shell is ready.
type Window struct {
	ID       string
	Title    string
	Terminal *vt.Emulator

	// HasNewOutput is set by Feed and cleared by the renderer.
	HasNewOutput atomic.Bool

	mu      sync.RWMutex
	state   State
	channel Channel
	failure string
	inbox   chan pendingInput
	onError func(error)
}

// NewWindow creates a window in the Connecting state with an emulator of
// rows × cols cells.
func NewWindow(id, title string, rows, cols, scrollback int) *Window {
	return &Window{
		ID:       id,
		Title:    title,
		Terminal: vt.NewEmulator(rows, cols, scrollback),
	}
}

// OnSendError sets the function told about failed writes. It runs on the
// window's writer goroutine.
func (w *Window) OnSendError(fn func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// State returns the current state.
func (w *Window) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Failure returns the reason passed to Fail, if any.
func (w *Window) Failure() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.failure
}

// Attach binds ch to the window and moves it to ChannelOpen. It fails
// unless the window is still Connecting; the caller then owns ch.
func (w *Window) Attach(ch Channel) bool {
	if ch == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateConnecting {
		return false
	}
	w.channel = ch
	w.state = StateChannelOpen
	w.inbox = make(chan pendingInput, inputQueueSize)
	go w.writeLoop(ch, w.inbox)
	return true
}

// writeLoop owns the write side of ch. It exits when the inbox is closed;
// input still queued at Close is dropped.
func (w *Window) writeLoop(ch Channel, inbox <-chan pendingInput) {
	for in := range inbox {
		if w.State() != StateChannelOpen {
			continue
		}
		err := ch.Send(in.ctx, in.p)
		if err != nil && w.State() == StateChannelOpen {
			w.mu.RLock()
			report := w.onError
			w.mu.RUnlock()
			if report != nil {
				report(fmt.Errorf("window %s: %w", w.ID, err))
			}
		}
	}
}

// Fail records why the window will never open and writes message into its
// terminal. The window stays Connecting until closed.
func (w *Window) Fail(reason, message string) {
	w.mu.Lock()
	if w.state != StateConnecting {
		w.mu.Unlock()
		return
	}
	w.failure = reason
	w.mu.Unlock()
	w.WriteOutput([]byte(message))
}

// Feed writes remote output into the terminal. Output for a window that is
// not open is dropped.
func (w *Window) Feed(p []byte) bool {
	if w.State() != StateChannelOpen {
		return false
	}
	w.WriteOutput(p)
	return true
}

// WriteOutput writes p into the terminal regardless of state.
func (w *Window) WriteOutput(p []byte) {
	w.Terminal.Feed(p)
	w.HasNewOutput.Store(true)
}

// SendInput queues input for the remote shell and returns without waiting
// for the write. Writes reach the channel in order; failures go to the
// OnSendError function.
func (w *Window) SendInput(ctx context.Context, input []byte) error {
	if len(input) == 0 {
		return nil
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.state != StateChannelOpen || w.inbox == nil {
		return ErrNotOpen
	}
	select {
	case w.inbox <- pendingInput{ctx: ctx, p: append([]byte(nil), input...)}:
		return nil
	default:
		return fmt.Errorf("window %s: %w", w.ID, ErrInputBacklog)
	}
}


// Close moves the window to Closed and detaches its channel, which the
// caller must close. The channel is nil if none was attached or the window
// was already closed.
func (w *Window) Close() Channel {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return nil
	}
	ch := w.channel
	w.channel = nil
	w.state = StateClosed
	if w.inbox != nil {
		close(w.inbox)
		w.inbox = nil
	}
	_ = w.Terminal.Close()
	return ch
}

// Snapshot returns the current screen of the window.
func (w *Window) Snapshot() vt.Snapshot {
	return w.Terminal.Snapshot()
}

// DisplayTitle returns the title set by the remote, or the window title.
func (w *Window) DisplayTitle() string {
	if t := w.Terminal.Title(); t != "" {
		return t
	}
	return w.Title
}
