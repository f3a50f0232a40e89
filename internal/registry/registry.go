// Package registry tracks the terminal windows of a session and routes
// output and input between them and their channels.
package registry

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/olivierchoquet/rustty/internal/input"
	"github.com/olivierchoquet/rustty/internal/terminal"
)

type entry struct {
	win      *terminal.Window
	openedAt uint64 // 0 until the channel is attached
}

// Registry maps window identifiers to windows. A window becomes routable
// when its channel is attached and stops being routable when it is closed;
// both transitions happen under the registry lock.
type Registry struct {
	logger *log.Logger

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string
	focused string
	seq     uint64

	closing sync.WaitGroup
}

// New creates an empty registry.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		logger:  logger.WithPrefix("registry"),
		entries: make(map[string]*entry),
	}
}

// Add registers a window. The window must still be Connecting.
func (r *Registry) Add(w *terminal.Window) error {
	if w.State() != terminal.StateConnecting {
		return fmt.Errorf("add window %s: state is %s", w.ID, w.State())
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[w.ID]; ok {
		return fmt.Errorf("add window %s: already registered", w.ID)
	}
	r.entries[w.ID] = &entry{win: w}
	r.order = append(r.order, w.ID)
	w.OnSendError(func(err error) {
		r.logger.Warn("send", "window", w.ID, "err", err)
	})
	return nil
}

// Attach binds a freshly opened channel to its window. It returns false
// when the window is gone or no longer Connecting; the caller must then
// close ch itself.
func (r *Registry) Attach(id string, ch terminal.Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok || !e.win.Attach(ch) {
		return false
	}
	r.seq++
	e.openedAt = r.seq
	r.logger.Debug("channel attached", "window", id)
	return true
}

// Fail shows message in a window whose connection failed. Unknown windows
// are ignored.
func (r *Registry) Fail(id, reason, message string) {
	if w := r.Get(id); w != nil {
		w.Fail(reason, message)
	}
}

// Feed delivers remote output to a window. It reports whether the output
// reached an open window; anything else is dropped silently.
func (r *Registry) Feed(id string, p []byte) bool {
	w := r.Get(id)
	if w == nil {
		return false
	}
	return w.Feed(p)
}

// Send queues input for a window's channel. Unknown windows are a no-op.
// It never waits for the network.
func (r *Registry) Send(ctx context.Context, id string, p []byte) error {
	w := r.Get(id)
	if w == nil {
		return nil
	}
	return w.SendInput(ctx, p)
}

// Route encodes a key and queues it for the target window. It returns the
// target's id, or "" when there is nothing to send to.
func (r *Registry) Route(ctx context.Context, k input.Key, mods input.Modifiers) (string, error) {
	w := r.Target()
	if w == nil {
		return "", nil
	}
	data := input.Encode(k, mods)
	if data == nil {
		return w.ID, nil
	}
	return w.ID, w.SendInput(ctx, data)
}

// Close removes a window and closes its channel in the background. It
// reports whether the window was registered. Close errors are only logged.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
		r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
		if r.focused == id {
			r.focused = ""
		}
	}
	r.mu.Unlock()
	if !ok {
		return false
	}

	ch := e.win.Close()
	if ch != nil {
		r.closing.Add(1)
		go func() {
			defer r.closing.Done()
			if err := ch.Close(); err != nil {
				r.logger.Warn("close channel", "window", id, "err", err)
			}
		}()
	}
	r.logger.Debug("window closed", "window", id)
	return true
}

// CloseAll closes every window.
func (r *Registry) CloseAll() {
	for _, id := range r.IDs() {
		r.Close(id)
	}
}

// Wait blocks until background channel closes have finished.
func (r *Registry) Wait() {
	r.closing.Wait()
}

// Focus makes id the focused window. Unknown ids clear the focus.
func (r *Registry) Focus(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; !ok {
		r.focused = ""
		return false
	}
	r.focused = id
	return true
}

// Focused returns the focused window id, or "".
func (r *Registry) Focused() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.focused
}

// Target returns the window keyboard input goes to: the focused window if
// it is open, otherwise the most recently opened window. It returns nil
// when no window is open.
func (r *Registry) Target() *terminal.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[r.focused]; ok && e.win.State() == terminal.StateChannelOpen {
		return e.win
	}
	var latest *entry
	for _, e := range r.entries {
		if e.openedAt == 0 || e.win.State() != terminal.StateChannelOpen {
			continue
		}
		if latest == nil || e.openedAt > latest.openedAt {
			latest = e
		}
	}
	if latest == nil {
		return nil
	}
	return latest.win
}

// Get returns a window, or nil.
func (r *Registry) Get(id string) *terminal.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.entries[id]; ok {
		return e.win
	}
	return nil
}

// State returns the state of a window. Unregistered windows are Closed.
func (r *Registry) State(id string) terminal.State {
	if w := r.Get(id); w != nil {
		return w.State()
	}
	return terminal.StateClosed
}

// IDs returns window ids in the order they were added.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Windows returns the windows in the order they were added.
func (r *Registry) Windows() []*terminal.Window {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*terminal.Window, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].win)
	}
	return out
}

// Len returns the number of registered windows.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// OpenCount returns the number of windows in ChannelOpen.
func (r *Registry) OpenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, e := range r.entries {
		if e.win.State() == terminal.StateChannelOpen {
			n++
		}
	}
	return n
}
