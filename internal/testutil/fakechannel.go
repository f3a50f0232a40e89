// Package testutil provides test doubles for the transport: a fake channel
// that records input, a fake session that hands them out, and helpers for
// building terminal output.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/olivierchoquet/rustty/internal/sshclient"
	"github.com/olivierchoquet/rustty/internal/terminal"
)

// ErrFakeClosed is returned by a FakeChannel used after Close.
var ErrFakeClosed = errors.New("fake channel closed")

// FakeChannel records what is sent to it and replays output through the
// callbacks it was opened with.
type FakeChannel struct {
	ID string

	mu           sync.Mutex
	input        []byte
	inputHistory []string
	closeCount   int
	sendErr      error
	closeErr     error
	stalled      bool
	cb           sshclient.Callbacks

	closedOnce sync.Once
	closed     chan struct{}
}

// NewFakeChannel creates an open fake channel for window id.
func NewFakeChannel(id string) *FakeChannel {
	return &FakeChannel{ID: id, closed: make(chan struct{})}
}

// SetSendError makes every later Send fail with err.
func (c *FakeChannel) SetSendError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErr = err
}

// StallSends makes every later Send block until Close or until its
// context is done, like a write to a peer that stopped reading.
func (c *FakeChannel) StallSends() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stalled = true
}

// SetCloseError makes Close report err.
func (c *FakeChannel) SetCloseError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeErr = err
}

// Send records p.
func (c *FakeChannel) Send(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	stalled := c.stalled
	c.mu.Unlock()
	if stalled {
		select {
		case <-c.closed:
			return ErrFakeClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closeCount > 0 {
		return ErrFakeClosed
	}
	if c.sendErr != nil {
		return c.sendErr
	}
	c.input = append(c.input, p...)
	c.inputHistory = append(c.inputHistory, string(p))
	return nil
}

// Close marks the channel closed. Every call is counted.
func (c *FakeChannel) Close() error {
	c.mu.Lock()
	c.closeCount++
	err := c.closeErr
	c.mu.Unlock()
	c.closedOnce.Do(func() { close(c.closed) })
	return err
}

// Closed is closed on the first Close.
func (c *FakeChannel) Closed() <-chan struct{} {
	return c.closed
}

// IsClosed reports whether Close was called.
func (c *FakeChannel) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount > 0
}

// CloseCount returns how many times Close was called.
func (c *FakeChannel) CloseCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCount
}

// GetInput returns everything sent so far.
func (c *FakeChannel) GetInput() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.input...)
}

// WaitForInput polls until the recorded input equals want or timeout
// passes, and returns what was recorded last.
func (c *FakeChannel) WaitForInput(want string, timeout time.Duration) string {
	deadline := time.Now().Add(timeout)
	for {
		got := string(c.GetInput())
		if got == want || !strings.HasPrefix(want, got) || time.Now().After(deadline) {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// GetInputHistory returns each Send payload in order.
func (c *FakeChannel) GetInputHistory() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.inputHistory...)
}

// ClearInput forgets recorded input.
func (c *FakeChannel) ClearInput() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.input = nil
	c.inputHistory = nil
}

// SendOutput delivers p as remote output through the Data callback.
func (c *FakeChannel) SendOutput(p string) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb.Data != nil {
		cb.Data(c.ID, []byte(p))
	}
}

// SendOutputf formats and delivers remote output.
func (c *FakeChannel) SendOutputf(format string, args ...any) {
	c.SendOutput(fmt.Sprintf(format, args...))
}

// Hangup simulates the remote ending the stream.
func (c *FakeChannel) Hangup(err error) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb.Closed != nil {
		cb.Closed(c.ID, err)
	}
}

var _ terminal.Channel = (*FakeChannel)(nil)

// FakeSession hands out FakeChannels. Opens listed in failures fail with
// the given error, indexed by open order starting at zero.
type FakeSession struct {
	mu       sync.Mutex
	channels []*FakeChannel
	opens    int
	failures map[int]error
	released int
	closed   bool
}

// NewFakeSession creates a session whose opens succeed unless listed in
// failures.
func NewFakeSession(failures map[int]error) *FakeSession {
	return &FakeSession{failures: failures}
}

// OpenChannel returns a new FakeChannel bound to the cell's window id.
func (s *FakeSession) OpenChannel(ctx context.Context, cell *sshclient.WindowCell, cb sshclient.Callbacks) (terminal.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.opens
	s.opens++
	if s.closed {
		return nil, sshclient.ErrSessionClosed
	}
	if err := s.failures[n]; err != nil {
		return nil, err
	}
	id, _ := cell.Get()
	ch := NewFakeChannel(id)
	ch.cb = cb
	s.channels = append(s.channels, ch)
	return ch, nil
}

// Channels returns the channels opened so far.
func (s *FakeSession) Channels() []*FakeChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*FakeChannel(nil), s.channels...)
}

// Channel returns the channel opened for window id, or nil.
func (s *FakeSession) Channel(id string) *FakeChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// Opens returns the number of OpenChannel calls.
func (s *FakeSession) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Release counts a released reference.
func (s *FakeSession) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released++
}

// Released returns the number of Release calls.
func (s *FakeSession) Released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// Close marks the session closed.
func (s *FakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (s *FakeSession) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
