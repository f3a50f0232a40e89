package sshclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
)

const readBufferSize = 32 * 1024

// Callbacks receive the events of one channel. Both run on the channel's
// reader goroutine, in order.
type Callbacks struct {
	// Data receives each chunk of shell output tagged with the window id.
	// The slice is owned by the callee.
	Data func(id string, p []byte)
	// Closed is called once when the remote side ends the stream. It is
	// not called after a local Close.
	Closed func(id string, err error)
}

// Channel is one PTY-backed shell on a Session. Sends are serialized by
// the write mutex. Close does not take it: closing the session unblocks a
// write stalled on the network, which then fails with ErrChannelClosed.
type Channel struct {
	sess   *Session
	ssh    *ssh.Session
	stdin  io.WriteCloser
	cell   *WindowCell
	logger *log.Logger

	writeMu sync.Mutex
	closed  atomic.Bool

	closeOnce sync.Once
	closeErr  error
	readDone  chan struct{}
}

var ptyModes = ssh.TerminalModes{
	ssh.ECHO:          1,
	ssh.ICRNL:         1,
	ssh.ONLCR:         1,
	ssh.TTY_OP_ISPEED: 14400,
	ssh.TTY_OP_OSPEED: 14400,
}

// OpenChannel opens a session channel, requests a PTY and starts the login
// shell. It either returns a running channel or releases everything it
// acquired. Errors wrap ErrChannel, or ErrSessionClosed when the session
// can no longer open channels.
func (s *Session) OpenChannel(ctx context.Context, cell *WindowCell, cb Callbacks) (*Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("open channel: %w: %w", ErrChannel, err)
	}
	if err := s.acquire(); err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	ch, err := s.openChannel(cell, cb)
	if err != nil {
		s.Release()
		return nil, err
	}
	return ch, nil
}

func (s *Session) openChannel(cell *WindowCell, cb Callbacks) (*Channel, error) {
	id, _ := cell.Get()
	logger := s.logger.With("window", id)

	sess, err := s.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w: new session: %w", ErrChannel, err)
	}
	fail := func(step string, err error) (*Channel, error) {
		_ = sess.Close()
		return nil, fmt.Errorf("open channel: %w: %s: %w", ErrChannel, step, err)
	}

	if err := sess.RequestPty(s.opts.term, s.opts.rows, s.opts.cols, ptyModes); err != nil {
		return fail("request pty", err)
	}
	stdin, err := sess.StdinPipe()
	if err != nil {
		return fail("stdin pipe", err)
	}
	stdout, err := sess.StdoutPipe()
	if err != nil {
		return fail("stdout pipe", err)
	}
	if err := sess.Shell(); err != nil {
		return fail("start shell", err)
	}

	c := &Channel{
		sess:     s,
		ssh:      sess,
		stdin:    stdin,
		cell:     cell,
		logger:   logger,
		readDone: make(chan struct{}),
	}
	logger.Debug("channel open", "term", s.opts.term, "rows", s.opts.rows, "cols", s.opts.cols)

	go c.readLoop(stdout, cb)

	if s.opts.promptNudge {
		if _, err := stdin.Write([]byte{'\r'}); err != nil {
			logger.Debug("prompt nudge", "err", err)
		}
	}
	return c, nil
}

func (c *Channel) readLoop(r io.Reader, cb Callbacks) {
	defer close(c.readDone)
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.Read(buf)
		if n > 0 && cb.Data != nil {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if id, ok := c.cell.Get(); ok {
				cb.Data(id, chunk)
			} else {
				c.logger.Debug("dropping output for unbound channel", "bytes", n)
			}
		}
		if err != nil {
			if c.isClosed() {
				return
			}
			if !errors.Is(err, io.EOF) {
				c.logger.Warn("read", "err", err)
			}
			if cb.Closed != nil {
				id, _ := c.cell.Get()
				cb.Closed(id, err)
			}
			return
		}
	}
}

// ID returns the window identifier the channel is bound to.
func (c *Channel) ID() string {
	id, _ := c.cell.Get()
	return id
}

// Done is closed when the reader goroutine has exited.
func (c *Channel) Done() <-chan struct{} {
	return c.readDone
}

func (c *Channel) isClosed() bool {
	return c.closed.Load()
}

// Send writes p to the shell's input.
func (c *Channel) Send(ctx context.Context, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed.Load() {
		return ErrChannelClosed
	}
	if _, err := c.stdin.Write(p); err != nil {
		if c.closed.Load() {
			return ErrChannelClosed
		}
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// Close ends the shell and releases the channel's session reference. It is
// idempotent; only the first call reports an error, which is also logged.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		var errs []error
		if err := c.ssh.Close(); err != nil && !errors.Is(err, io.EOF) {
			errs = append(errs, err)
		}

		c.sess.Release()
		if err := errors.Join(errs...); err != nil {
			c.closeErr = fmt.Errorf("close channel: %w", err)
			c.logger.Warn("close channel", "err", err)
			return
		}
		c.logger.Debug("channel closed")
	})
	return c.closeErr
}
