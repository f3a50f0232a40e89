package sshclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
)

// Credentials authenticate a session. They are used once during Connect
// and never stored.
type Credentials struct {
	Username string
	Password string
	// PrivateKey is an optional PEM key tried before the password.
	PrivateKey []byte
}

// Session is an authenticated SSH connection shared by the channels opened
// on it. It is reference counted: Connect returns it holding one reference
// for the caller, and every open channel holds another. The connection is
// closed when the count drops to zero.
type Session struct {
	client *ssh.Client
	addr   string
	opts   options
	logger *log.Logger

	mu     sync.Mutex
	refs   int
	closed bool
	err    error // fatal transport error

	done chan struct{}
}

// Connect dials host:port and authenticates. Errors wrap ErrUnreachable or
// ErrAuthRejected.
func Connect(ctx context.Context, host string, port uint16, creds Credentials, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if host == "" {
		return nil, fmt.Errorf("connect: %w: empty host", ErrUnreachable)
	}
	if creds.Username == "" {
		return nil, fmt.Errorf("connect: %w: empty username", ErrAuthRejected)
	}

	auth, err := authMethods(creds)
	if err != nil {
		return nil, fmt.Errorf("connect: %w: %w", ErrAuthRejected, err)
	}

	hostKey := o.hostKey
	if hostKey == nil {
		hostKey = ssh.InsecureIgnoreHostKey() //nolint:gosec
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            auth,
		HostKeyCallback: hostKey,
		Timeout:         o.timeout,
	}

	dialer := net.Dialer{Timeout: o.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w: %w", addr, ErrUnreachable, err)
	}

	// The handshake has no context of its own; closing the connection
	// unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	_ = conn.SetDeadline(time.Now().Add(o.timeout))

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		_ = conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("connect %s: %w: %w", addr, ErrUnreachable, ctxErr)
		}
		return nil, fmt.Errorf("connect %s: %w", addr, classifyHandshake(err))
	}
	_ = conn.SetDeadline(time.Time{})

	s := &Session{
		client: ssh.NewClient(clientConn, chans, reqs),
		addr:   addr,
		opts:   o,
		logger: o.logger.With("addr", addr),
		refs:   1,
		done:   make(chan struct{}),
	}
	s.logger.Info("connected", "user", creds.Username)

	go s.watch()
	if o.keepAlive > 0 {
		go s.keepAlive(o.keepAlive)
	}
	return s, nil
}

func authMethods(creds Credentials) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if len(creds.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(creds.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("parse private key: %w", err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if creds.Password != "" {
		password := creds.Password
		methods = append(methods,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if len(methods) == 0 {
		return nil, errors.New("no credentials")
	}
	return methods, nil
}

// classifyHandshake maps a handshake error to ErrAuthRejected when the
// server refused every method, and to ErrUnreachable otherwise.
func classifyHandshake(err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w: %w", ErrAuthRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrUnreachable, err)
}

// Addr returns the host:port the session is connected to.
func (s *Session) Addr() string {
	return s.addr
}

// Err returns the fatal transport error, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the underlying connection is gone.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Refs returns the current number of references.
func (s *Session) Refs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refs
}

// acquire takes a reference for a channel being opened.
func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.err != nil:
		return fmt.Errorf("%w: %w", ErrSessionClosed, s.err)
	case s.closed:
		return ErrSessionClosed
	}
	s.refs++
	return nil
}

// Release drops one reference. The connection closes when none remain.
func (s *Session) Release() {
	s.mu.Lock()
	if s.refs == 0 {
		s.mu.Unlock()
		return
	}
	s.refs--
	last := s.refs == 0 && !s.closed
	if last {
		s.closed = true
	}
	s.mu.Unlock()

	if last {
		s.logger.Debug("last reference released, closing connection")
		if err := s.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Warn("close connection", "err", err)
		}
	}
}

// Close closes the connection regardless of outstanding references.
// Channels still open see their reads fail.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	if err := s.client.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}

// fail records a fatal transport error. Later opens fail fast.
func (s *Session) fail(err error) {
	if err == nil {
		err = errors.New("connection lost")
	}
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

func (s *Session) watch() {
	err := s.client.Wait()
	s.mu.Lock()
	deliberate := s.closed
	s.mu.Unlock()
	if !deliberate {
		s.logger.Warn("connection lost", "err", err)
	}
	s.fail(err)
	close(s.done)
}

func (s *Session) keepAlive(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if _, _, err := s.client.SendRequest("keepalive@openssh.com", true, nil); err != nil {
				s.logger.Warn("keepalive failed", "err", err)
				s.fail(fmt.Errorf("keepalive: %w", err))
				_ = s.client.Close()
				return
			}
		}
	}
}
