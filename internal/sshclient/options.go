package sshclient

import (
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"
)

// Defaults applied by Connect.
const (
	DefaultTimeout   = 10 * time.Second
	DefaultKeepAlive = 30 * time.Second
	DefaultTerm      = "xterm-256color"
	DefaultRows      = 24
	DefaultCols      = 80
)

type options struct {
	logger      *log.Logger
	hostKey     ssh.HostKeyCallback
	timeout     time.Duration
	keepAlive   time.Duration
	term        string
	rows, cols  int
	promptNudge bool
}

func defaultOptions() options {
	return options{
		logger:      log.Default().WithPrefix("ssh"),
		timeout:     DefaultTimeout,
		keepAlive:   DefaultKeepAlive,
		term:        DefaultTerm,
		rows:        DefaultRows,
		cols:        DefaultCols,
		promptNudge: true,
	}
}

// Option configures Connect.
type Option func(*options)

// WithLogger sets the logger used by the session and its channels.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHostKeyCallback sets the host key policy. Without it every host key
// is accepted.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(o *options) { o.hostKey = cb }
}

// WithTimeout bounds the TCP dial and the SSH handshake.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithKeepAlive sets the keepalive interval. Zero disables keepalives.
func WithKeepAlive(d time.Duration) Option {
	return func(o *options) { o.keepAlive = d }
}

// WithPty sets the terminal type and the initial PTY geometry.
func WithPty(term string, rows, cols int) Option {
	return func(o *options) {
		if term != "" {
			o.term = term
		}
		if rows > 0 && cols > 0 {
			o.rows, o.cols = rows, cols
		}
	}
}

// WithPromptNudge controls whether a lone CR is sent right after the shell
// starts, so the remote prints its prompt.
func WithPromptNudge(enabled bool) Option {
	return func(o *options) { o.promptNudge = enabled }
}
