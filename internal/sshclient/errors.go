package sshclient

import "errors"

// Error kinds returned by this package. Callers classify with errors.Is.
var (
	// ErrUnreachable reports a failure to reach the server: DNS, TCP, or a
	// handshake that failed before authentication.
	ErrUnreachable = errors.New("server unreachable")

	// ErrAuthRejected reports that the server refused every offered credential.
	ErrAuthRejected = errors.New("authentication rejected")

	// ErrChannel reports a failure while opening a channel, requesting the
	// PTY, or starting the shell.
	ErrChannel = errors.New("channel open failed")

	// ErrSessionClosed is returned when a session is used after it was
	// released or after its transport failed.
	ErrSessionClosed = errors.New("session closed")

	// ErrChannelClosed is returned by Send after Close.
	ErrChannelClosed = errors.New("channel closed")
)
