package app

import (
	"context"

	"github.com/olivierchoquet/rustty/internal/sshclient"
	"github.com/olivierchoquet/rustty/internal/terminal"
)

// Target is what the connection form submits.
type Target struct {
	Host          string
	Port          uint16
	Username      string
	Password      string
	TerminalCount int
}

// Session is the shared connection the terminal windows of one submit open
// their channels on. The caller of Dialer holds one reference and gives it
// back with Release.
type Session interface {
	OpenChannel(ctx context.Context, cell *sshclient.WindowCell, cb sshclient.Callbacks) (terminal.Channel, error)
	Release()
	Close() error
}

// Dialer connects and authenticates to a target.
type Dialer func(ctx context.Context, t Target) (Session, error)

// SSHDialer returns a Dialer backed by sshclient.Connect.
func SSHDialer(opts ...sshclient.Option) Dialer {
	return func(ctx context.Context, t Target) (Session, error) {
		creds := sshclient.Credentials{Username: t.Username, Password: t.Password}
		s, err := sshclient.Connect(ctx, t.Host, t.Port, creds, opts...)
		if err != nil {
			return nil, err
		}
		return sshSession{s}, nil
	}
}

type sshSession struct {
	s *sshclient.Session
}

func (a sshSession) OpenChannel(ctx context.Context, cell *sshclient.WindowCell, cb sshclient.Callbacks) (terminal.Channel, error) {
	ch, err := a.s.OpenChannel(ctx, cell, cb)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (a sshSession) Release()     { a.s.Release() }
func (a sshSession) Close() error { return a.s.Close() }
