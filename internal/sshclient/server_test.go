package sshclient

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	gssh "github.com/charmbracelet/ssh"
)

const (
	testUser     = "alice"
	testPassword = "s3cret"
	waitTimeout  = 5 * time.Second
)

type testServer struct {
	srv  *gssh.Server
	port uint16

	mu   sync.Mutex
	ptys []gssh.Pty
}

// echoShell echoes its input and exits on "exit\r".
func echoShell(s gssh.Session) {
	buf := make([]byte, 1024)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			if bytes.Contains(buf[:n], []byte("exit\r")) {
				return
			}
			_, _ = s.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func startServer(t *testing.T, configure ...func(*gssh.Server)) *testServer {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ts := &testServer{port: uint16(ln.Addr().(*net.TCPAddr).Port)} //nolint:gosec
	ts.srv = &gssh.Server{
		Handler: echoShell,
		PasswordHandler: func(_ gssh.Context, password string) bool {
			return password == testPassword
		},
		PtyCallback: func(_ gssh.Context, pty gssh.Pty) bool {
			ts.mu.Lock()
			ts.ptys = append(ts.ptys, pty)
			ts.mu.Unlock()
			return true
		},
	}
	if err := ts.srv.SetOption(gssh.EmulatePty()); err != nil {
		t.Fatalf("set option: %v", err)
	}
	for _, fn := range configure {
		fn(ts.srv)
	}

	go func() { _ = ts.srv.Serve(ln) }()
	t.Cleanup(func() { _ = ts.srv.Close() })
	return ts
}

func (ts *testServer) connect(t *testing.T, opts ...Option) *Session {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	opts = append([]Option{WithKeepAlive(0)}, opts...)
	s, err := Connect(ctx, "127.0.0.1", ts.port, Credentials{Username: testUser, Password: testPassword}, opts...)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func (ts *testServer) requestedPtys() []gssh.Pty {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]gssh.Pty(nil), ts.ptys...)
}

// recorder collects channel output per window.
type recorder struct {
	mu     sync.Mutex
	data   map[string]*bytes.Buffer
	closed map[string]error
}

func newRecorder() *recorder {
	return &recorder{data: map[string]*bytes.Buffer{}, closed: map[string]error{}}
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		Data: func(id string, p []byte) {
			r.mu.Lock()
			defer r.mu.Unlock()
			buf, ok := r.data[id]
			if !ok {
				buf = &bytes.Buffer{}
				r.data[id] = buf
			}
			buf.Write(p)
		},
		Closed: func(id string, err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.closed[id] = err
		},
	}
}

func (r *recorder) output(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if buf, ok := r.data[id]; ok {
		return buf.String()
	}
	return ""
}

func (r *recorder) wasClosed(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.closed[id]
	return ok
}

// waitFor polls until cond holds or the timeout expires.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (r *recorder) waitForOutput(t *testing.T, id, want string) {
	t.Helper()
	waitFor(t, want+" on "+id, func() bool {
		return strings.Contains(r.output(id), want)
	})
}
