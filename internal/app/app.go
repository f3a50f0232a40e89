// Package app provides the rustty controller: the connection form of the
// primary window, the terminal windows opened from it, and the event loop
// that ties them to the SSH transport.
package app

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/registry"
	"github.com/olivierchoquet/rustty/internal/terminal"
	"github.com/olivierchoquet/rustty/internal/theme"
)

// Mode represents where key presses go.
type Mode int

const (
	// FormMode sends keys to the connection form of the primary window.
	FormMode Mode = iota
	// TerminalMode sends keys to the focused terminal window.
	TerminalMode
)

// eventBuffer is the capacity of the channel carrying transport events.
const eventBuffer = 256

// Options configure a Model.
type Options struct {
	Config   *config.UserConfig
	Profiles *config.ProfileStore
	Dial     Dialer
	Logger   *log.Logger

	// Password preloads the secret field, from the environment or stdin.
	Password string
	// Profile names a profile to preload the form with.
	Profile string
	// AutoConnect submits the form from Init.
	AutoConnect bool
	// SaveConfig persists the last used target. Nil disables saving.
	SaveConfig func(*config.UserConfig) error
}

// connection tracks one submit: the windows it created and the session they
// share until every channel open has finished.
type connection struct {
	id      int
	addr    string
	sess    Session
	windows []string
	pending int
	focused bool
}

// Model is the application state. Transport goroutines never touch it;
// they post messages on events, which Update consumes one at a time.
type Model struct {
	cfg      *config.UserConfig
	keys     *config.KeybindRegistry
	profiles *config.ProfileStore
	dial     Dialer
	save     func(*config.UserConfig) error
	logger   *log.Logger
	reg      *registry.Registry

	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg
	done   chan struct{}

	form        *connectForm
	Mode        Mode
	conns       map[int]*connection
	sessions    []Session
	nextConn    int
	opened      int
	autoConnect bool
	quitting    bool

	// Output and hangups that reached the loop before ChannelOpenedMsg.
	pendingData  map[string][][]byte
	pendingClose map[string]error

	// Lines scrolled back per window.
	scroll map[string]int

	Width    int
	Height   int
	ShowHelp bool
	help     help.Model

	idleFrames        int
	renderSkipped     bool
	cachedViewContent string
}

// New creates the controller. Missing options fall back to defaults: the
// default config, the SSH dialer and the default logger.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	dial := opts.Dial
	if dial == nil {
		dial = SSHDialer()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("app")

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		cfg:          cfg,
		keys:         config.NewKeybindRegistry(cfg),
		profiles:     opts.Profiles,
		dial:         dial,
		save:         opts.SaveConfig,
		logger:       logger,
		reg:          registry.New(logger),
		ctx:          ctx,
		cancel:       cancel,
		events:       make(chan tea.Msg, eventBuffer),
		done:         make(chan struct{}),
		conns:        make(map[int]*connection),
		pendingData:  make(map[string][][]byte),
		pendingClose: make(map[string]error),
		scroll:       make(map[string]int),
		autoConnect:  opts.AutoConnect,
		help:         help.New(),
	}
	m.form = newConnectForm(cfg, opts.Profiles, opts.Password)
	if opts.Profile != "" {
		if err := m.form.loadProfile(opts.Profile); err != nil {
			m.logger.Warn("profile", "name", opts.Profile, "err", err)
			m.form.err = err.Error()
		}
	}
	return m
}

// Registry exposes the window registry.
func (m *Model) Registry() *registry.Registry {
	return m.reg
}

// Init starts the render tick and the event listener, focuses the form and
// submits it when auto-connect is set.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		TickCmd(),
		ListenForEvents(m.events, m.done),
		m.form.focusCmd(),
	}
	if m.autoConnect {
		cmds = append(cmds, m.submit())
	}
	return tea.Batch(cmds...)
}

// dispatch posts msg to the event loop. It gives up once the model quit.
func (m *Model) dispatch(msg tea.Msg) {
	select {
	case m.events <- msg:
	case <-m.done:
	}
}

// submit validates the form, registers the new windows in Connecting and
// returns the command that connects.
func (m *Model) submit() tea.Cmd {
	t, err := m.form.target()
	if err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.form.err = ""
	m.rememberTarget(t)

	conn := &connection{
		id:   m.nextConn,
		addr: net.JoinHostPort(t.Host, strconv.Itoa(int(t.Port))),
	}
	m.nextConn++
	for range t.TerminalCount {
		m.opened++
		w := terminal.NewWindow(uuid.NewString(), fmt.Sprintf("Terminal %d", m.opened),
			m.cfg.Terminal.Rows, m.cfg.Terminal.Cols, m.cfg.Terminal.ScrollbackLines)
		w.Terminal.SetDefaultForeground(theme.TerminalFg())
		w.Terminal.SetLogger(m.logger.WithPrefix("vt"))
		if err := m.reg.Add(w); err != nil {
			m.logger.Error("add window", "err", err)
			continue
		}
		conn.windows = append(conn.windows, w.ID)
	}
	m.conns[conn.id] = conn
	m.logger.Info("connecting", "addr", conn.addr, "user", t.Username, "windows", len(conn.windows))
	return connectCmd(m.ctx, m.dial, conn.id, t)
}

// rememberTarget records the submitted target in the user config.
func (m *Model) rememberTarget(t Target) {
	c := &m.cfg.Connection
	if c.LastHost == t.Host && c.LastPort == int(t.Port) && c.LastUsername == t.Username {
		return
	}
	c.LastHost, c.LastPort, c.LastUsername = t.Host, int(t.Port), t.Username
	if m.save == nil {
		return
	}
	if err := m.save(m.cfg); err != nil {
		m.logger.Warn("save config", "err", err)
	}
}

// releaseConn gives back the connect caller's session reference once no
// channel open is outstanding.
func (m *Model) releaseConn(conn *connection) {
	if conn.pending > 0 {
		return
	}
	if conn.sess != nil {
		conn.sess.Release()
	}
	delete(m.conns, conn.id)
}

// quit closes every window and stops the program.
func (m *Model) quit() tea.Cmd {
	if m.quitting {
		return tea.Quit
	}
	m.quitting = true
	m.logger.Info("quitting", "windows", m.reg.Len())
	m.cancel()
	m.reg.CloseAll()
	close(m.done)
	return tea.Quit
}

// Cleanup waits for channel closes started by the registry and closes every
// session. It is called once the program has exited.
func (m *Model) Cleanup() {
	if !m.quitting {
		m.quitting = true
		m.cancel()
		m.reg.CloseAll()
		close(m.done)
	}
	m.reg.Wait()
	for _, s := range m.sessions {
		if err := s.Close(); err != nil {
			m.logger.Warn("close session", "err", err)
		}
	}
	m.sessions = nil
}

// ErrorText is the message injected into a window whose connection failed.
func ErrorText(err error) string {
	return fmt.Sprintf("\r\nErreur de connexion: %s\r\n", errorReason(err))
}
