package app

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/input"
	"github.com/olivierchoquet/rustty/internal/sshclient"
	"github.com/olivierchoquet/rustty/internal/terminal"
)

// TickerMsg represents a periodic tick event for updating the UI.
type TickerMsg time.Time

// ConnectedMsg reports that the session of connection Conn is up.
type ConnectedMsg struct {
	Conn    int
	Session Session
}

// ConnectFailedMsg reports that connection Conn could not be established.
type ConnectFailedMsg struct {
	Conn int
	Err  error
}

// ChannelOpenedMsg carries the running channel of window ID.
type ChannelOpenedMsg struct {
	Conn    int
	ID      string
	Channel terminal.Channel
}

// ChannelFailedMsg reports that the channel of window ID could not be opened.
type ChannelFailedMsg struct {
	Conn int
	ID   string
	Err  error
}

// DataMsg is a chunk of remote output for window ID.
type DataMsg struct {
	ID   string
	Data []byte
}

// ChannelClosedMsg reports that the remote ended the stream of window ID.
type ChannelClosedMsg struct {
	ID  string
	Err error
}

// channelCloseMsg reports the result of closing a channel nobody owns.
type channelCloseMsg struct {
	Err error
}

// ListenForEvents creates a command that waits for the next transport
// event. It must be re-armed after each event it delivers.
func ListenForEvents(events <-chan tea.Msg, done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-events:
			return msg
		case <-done:
			return nil
		}
	}
}

// TickCmd creates a command that generates tick messages at NormalFPS.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second/config.NormalFPS, func(t time.Time) tea.Msg {
		return TickerMsg(t)
	})
}

// IdleTickCmd creates a command that generates tick messages at IdleFPS.
// Used when no window received output for a while.
func IdleTickCmd() tea.Cmd {
	return tea.Tick(time.Second/config.IdleFPS, func(t time.Time) tea.Msg {
		return TickerMsg(t)
	})
}

func connectCmd(ctx context.Context, dial Dialer, conn int, t Target) tea.Cmd {
	return func() tea.Msg {
		sess, err := dial(ctx, t)
		if err != nil {
			return ConnectFailedMsg{Conn: conn, Err: err}
		}
		if ctx.Err() != nil {
			_ = sess.Close()
			return nil
		}
		return ConnectedMsg{Conn: conn, Session: sess}
	}
}

func (m *Model) openChannelCmd(conn int, sess Session, id string) tea.Cmd {
	ctx := m.ctx
	cb := sshclient.Callbacks{
		Data: func(id string, p []byte) {
			m.dispatch(DataMsg{ID: id, Data: p})
		},
		Closed: func(id string, err error) {
			m.dispatch(ChannelClosedMsg{ID: id, Err: err})
		},
	}
	return func() tea.Msg {
		ch, err := sess.OpenChannel(ctx, sshclient.NewWindowCell(id), cb)
		if err != nil {
			return ChannelFailedMsg{Conn: conn, ID: id, Err: err}
		}
		return ChannelOpenedMsg{Conn: conn, ID: id, Channel: ch}
	}
}

func closeChannelCmd(ch terminal.Channel) tea.Cmd {
	return func() tea.Msg {
		return channelCloseMsg{Err: ch.Close()}
	}
}

// errorReason is the user-facing reason for a connection failure.
func errorReason(err error) string {
	switch {
	case errors.Is(err, sshclient.ErrAuthRejected):
		return "Échec d'authentification"
	case errors.Is(err, sshclient.ErrUnreachable):
		return "Serveur introuvable"
	default:
		return err.Error()
	}
}

// Update handles all incoming messages and updates the application state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Any non-tick message invalidates the render cache
	if _, isTick := msg.(TickerMsg); !isTick {
		m.renderSkipped = false
	}

	switch msg := msg.(type) {
	case TickerMsg:
		if m.quitting {
			return m, nil
		}
		hasChanges := m.markNewOutput()
		nextTick := TickCmd()
		if hasChanges {
			m.idleFrames = 0
		} else {
			m.idleFrames++
			if m.idleFrames >= config.IdleThresholdFrames {
				nextTick = IdleTickCmd()
			}
		}
		if !hasChanges && m.reg.Len() > 0 {
			m.renderSkipped = true
		}
		return m, nextTick

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.SetWidth(msg.Width)
		return m, nil

	case tea.KeyPressMsg:
		return m, m.handleKeyPress(msg)

	case tea.PasteMsg:
		if m.Mode == FormMode {
			return m, m.form.update(msg)
		}
		m.sendToFocused([]byte(msg.Content))
		return m, nil

	case ConnectedMsg:
		return m, m.handleConnected(msg)

	case ConnectFailedMsg:
		m.handleConnectFailed(msg)
		return m, nil

	case ChannelOpenedMsg:
		return m, m.handleChannelOpened(msg)

	case ChannelFailedMsg:
		m.handleChannelFailed(msg)
		return m, nil

	case DataMsg:
		m.handleData(msg)
		return m, ListenForEvents(m.events, m.done)

	case ChannelClosedMsg:
		return m, tea.Batch(m.handleChannelClosed(msg), ListenForEvents(m.events, m.done))

	case channelCloseMsg:
		if msg.Err != nil {
			m.logger.Warn("close channel", "err", msg.Err)
		}
		return m, nil
	}

	if m.Mode == FormMode {
		return m, m.form.update(msg)
	}
	return m, nil
}

func (m *Model) handleConnected(msg ConnectedMsg) tea.Cmd {
	conn := m.conns[msg.Conn]
	if conn == nil || m.quitting {
		_ = msg.Session.Close()
		return nil
	}
	conn.sess = msg.Session
	m.sessions = append(m.sessions, msg.Session)
	m.logger.Info("connected", "addr", conn.addr)

	var cmds []tea.Cmd
	for _, id := range conn.windows {
		// Windows closed while connecting get no channel.
		if m.reg.State(id) != terminal.StateConnecting {
			continue
		}
		conn.pending++
		cmds = append(cmds, m.openChannelCmd(conn.id, conn.sess, id))
	}
	m.releaseConn(conn)
	return tea.Batch(cmds...)
}

func (m *Model) handleConnectFailed(msg ConnectFailedMsg) {
	conn := m.conns[msg.Conn]
	if conn == nil {
		return
	}
	delete(m.conns, conn.id)
	m.logger.Warn("connect failed", "addr", conn.addr, "err", msg.Err)

	reason, text := errorReason(msg.Err), ErrorText(msg.Err)
	for _, id := range conn.windows {
		m.reg.Fail(id, reason, text)
	}
	m.form.err = "Erreur de connexion: " + reason
}

func (m *Model) handleChannelOpened(msg ChannelOpenedMsg) tea.Cmd {
	conn := m.conns[msg.Conn]
	if conn != nil {
		conn.pending--
		defer m.releaseConn(conn)
	}

	if m.quitting || !m.reg.Attach(msg.ID, msg.Channel) {
		m.logger.Debug("window gone before its channel opened", "window", msg.ID)
		delete(m.pendingData, msg.ID)
		delete(m.pendingClose, msg.ID)
		return closeChannelCmd(msg.Channel)
	}

	for _, p := range m.pendingData[msg.ID] {
		m.reg.Feed(msg.ID, p)
	}
	delete(m.pendingData, msg.ID)

	if err, ok := m.pendingClose[msg.ID]; ok {
		delete(m.pendingClose, msg.ID)
		m.logger.Info("remote closed", "window", msg.ID, "err", err)
		return m.closeWindow(msg.ID)
	}

	if conn != nil && !conn.focused && m.Mode == FormMode {
		conn.focused = true
		m.focusWindow(msg.ID)
	}
	return nil
}

func (m *Model) handleChannelFailed(msg ChannelFailedMsg) {
	if conn := m.conns[msg.Conn]; conn != nil {
		conn.pending--
		m.releaseConn(conn)
	}
	delete(m.pendingData, msg.ID)
	delete(m.pendingClose, msg.ID)
	m.logger.Warn("open channel failed", "window", msg.ID, "err", msg.Err)
	m.reg.Fail(msg.ID, errorReason(msg.Err), ErrorText(msg.Err))
}

func (m *Model) handleData(msg DataMsg) {
	switch m.reg.State(msg.ID) {
	case terminal.StateChannelOpen:
		m.reg.Feed(msg.ID, msg.Data)
	case terminal.StateConnecting:
		// The reader starts before ChannelOpenedMsg reaches the loop.
		if m.reg.Get(msg.ID) != nil {
			m.pendingData[msg.ID] = append(m.pendingData[msg.ID], msg.Data)
		}
	}
}

func (m *Model) handleChannelClosed(msg ChannelClosedMsg) tea.Cmd {
	switch m.reg.State(msg.ID) {
	case terminal.StateChannelOpen:
		m.logger.Info("remote closed", "window", msg.ID, "err", msg.Err)
		return m.closeWindow(msg.ID)
	case terminal.StateConnecting:
		if m.reg.Get(msg.ID) != nil {
			m.pendingClose[msg.ID] = msg.Err
		}
	}
	return nil
}

func (m *Model) markNewOutput() bool {
	changed := false
	for _, w := range m.reg.Windows() {
		if w.HasNewOutput.Swap(false) {
			changed = true
		}
	}
	return changed
}

// handleKeyPress applies window bindings first, then hands the key to the
// form or to the focused terminal.
func (m *Model) handleKeyPress(msg tea.KeyPressMsg) tea.Cmd {
	switch m.keys.GetAction(msg.Keystroke()) {
	case config.ActionQuit:
		return m.quit()
	case config.ActionCloseWindow:
		if m.Mode == FormMode {
			return m.quit()
		}
		return m.closeWindow(m.reg.Focused())
	case config.ActionNextWindow:
		return m.cycleFocus(1)
	case config.ActionPrevWindow:
		return m.cycleFocus(-1)
	case config.ActionToggleHelp:
		m.ShowHelp = !m.ShowHelp
		return nil
	case config.ActionScrollUp:
		m.scrollFocused(m.pageSize())
		return nil
	case config.ActionScrollDown:
		m.scrollFocused(-m.pageSize())
		return nil
	}

	if m.ShowHelp && msg.Keystroke() == "esc" {
		m.ShowHelp = false
		return nil
	}

	if m.Mode == FormMode {
		return m.updateForm(msg)
	}

	// A focused window that never opened swallows input.
	if w := m.reg.Get(m.reg.Focused()); w != nil && w.State() != terminal.StateChannelOpen {
		return nil
	}
	k, mods := input.FromKeyPress(msg)
	if w := m.reg.Target(); w != nil {
		delete(m.scroll, w.ID)
	}
	id, err := m.reg.Route(m.ctx, k, mods)
	if err != nil {
		m.logger.Warn("send", "window", id, "err", err)
	}
	return nil
}

func (m *Model) updateForm(msg tea.KeyPressMsg) tea.Cmd {
	switch m.keys.GetFormAction(msg.Keystroke()) {
	case config.ActionNextField:
		return m.form.move(1)
	case config.ActionPrevField:
		return m.form.move(-1)
	case config.ActionSubmit:
		return m.submit()
	}
	return m.form.update(msg)
}

func (m *Model) sendToFocused(p []byte) {
	w := m.reg.Target()
	if w == nil {
		return
	}
	if err := m.reg.Send(m.ctx, w.ID, p); err != nil {
		m.logger.Warn("send", "window", w.ID, "err", err)
	}
}
