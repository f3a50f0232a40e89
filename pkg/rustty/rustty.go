// Package rustty provides the multi-window SSH client as a Bubble Tea model
// that can be run standalone or embedded in another program.
//
// # Basic Usage
//
//	model, err := rustty.New()
//	if err != nil {
//		log.Fatal(err)
//	}
//	p := tea.NewProgram(model, rustty.ProgramOptions()...)
//	_, err = p.Run()
//	model.Cleanup()
//
// # Connecting on Start
//
// A complete target submits the form as soon as the program starts:
//
//	model, err := rustty.New(
//		rustty.WithTarget("example.com", 22, "admin"),
//		rustty.WithPassword(secret),
//		rustty.WithTerminalCount(4),
//		rustty.WithAutoConnect(true),
//	)
package rustty

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"

	"github.com/olivierchoquet/rustty/internal/app"
	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/sshclient"
	"github.com/olivierchoquet/rustty/internal/theme"
)

// Model is the client model. Call Cleanup after the program exits.
type Model = app.Model

// Mode tells where key presses go.
type Mode = app.Mode

// Mode constants
const (
	// FormMode sends keys to the connection form.
	FormMode = app.FormMode
	// TerminalMode sends keys to the focused terminal window.
	TerminalMode = app.TerminalMode
)

// Options configures a client.
type Options struct {
	// Theme is a palette id such as "slate" or "dracula".
	Theme string

	// ASCIIOnly draws borders with ASCII characters.
	ASCIIOnly bool

	// ScrollbackLines is the number of lines each window keeps.
	ScrollbackLines int

	// Host, Port and Username prefill the connection form.
	Host     string
	Port     int
	Username string

	// Password prefills the secret field.
	Password string

	// TerminalCount is the number of windows opened per connection.
	TerminalCount int

	// Profile names a saved profile to prefill the form with.
	Profile string

	// AutoConnect submits the form when the program starts.
	AutoConnect bool

	// Persist saves the last used target to the config file.
	Persist bool

	// UserConfig is the configuration to use. If nil the config file is
	// loaded, or defaults are used.
	UserConfig *config.UserConfig

	// Env holds RUSTTY_* settings, applied under the options above.
	Env config.Env

	// Profiles is the saved profile store, if any.
	Profiles *config.ProfileStore

	// Logger receives diagnostics. Defaults to the charm log default.
	Logger *log.Logger

	// HostKeyCallback overrides the configured host key policy.
	HostKeyCallback ssh.HostKeyCallback

	// Dialer replaces the SSH transport, mostly for tests.
	Dialer app.Dialer
}

// Option is a functional option for configuring the client.
type Option func(*Options)

// WithTheme sets the colour palette.
func WithTheme(name string) Option {
	return func(o *Options) {
		o.Theme = name
	}
}

// WithASCIIOnly enables ASCII borders.
func WithASCIIOnly(enabled bool) Option {
	return func(o *Options) {
		o.ASCIIOnly = enabled
	}
}

// WithScrollbackLines sets the scrollback size, clamped to the accepted range.
func WithScrollbackLines(lines int) Option {
	return func(o *Options) {
		o.ScrollbackLines = config.ClampScrollback(lines)
	}
}

// WithTarget prefills the host, port and user fields.
func WithTarget(host string, port int, username string) Option {
	return func(o *Options) {
		o.Host = host
		o.Port = port
		o.Username = username
	}
}

// WithPassword prefills the password field.
func WithPassword(password string) Option {
	return func(o *Options) {
		o.Password = password
	}
}

// WithTerminalCount sets the number of windows per connection (1-16).
func WithTerminalCount(n int) Option {
	return func(o *Options) {
		o.TerminalCount = max(1, min(n, config.MaxTerminalCount))
	}
}

// WithProfile prefills the form from a saved profile.
func WithProfile(name string) Option {
	return func(o *Options) {
		o.Profile = name
	}
}

// WithProfiles sets the profile store.
func WithProfiles(store *config.ProfileStore) Option {
	return func(o *Options) {
		o.Profiles = store
	}
}

// WithAutoConnect submits the form on start.
func WithAutoConnect(enabled bool) Option {
	return func(o *Options) {
		o.AutoConnect = enabled
	}
}

// WithPersistence saves the last target to the config file.
func WithPersistence(enabled bool) Option {
	return func(o *Options) {
		o.Persist = enabled
	}
}

// WithUserConfig sets a custom user configuration.
func WithUserConfig(cfg *config.UserConfig) Option {
	return func(o *Options) {
		o.UserConfig = cfg
	}
}

// WithEnv applies RUSTTY_* environment settings.
func WithEnv(env config.Env) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithHostKeyCallback sets the host key verification callback.
func WithHostKeyCallback(cb ssh.HostKeyCallback) Option {
	return func(o *Options) {
		o.HostKeyCallback = cb
	}
}

// WithDialer replaces the SSH transport.
func WithDialer(d app.Dialer) Option {
	return func(o *Options) {
		o.Dialer = d
	}
}

// DefaultOptions returns the default options.
func DefaultOptions() Options {
	return Options{Persist: true}
}

// New creates a client model with the given options.
func New(opts ...Option) (*Model, error) {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}

	cfg := options.UserConfig
	if cfg == nil {
		var err error
		cfg, err = config.LoadUserConfig()
		if err != nil {
			logger.Warn("failed to load config, using defaults", "err", err)
			cfg = config.DefaultConfig()
		}
	}
	config.ApplyOverrides(config.Overrides{
		Host:            options.Host,
		Port:            options.Port,
		Username:        options.Username,
		TerminalCount:   options.TerminalCount,
		ThemeName:       options.Theme,
		ScrollbackLines: options.ScrollbackLines,
		ASCIIOnly:       options.ASCIIOnly,
	}, options.Env, cfg)

	if err := theme.Initialize(cfg.Appearance.Theme); err != nil {
		logger.Warn("theme", "err", err)
	}

	dial := options.Dialer
	if dial == nil {
		var err error
		dial, err = Dialer(cfg, options.HostKeyCallback, logger)
		if err != nil {
			return nil, err
		}
	}

	password := options.Password
	if password == "" {
		password = options.Env.Password
	}

	var save func(*config.UserConfig) error
	if options.Persist {
		save = config.SaveUserConfig
	}

	return app.New(app.Options{
		Config:      cfg,
		Profiles:    options.Profiles,
		Dial:        dial,
		Logger:      logger,
		Password:    password,
		Profile:     options.Profile,
		AutoConnect: options.AutoConnect,
		SaveConfig:  save,
	}), nil
}

// Dialer builds the SSH dialer described by cfg. A nil hostKey applies the
// configured host key policy.
func Dialer(cfg *config.UserConfig, hostKey ssh.HostKeyCallback, logger *log.Logger) (app.Dialer, error) {
	if logger == nil {
		logger = log.Default()
	}
	if hostKey == nil && cfg.Connection.HostKeyPolicy == config.HostKeyKnownHosts {
		files := sshclient.DefaultKnownHostsFiles()
		if cfg.Connection.KnownHostsFile != "" {
			files = []string{cfg.Connection.KnownHostsFile}
		}
		cb, err := sshclient.KnownHostsCallback(files...)
		if err != nil {
			return nil, fmt.Errorf("host key policy %s: %w", config.HostKeyKnownHosts, err)
		}
		hostKey = cb
	}

	opts := []sshclient.Option{
		sshclient.WithLogger(logger.WithPrefix("ssh")),
		sshclient.WithTimeout(cfg.ConnectTimeout()),
		sshclient.WithKeepAlive(cfg.KeepAlive()),
		sshclient.WithPty(sshclient.DefaultTerm, cfg.Terminal.Rows, cfg.Terminal.Cols),
		sshclient.WithPromptNudge(cfg.PromptNudgeEnabled()),
	}
	if hostKey != nil {
		opts = append(opts, sshclient.WithHostKeyCallback(hostKey))
	}
	return app.SSHDialer(opts...), nil
}

// ProgramOptions returns the recommended tea.ProgramOption values:
//
//	p := tea.NewProgram(model, rustty.ProgramOptions()...)
func ProgramOptions() []tea.ProgramOption {
	return []tea.ProgramOption{
		tea.WithFPS(config.NormalFPS),
	}
}
