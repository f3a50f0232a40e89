package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
	"github.com/pelletier/go-toml/v2"
)

const configRelPath = "rustty/config.toml"

// UserConfig represents the user's configuration file.
type UserConfig struct {
	Connection  ConnectionConfig  `toml:"connection"`
	Terminal    TerminalConfig    `toml:"terminal"`
	Appearance  AppearanceConfig  `toml:"appearance"`
	Keybindings KeybindingsConfig `toml:"keybindings"`
	Logging     LoggingConfig     `toml:"logging"`
}

// ConnectionConfig holds connection settings and the last used target.
type ConnectionConfig struct {
	LastHost              string `toml:"last_host"`
	LastPort              int    `toml:"last_port"`
	LastUsername          string `toml:"last_username"`
	TerminalCount         int    `toml:"terminal_count"`
	HostKeyPolicy         string `toml:"host_key_policy"`
	KnownHostsFile        string `toml:"known_hosts_file"`
	KeepAliveSeconds      int    `toml:"keepalive_seconds"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
}

// TerminalConfig holds per-window terminal settings.
type TerminalConfig struct {
	Rows            int   `toml:"rows"`
	Cols            int   `toml:"cols"`
	ScrollbackLines int   `toml:"scrollback_lines"`
	PromptNudge     *bool `toml:"prompt_nudge"` // nil means true
}

// AppearanceConfig holds appearance settings.
type AppearanceConfig struct {
	Theme       string `toml:"theme"`
	BorderStyle string `toml:"border_style"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *UserConfig {
	nudge := true
	return &UserConfig{
		Connection: ConnectionConfig{
			LastPort:              DefaultPort,
			TerminalCount:         DefaultTerminalCount,
			HostKeyPolicy:         HostKeyInsecure,
			KeepAliveSeconds:      int(DefaultKeepAlive / time.Second),
			ConnectTimeoutSeconds: int(DefaultConnectTimeout / time.Second),
		},
		Terminal: TerminalConfig{
			Rows:            DefaultRows,
			Cols:            DefaultCols,
			ScrollbackLines: DefaultScrollbackLines,
			PromptNudge:     &nudge,
		},
		Appearance: AppearanceConfig{
			Theme:       "slate",
			BorderStyle: "rounded",
		},
		Keybindings: DefaultKeybindings(),
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// PromptNudgeEnabled reports whether a carriage return is sent after the
// shell starts.
func (c *UserConfig) PromptNudgeEnabled() bool {
	return c.Terminal.PromptNudge == nil || *c.Terminal.PromptNudge
}

// KeepAlive returns the keepalive interval. Zero disables keepalives.
func (c *UserConfig) KeepAlive() time.Duration {
	return time.Duration(c.Connection.KeepAliveSeconds) * time.Second
}

// ConnectTimeout returns the dial and handshake timeout.
func (c *UserConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.Connection.ConnectTimeoutSeconds) * time.Second
}

// LoadUserConfig loads the configuration from the XDG config directory,
// creating it with defaults on first run.
func LoadUserConfig() (*UserConfig, error) {
	configPath, err := xdg.SearchConfigFile(configRelPath)
	if err != nil {
		return createDefaultConfig()
	}
	return LoadUserConfigFile(configPath)
}

// LoadUserConfigFile reads, completes and validates the config at path.
func LoadUserConfigFile(path string) (*UserConfig, error) {
	// #nosec G304 - path is the user's own config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Keys the file leaves out keep their default; zero is a real value
	// for some of them, such as keepalive_seconds.
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	fillMissing(cfg, DefaultConfig())

	validation := ValidateConfig(cfg)
	if validation.HasErrors() {
		for _, e := range validation.Errors {
			fmt.Fprintf(os.Stderr, "Config error in [%s]: %s - %s\n", e.Field, e.Key, e.Message)
		}
		return nil, fmt.Errorf("configuration has %d error(s), please fix and restart", len(validation.Errors))
	}
	for _, w := range validation.Warnings {
		log.Default().WithPrefix("config").Warn(w.Message, "section", w.Field, "key", w.Key)
	}

	return cfg, nil
}

// SaveUserConfig writes cfg to the config file.
func SaveUserConfig(cfg *UserConfig) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return writeConfigFile(path, cfg)
}

// ResetConfig overwrites the config file with defaults and returns its path.
func ResetConfig() (string, error) {
	path, err := xdg.ConfigFile(configRelPath)
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return path, writeConfigFile(path, DefaultConfig())
}

// GetConfigPath returns the path to the config file, existing or not.
func GetConfigPath() (string, error) {
	path, err := xdg.SearchConfigFile(configRelPath)
	if err != nil {
		return xdg.ConfigFile(configRelPath)
	}
	return path, nil
}

func createDefaultConfig() (*UserConfig, error) {
	cfg := DefaultConfig()
	path, err := xdg.ConfigFile(configRelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	if err := writeConfigFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func writeConfigFile(path string, cfg *UserConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# rustty configuration\n")
	sb.WriteString("# Location: " + path + "\n")
	sb.WriteString("#\n")
	sb.WriteString("# [connection]\n")
	sb.WriteString("#   last_host, last_port, last_username: prefilled in the connection form\n")
	sb.WriteString("#   terminal_count: windows opened per connection (1-16)\n")
	sb.WriteString("#   host_key_policy: insecure | known_hosts\n")
	sb.WriteString("#   known_hosts_file: extra known_hosts file (RUSTTY_KNOWN_HOSTS overrides)\n")
	sb.WriteString("#   keepalive_seconds: 0 disables keepalives\n")
	sb.WriteString("#\n")
	sb.WriteString("# [terminal]\n")
	sb.WriteString("#   rows, cols: PTY size requested for each window\n")
	sb.WriteString("#   scrollback_lines: 100 to 100000\n")
	sb.WriteString("#   prompt_nudge: send a carriage return once the shell starts\n")
	sb.WriteString("#\n")
	sb.WriteString("# [appearance]\n")
	sb.WriteString("#   theme: run `rustty themes` for the list\n")
	sb.WriteString("#   border_style: " + strings.Join(ValidBorderStyles, ", ") + "\n")
	sb.WriteString("#\n")
	sb.WriteString("# [logging]\n")
	sb.WriteString("#   level: debug, info, warn, error (RUSTTY_LOG_LEVEL overrides)\n\n")
	sb.Write(data)

	if err := os.WriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// fillMissing replaces values the file set out of range and clamps the
// rest.
func fillMissing(cfg, def *UserConfig) {
	c := &cfg.Connection
	if c.LastPort == 0 {
		c.LastPort = def.Connection.LastPort
	}
	if c.TerminalCount <= 0 {
		c.TerminalCount = def.Connection.TerminalCount
	}
	if c.HostKeyPolicy == "" {
		c.HostKeyPolicy = def.Connection.HostKeyPolicy
	}
	if c.ConnectTimeoutSeconds <= 0 {
		c.ConnectTimeoutSeconds = def.Connection.ConnectTimeoutSeconds
	}
	if c.KeepAliveSeconds < 0 {
		c.KeepAliveSeconds = 0
	}

	t := &cfg.Terminal
	if t.Rows <= 0 {
		t.Rows = def.Terminal.Rows
	}
	if t.Cols <= 0 {
		t.Cols = def.Terminal.Cols
	}
	t.ScrollbackLines = ClampScrollback(t.ScrollbackLines)

	if cfg.Appearance.Theme == "" {
		cfg.Appearance.Theme = def.Appearance.Theme
	}
	if cfg.Appearance.BorderStyle == "" {
		cfg.Appearance.BorderStyle = def.Appearance.BorderStyle
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	fillMissingKeybinds(&cfg.Keybindings, def.Keybindings)
}

// ClampScrollback bounds n to the accepted scrollback range. Zero or
// negative values select the default.
func ClampScrollback(n int) int {
	switch {
	case n <= 0:
		return DefaultScrollbackLines
	case n < MinScrollbackLines:
		return MinScrollbackLines
	case n > MaxScrollbackLines:
		return MaxScrollbackLines
	}
	return n
}

