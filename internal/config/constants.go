// Package config provides configuration defaults, keybindings, connection
// profiles and user settings.
package config

import (
	"time"

	"charm.land/lipgloss/v2"
)

// =============================================================================
// Connection Defaults
// =============================================================================

const (
	// DefaultPort is the SSH port used when none is given.
	DefaultPort = 22

	// DefaultTerminalCount is the number of windows opened per connection.
	DefaultTerminalCount = 1

	// MaxTerminalCount caps the windows opened by one connection.
	MaxTerminalCount = 16

	// DefaultConnectTimeout bounds dialing plus the SSH handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultKeepAlive is the interval between keepalive requests.
	DefaultKeepAlive = 30 * time.Second

	// HostKeyInsecure accepts any host key.
	HostKeyInsecure = "insecure"

	// HostKeyKnownHosts verifies host keys against known_hosts files.
	HostKeyKnownHosts = "known_hosts"
)

// =============================================================================
// Terminal Defaults
// =============================================================================

const (
	// DefaultRows and DefaultCols are the PTY size requested for each window.
	DefaultRows = 24
	DefaultCols = 80

	// DefaultScrollbackLines is the number of lines kept per window.
	DefaultScrollbackLines = 1000

	// MinScrollbackLines and MaxScrollbackLines bound the scrollback setting.
	MinScrollbackLines = 100
	MaxScrollbackLines = 100000
)

// =============================================================================
// Layout
// =============================================================================

const (
	// GridColumns is the number of terminal windows per row.
	GridColumns = 2

	// StatusBarHeight is the height of the status line under the grid.
	StatusBarHeight = 1

	// FormWidth is the width of the connection form.
	FormWidth = 46
)

// =============================================================================
// Rendering
// =============================================================================

const (
	// NormalFPS is the refresh rate while windows receive output.
	NormalFPS = 60

	// IdleFPS is the refresh rate when nothing changed for IdleThresholdFrames.
	IdleFPS = 10

	// IdleThresholdFrames is the number of quiet frames before dropping to IdleFPS.
	IdleThresholdFrames = 30
)

// BorderStyle is the window border style, set from the user config.
var BorderStyle = "rounded"

// UseASCIIOnly replaces box drawing characters with ASCII.
var UseASCIIOnly = false

// GetBorderForStyle returns the lipgloss Border for the current style.
func GetBorderForStyle() lipgloss.Border {
	if UseASCIIOnly || BorderStyle == "ascii" {
		return lipgloss.ASCIIBorder()
	}
	switch BorderStyle {
	case "normal":
		return lipgloss.NormalBorder()
	case "thick":
		return lipgloss.ThickBorder()
	case "double":
		return lipgloss.DoubleBorder()
	case "hidden":
		return lipgloss.HiddenBorder()
	case "block":
		return lipgloss.BlockBorder()
	default:
		return lipgloss.RoundedBorder()
	}
}

// ValidBorderStyles lists the accepted border_style values.
var ValidBorderStyles = []string{"rounded", "normal", "thick", "double", "hidden", "block", "ascii"}
