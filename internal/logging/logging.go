// Package logging configures the process logger. The terminal UI owns
// stdout, so logs go to a file under the XDG state directory.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

const logRelPath = "rustty/rustty.log"

// Path returns the log file location.
func Path() (string, error) {
	path, err := xdg.StateFile(logRelPath)
	if err != nil {
		return "", fmt.Errorf("failed to get log path: %w", err)
	}
	return path, nil
}

// ParseLevel parses a level name, falling back to info for unknown or
// empty names.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// New returns a logger writing to w at level.
func New(w io.Writer, level string) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           ParseLevel(level),
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

// Setup opens the log file, installs a logger on it as the default and
// returns a function that closes the file.
func Setup(level string) (*log.Logger, func() error, error) {
	path, err := Path()
	if err != nil {
		return nil, nil, err
	}
	return SetupFile(path, level)
}

// SetupFile is Setup with an explicit file path.
func SetupFile(path, level string) (*log.Logger, func() error, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	// #nosec G304 - path is the application's own log file
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := New(f, level)
	log.SetDefault(logger)
	return logger, f.Close, nil
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
