package config

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ValidationIssue describes one problem in the user config.
type ValidationIssue struct {
	Field   string
	Key     string
	Message string
}

// ValidationResult collects errors, which stop startup, and warnings,
// which are logged.
type ValidationResult struct {
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

// HasErrors reports whether any error was found.
func (v *ValidationResult) HasErrors() bool { return len(v.Errors) > 0 }

// HasWarnings reports whether any warning was found.
func (v *ValidationResult) HasWarnings() bool { return len(v.Warnings) > 0 }

func (v *ValidationResult) errorf(field, key, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationIssue{field, key, fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) warnf(field, key, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationIssue{field, key, fmt.Sprintf(format, args...)})
}

var (
	windowActions = []string{ActionCloseWindow, ActionQuit, ActionNextWindow, ActionPrevWindow, ActionToggleHelp, ActionScrollUp, ActionScrollDown}
	formActions   = []string{ActionNextField, ActionPrevField, ActionSubmit}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// ValidateConfig checks cfg after defaults have been filled in.
func ValidateConfig(cfg *UserConfig) *ValidationResult {
	v := &ValidationResult{}

	c := cfg.Connection
	if c.LastPort < 1 || c.LastPort > 65535 {
		v.errorf("connection", "last_port", "port %d out of range 1-65535", c.LastPort)
	}
	if c.TerminalCount > MaxTerminalCount {
		v.errorf("connection", "terminal_count", "at most %d terminals per connection", MaxTerminalCount)
	}
	if c.HostKeyPolicy != HostKeyInsecure && c.HostKeyPolicy != HostKeyKnownHosts {
		v.errorf("connection", "host_key_policy", "must be %q or %q", HostKeyInsecure, HostKeyKnownHosts)
	}

	if cfg.Terminal.Rows < 2 || cfg.Terminal.Cols < 2 {
		v.errorf("terminal", "rows/cols", "terminal must be at least 2x2, got %dx%d", cfg.Terminal.Cols, cfg.Terminal.Rows)
	}

	if !slices.Contains(ValidBorderStyles, cfg.Appearance.BorderStyle) {
		v.warnf("appearance", "border_style", "unknown border style %q, using rounded", cfg.Appearance.BorderStyle)
		cfg.Appearance.BorderStyle = "rounded"
	}

	if !slices.Contains(logLevels, strings.ToLower(cfg.Logging.Level)) {
		v.warnf("logging", "level", "unknown level %q, using info", cfg.Logging.Level)
		cfg.Logging.Level = "info"
	}

	validateBindings(v, "keybindings.window", cfg.Keybindings.Window, windowActions)
	validateBindings(v, "keybindings.form", cfg.Keybindings.Form, formActions)
	return v
}

func validateBindings(v *ValidationResult, field string, bindings map[string][]string, known []string) {
	seen := make(map[string]string)
	for _, action := range slices.Sorted(maps.Keys(bindings)) {
		if !slices.Contains(known, action) {
			v.warnf(field, action, "unknown action")
			continue
		}
		for _, k := range bindings[action] {
			k = normalizeKey(k)
			if other, dup := seen[k]; dup {
				v.warnf(field, action, "key %q is also bound to %s", k, other)
				continue
			}
			seen[k] = action
		}
	}
}
