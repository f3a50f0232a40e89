package config

import "testing"

func TestApplyOverridesPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		env       Env
		overrides Overrides
		check     func(t *testing.T, cfg *UserConfig)
	}{
		{
			name: "file only",
			check: func(t *testing.T, cfg *UserConfig) {
				if cfg.Logging.Level != "warn" || cfg.Appearance.Theme != "nord" {
					t.Errorf("got level=%q theme=%q", cfg.Logging.Level, cfg.Appearance.Theme)
				}
			},
		},
		{
			name: "env beats file",
			env:  Env{LogLevel: "error", Theme: "matrix"},
			check: func(t *testing.T, cfg *UserConfig) {
				if cfg.Logging.Level != "error" || cfg.Appearance.Theme != "matrix" {
					t.Errorf("got level=%q theme=%q", cfg.Logging.Level, cfg.Appearance.Theme)
				}
			},
		},
		{
			name:      "flags beat env",
			env:       Env{LogLevel: "error", Theme: "matrix"},
			overrides: Overrides{Debug: true, ThemeName: "tos"},
			check: func(t *testing.T, cfg *UserConfig) {
				if cfg.Logging.Level != "debug" || cfg.Appearance.Theme != "tos" {
					t.Errorf("got level=%q theme=%q", cfg.Logging.Level, cfg.Appearance.Theme)
				}
			},
		},
		{
			name: "known hosts from env switches policy",
			env:  Env{KnownHosts: "/tmp/kh"},
			check: func(t *testing.T, cfg *UserConfig) {
				if cfg.Connection.HostKeyPolicy != HostKeyKnownHosts || cfg.Connection.KnownHostsFile != "/tmp/kh" {
					t.Errorf("connection = %+v", cfg.Connection)
				}
			},
		},
		{
			name:      "connection flags",
			overrides: Overrides{Host: "h", Port: 2022, Username: "u", TerminalCount: 99, ScrollbackLines: 10},
			check: func(t *testing.T, cfg *UserConfig) {
				c := cfg.Connection
				if c.LastHost != "h" || c.LastPort != 2022 || c.LastUsername != "u" {
					t.Errorf("connection = %+v", c)
				}
				if c.TerminalCount != MaxTerminalCount {
					t.Errorf("terminal count = %d, want clamp to %d", c.TerminalCount, MaxTerminalCount)
				}
				if cfg.Terminal.ScrollbackLines != MinScrollbackLines {
					t.Errorf("scrollback = %d", cfg.Terminal.ScrollbackLines)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging.Level = "warn"
			cfg.Appearance.Theme = "nord"
			ApplyOverrides(tt.overrides, tt.env, cfg)
			tt.check(t, cfg)
		})
	}
}

func TestApplyOverridesSetsBorderGlobals(t *testing.T) {
	t.Cleanup(func() { BorderStyle, UseASCIIOnly = "rounded", false })

	cfg := DefaultConfig()
	cfg.Appearance.BorderStyle = "double"
	ApplyOverrides(Overrides{ASCIIOnly: true}, Env{}, cfg)
	if BorderStyle != "double" || !UseASCIIOnly {
		t.Errorf("BorderStyle=%q UseASCIIOnly=%v", BorderStyle, UseASCIIOnly)
	}
	if GetBorderForStyle().Top != "-" {
		t.Errorf("ascii border top = %q", GetBorderForStyle().Top)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("RUSTTY_PASSWORD", "hunter2")
	t.Setenv("RUSTTY_LOG_LEVEL", "debug")
	t.Setenv("RUSTTY_KNOWN_HOSTS", "/etc/ssh/ssh_known_hosts")

	env, err := LoadEnv()
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if env.Password != "hunter2" || env.LogLevel != "debug" || env.KnownHosts != "/etc/ssh/ssh_known_hosts" {
		t.Errorf("env = %+v", env)
	}
	if env.Theme != "" {
		t.Errorf("unset theme = %q", env.Theme)
	}
}
