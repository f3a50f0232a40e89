package config

// Overrides contains CLI flag values that override the user config and the
// environment. Zero values mean the flag was not set.
type Overrides struct {
	Host            string
	Port            int
	Username        string
	TerminalCount   int
	ThemeName       string
	ScrollbackLines int
	Debug           bool
	ASCIIOnly       bool
}

// ApplyOverrides merges env and then overrides into cfg, so flags win over
// the environment and the environment wins over the file. It also updates
// the package rendering globals.
func ApplyOverrides(overrides Overrides, env Env, cfg *UserConfig) {
	if env.LogLevel != "" {
		cfg.Logging.Level = env.LogLevel
	}
	if env.KnownHosts != "" {
		cfg.Connection.KnownHostsFile = env.KnownHosts
		cfg.Connection.HostKeyPolicy = HostKeyKnownHosts
	}
	if env.Theme != "" {
		cfg.Appearance.Theme = env.Theme
	}

	if overrides.Host != "" {
		cfg.Connection.LastHost = overrides.Host
	}
	if overrides.Port > 0 {
		cfg.Connection.LastPort = overrides.Port
	}
	if overrides.Username != "" {
		cfg.Connection.LastUsername = overrides.Username
	}
	if overrides.TerminalCount > 0 {
		cfg.Connection.TerminalCount = min(overrides.TerminalCount, MaxTerminalCount)
	}
	if overrides.ThemeName != "" {
		cfg.Appearance.Theme = overrides.ThemeName
	}
	if overrides.ScrollbackLines > 0 {
		cfg.Terminal.ScrollbackLines = ClampScrollback(overrides.ScrollbackLines)
	}
	if overrides.Debug {
		cfg.Logging.Level = "debug"
	}

	UseASCIIOnly = overrides.ASCIIOnly
	BorderStyle = cfg.Appearance.BorderStyle
}
