package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/logging"
	"github.com/olivierchoquet/rustty/internal/theme"
	"github.com/olivierchoquet/rustty/pkg/rustty"
)

func runClient() error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}

	userConfig, err := config.LoadUserConfig()
	if err != nil {
		log.Warn("Failed to load config, using defaults", "err", err)
		userConfig = config.DefaultConfig()
	}

	level := userConfig.Logging.Level
	if env.LogLevel != "" {
		level = env.LogLevel
	}
	if debugMode {
		level = "debug"
	}
	logger, closeLog, err := logging.Setup(level)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := closeLog(); closeErr != nil {
			log.Warn("Failed to close log file", "err", closeErr)
		}
	}()
	theme.SetLogger(logger)

	if debugMode {
		configPath, _ := config.GetConfigPath()
		logger.Debug("starting", "version", version, "config", configPath)
	}

	profiles, err := config.LoadProfiles()
	if err != nil {
		logger.Warn("profiles unavailable", "err", err)
	}

	selectedTheme := themeName
	if selectedTheme == "" && profileName != "" && profiles != nil {
		if p, ok := profiles.ByName(profileName); ok {
			selectedTheme = p.Theme
		}
	}

	var password string
	if passwordStdin {
		password, err = readPassword(os.Stdin)
		if err != nil {
			return err
		}
	}

	opts := []rustty.Option{
		rustty.WithUserConfig(userConfig),
		rustty.WithEnv(env),
		rustty.WithLogger(logger),
		rustty.WithProfiles(profiles),
		rustty.WithProfile(profileName),
		rustty.WithTarget(host, port, username),
		rustty.WithTheme(selectedTheme),
		rustty.WithASCIIOnly(asciiOnly),
		rustty.WithPassword(password),
		rustty.WithAutoConnect(host != "" && username != ""),
	}
	if terminalCount > 0 {
		opts = append(opts, rustty.WithTerminalCount(terminalCount))
	}
	if scrollbackLines > 0 {
		opts = append(opts, rustty.WithScrollbackLines(scrollbackLines))
	}
	model, err := rustty.New(opts...)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, append(rustty.ProgramOptions(), tea.WithoutSignalHandler())...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		if _, ok := <-sigChan; ok {
			p.Send(tea.QuitMsg{})
		}
	}()

	_, err = p.Run()
	model.Cleanup()

	if err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// readPassword reads one line from r. A terminal gets a prompt and no echo.
func readPassword(r io.Reader) (string, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "Mot de passe: ")
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on standard input")
	}
	return line, nil
}
