// Package main implements rustty, a multi-window SSH client for the
// terminal. One connection form opens up to sixteen terminal windows on a
// single authenticated SSH session, laid out in a two-column grid.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version information (set by goreleaser)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	builtBy = "unknown"
)

// Global flags
var (
	debugMode       bool
	asciiOnly       bool
	themeName       string
	listThemes      bool
	scrollbackLines int
	host            string
	port            int
	username        string
	terminalCount   int
	profileName     string
	passwordStdin   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "rustty",
		Short: "Multi-window SSH client",
		Long: `rustty - Multi-window SSH client

Connect once and work in several terminal windows that share the same
SSH session. Windows are laid out in a two-column grid next to the
connection form; closing the form window quits.`,
		Example: `  # Open the connection form
  rustty

  # Connect right away with four windows
  rustty --host example.com --user admin --terminals 4

  # Read the password from a pipe
  pass show srv | rustty --host srv --user root --password-stdin

  # Prefill the form from a saved profile
  rustty --profile prod

  # Run with debug logging
  rustty --debug

  # List all available themes
  rustty --list-themes`,
		Version: version,
		RunE: func(_ *cobra.Command, _ []string) error {
			if listThemes {
				return printThemes()
			}
			return runClient()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&asciiOnly, "ascii-only", false, "Draw borders with ASCII characters")
	rootCmd.PersistentFlags().StringVar(&themeName, "theme", "", "Color theme to use (e.g., slate, dracula, nord)")
	rootCmd.PersistentFlags().BoolVar(&listThemes, "list-themes", false, "List all available themes and exit")
	rootCmd.PersistentFlags().IntVar(&scrollbackLines, "scrollback-lines", 0, "Number of lines kept per window (default: from config or 1000, min: 100, max: 100000)")
	rootCmd.Flags().StringVar(&host, "host", "", "Server to connect to")
	rootCmd.Flags().IntVarP(&port, "port", "p", 0, "SSH port (default: from config or 22)")
	rootCmd.Flags().StringVarP(&username, "user", "u", "", "User name")
	rootCmd.Flags().IntVarP(&terminalCount, "terminals", "n", 0, "Number of terminal windows to open (1-16)")
	rootCmd.Flags().StringVar(&profileName, "profile", "", "Saved profile to prefill the form with")
	rootCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from standard input")
	_ = rootCmd.RegisterFlagCompletionFunc("profile", completeProfileNames)
	_ = rootCmd.RegisterFlagCompletionFunc("theme", completeThemes)

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage rustty configuration",
		Long:  `Manage the rustty configuration file and settings`,
	}

	configPathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print configuration file path",
		Long:  `Print the path to the rustty configuration file`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return printConfigPath()
		},
	}

	var resetYes bool
	configResetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long: `Reset the rustty configuration file to default settings

This will overwrite your existing configuration after confirmation.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return resetConfigToDefaults(resetYes)
		},
	}
	configResetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")

	configCmd.AddCommand(configPathCmd, configResetCmd)

	profilesCmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "View saved connection profiles",
	}

	profilesListCmd := &cobra.Command{
		Use:   "list [query]",
		Short: "List saved profiles",
		Long:  `List saved profiles, optionally filtered by name, host, user or group`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			query := ""
			if len(args) > 0 {
				query = args[0]
			}
			return listProfiles(query)
		},
	}
	profilesCmd.AddCommand(profilesListCmd)

	keybindsCmd := &cobra.Command{
		Use:     "keybinds",
		Aliases: []string{"keys", "kb"},
		Short:   "List the configured keybindings",
		RunE: func(_ *cobra.Command, _ []string) error {
			return listKeybindings()
		},
	}

	themesCmd := &cobra.Command{
		Use:   "themes",
		Short: "List available themes",
		RunE: func(_ *cobra.Command, _ []string) error {
			return printThemes()
		},
	}

	rootCmd.AddCommand(configCmd, profilesCmd, keybindsCmd, themesCmd)

	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(fmt.Sprintf("%s\nCommit: %s\nBuilt: %s\nBy: %s", version, commit, date, builtBy)),
	); err != nil {
		os.Exit(1)
	}
}
