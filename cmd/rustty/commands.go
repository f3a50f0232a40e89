package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/colorprofile"
	"github.com/spf13/cobra"

	"github.com/olivierchoquet/rustty/internal/config"
	"github.com/olivierchoquet/rustty/internal/theme"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// stdout downsamples styled output to what the terminal supports, and
// strips it when stdout is not a terminal.
func stdout() io.Writer {
	return colorprofile.NewWriter(os.Stdout, os.Environ())
}

func printConfigPath() error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func resetConfigToDefaults(yes bool) error {
	if !yes {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		ok, err := confirm(os.Stdin, os.Stdout, fmt.Sprintf("Overwrite %s with the defaults?", path))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted")
			return nil
		}
	}
	path, err := config.ResetConfig()
	if err != nil {
		return fmt.Errorf("failed to reset config: %w", err)
	}
	fmt.Printf("Configuration reset: %s\n", path)
	return nil
}

// confirm asks a yes/no question, defaulting to no.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "o", "oui":
		return true, nil
	}
	return false, nil
}

func listProfiles(query string) error {
	store, err := config.LoadProfiles()
	if err != nil {
		return err
	}
	writeProfiles(stdout(), store.Search(query))
	return nil
}

func writeProfiles(w io.Writer, profiles []config.Profile) {
	if len(profiles) == 0 {
		fmt.Fprintln(w, dimStyle.Render("No profiles"))
		return
	}
	group := "\x00"
	for _, p := range profiles {
		if p.Group != group {
			group = p.Group
			title := strings.ToUpper(group)
			if title == "" {
				title = "(NO GROUP)"
			}
			fmt.Fprintln(w, headingStyle.Render(title))
		}
		fmt.Fprintf(w, "  %-20s %s@%s:%d %s\n",
			keyStyle.Render(p.Name), p.Username, p.Host, p.Port,
			dimStyle.Render(fmt.Sprintf("(%d terminaux)", p.TerminalCount)))
	}
}

func listKeybindings() error {
	userConfig, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	writeKeybindings(stdout(), config.NewKeybindRegistry(userConfig))
	return nil
}

func writeKeybindings(w io.Writer, registry *config.KeybindRegistry) {
	for i, section := range config.GetKeybindings(registry) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, headingStyle.Render(section.Title))
		for _, b := range section.Bindings {
			fmt.Fprintf(w, "  %s %s\n", keyStyle.Render(fmt.Sprintf("%-16s", b.Key)), b.Description)
		}
	}
}

func printThemes() error {
	if err := theme.Initialize(""); err != nil {
		return fmt.Errorf("failed to initialize themes: %w", err)
	}
	for _, id := range theme.IDs() {
		fmt.Println(id)
	}
	return nil
}

func completeProfileNames(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	store, err := config.LoadProfiles()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var names []string
	for _, p := range store.Search(toComplete) {
		names = append(names, p.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

func completeThemes(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	_ = theme.Initialize("")
	var ids []string
	for _, id := range theme.IDs() {
		if strings.HasPrefix(id, toComplete) {
			ids = append(ids, id)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
