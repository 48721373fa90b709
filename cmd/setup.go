package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

// setupValues mirrors the editable config as form-friendly strings.
type setupValues struct {
	serverURL   string
	theme       string
	autoRefresh bool
	refreshSec  string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		serverURL:   cfg.Server.BaseURL,
		theme:       cfg.Appearance.Theme,
		autoRefresh: cfg.TUI.AutoRefresh,
		refreshSec:  strconv.Itoa(int(cfg.TUI.RefreshInterval().Seconds())),
	}
}

// apply copies validated values onto cfg.
func (v *setupValues) apply(cfg config.Config) (config.Config, error) {
	if err := validServerURL(v.serverURL); err != nil {
		return cfg, err
	}
	if !theme.Valid(v.theme) {
		return cfg, fmt.Errorf("unknown theme %q", v.theme)
	}
	sec, err := strconv.Atoi(strings.TrimSpace(v.refreshSec))
	if err != nil || sec < 10 {
		return cfg, errors.New("refresh interval must be at least 10 seconds")
	}
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(v.serverURL), "/")
	cfg.Appearance.Theme = v.theme
	cfg.TUI.AutoRefresh = v.autoRefresh
	cfg.TUI.RefreshIntervalSec = sec
	return cfg, nil
}

func validServerURL(s string) error {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		return errors.New("server URL must start with http:// or https://")
	}
	return nil
}

func validRefresh(s string) error {
	sec, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || sec < 10 {
		return errors.New("enter a whole number of seconds, at least 10")
	}
	return nil
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	v := newSetupValues(cfg)

	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, t := range theme.All {
		themes = append(themes, huh.NewOption(t.Name, t.Name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to budget!").
				Description("Point the client at your budget server and pick a look.\nYou can rerun `budget setup` at any time."),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Budget server URL").
				Placeholder(config.DefaultServerURL).
				Validate(validServerURL).
				Value(&v.serverURL),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.theme),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Auto-refresh the dashboard?").
				Value(&v.autoRefresh),
			huh.NewInput().
				Title("Refresh interval (seconds)").
				Validate(validRefresh).
				Value(&v.refreshSec),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled; nothing saved.")
			return nil
		}
		return err
	}

	cfg, err = v.apply(cfg)
	if err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Next: `budget login` or `budget register`, then `budget tui`.")
	fmt.Println()
	return nil
}
