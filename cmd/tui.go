package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/budgetplanner/internal/config"
	"github.com/theirongolddev/budgetplanner/internal/tui"
	"github.com/theirongolddev/budgetplanner/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	c, err := openClientDeferred()
	if err != nil {
		return err
	}
	defer c.Close()

	theme.SetActive(c.cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alt screen.
	logf, err := os.OpenFile(filepath.Join(config.DataDir(), "tui.log"), os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		log.SetOutput(io.Discard)
	} else {
		defer func() { _ = logf.Close() }()
		log.SetOutput(logf)
	}

	app := tui.NewApp(tui.Deps{
		Budget:   c.budget,
		Sessions: c.sessions,
		Config:   c.cfg,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// openClientDeferred opens an auto-loading client without restoring the
// session; the dashboard restores it so it can show progress.
func openClientDeferred() (*client, error) {
	return openClientWith(context.Background(), true, false)
}
