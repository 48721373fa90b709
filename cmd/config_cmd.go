package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/budgetplanner/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Base URL:  %s\n", cfg.Server.BaseURL)
	if env := os.Getenv(config.EnvServerURL); env != "" {
		fmt.Printf("    Override:  %s (from %s)\n", env, config.EnvServerURL)
	}
	fmt.Printf("    Timeout:   %s\n", cfg.Server.Timeout())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [TUI]")
	fmt.Printf("    Auto refresh:     %v\n", cfg.TUI.AutoRefresh)
	fmt.Printf("    Refresh interval: %s\n", cfg.TUI.RefreshInterval())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval())
	fmt.Println()

	fmt.Printf("  Session store: %s\n", config.SessionDBPath())
	fmt.Println()
	fmt.Println("  Run `budget setup` to reconfigure.")
	return nil
}
