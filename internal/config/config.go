// Package config loads and saves the budget client's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appName = "budget"

	// EnvServerURL overrides server.base_url when set.
	EnvServerURL = "BUDGET_SERVER_URL"

	DefaultServerURL  = "http://localhost:1430"
	DefaultTheme      = "flexoki-dark"
	DefaultDaemonAddr = "127.0.0.1:8787"
)

// Config holds all budget client configuration.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Appearance AppearanceConfig `toml:"appearance"`
	TUI        TUIConfig        `toml:"tui"`
	Daemon     DaemonConfig     `toml:"daemon"`
}

// ServerConfig points at the remote budget service.
type ServerConfig struct {
	BaseURL    string `toml:"base_url"`
	TimeoutSec int    `toml:"timeout_sec"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// TUIConfig controls the dashboard.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
}

// DaemonConfig controls the background watcher.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:    DefaultServerURL,
			TimeoutSec: 10,
		},
		Appearance: AppearanceConfig{
			Theme: DefaultTheme,
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: 60,
		},
		Daemon: DaemonConfig{
			Addr:        DefaultDaemonAddr,
			IntervalSec: 30,
		},
	}
}

// Timeout is the per-request timeout for gateway calls.
func (s ServerConfig) Timeout() time.Duration {
	if s.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.TimeoutSec) * time.Second
}

// RefreshInterval is how often the dashboard reloads, never below 10s.
func (t TUIConfig) RefreshInterval() time.Duration {
	if t.RefreshIntervalSec < 10 {
		return 10 * time.Second
	}
	return time.Duration(t.RefreshIntervalSec) * time.Second
}

// Interval is the daemon poll interval, never below 5s.
func (d DaemonConfig) Interval() time.Duration {
	if d.IntervalSec < 5 {
		return 5 * time.Second
	}
	return time.Duration(d.IntervalSec) * time.Second
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory for the session database
// and daemon state.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// SessionDBPath returns the path of the session database.
func SessionDBPath() string {
	return filepath.Join(DataDir(), "session.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path. Keys missing from the file keep their
// default values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes cfg to path with owner-only permissions.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gosec // see LoadFrom
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// ServerURL returns the service base URL from env var or config, in that order.
func ServerURL(cfg Config) string {
	if u := strings.TrimSpace(os.Getenv(EnvServerURL)); u != "" {
		return u
	}
	if cfg.Server.BaseURL != "" {
		return cfg.Server.BaseURL
	}
	return DefaultServerURL
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
