package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\nbase_url = \"http://budget.test:9000\"\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "http://budget.test:9000", cfg.Server.BaseURL)
	assert.Equal(t, 10, cfg.Server.TimeoutSec)
	assert.Equal(t, DefaultTheme, cfg.Appearance.Theme)
	assert.Equal(t, DefaultDaemonAddr, cfg.Daemon.Addr)
}

func TestLoadFrom_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\n"), 0o600))

	_, err := LoadFrom(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestSaveTo_RoundTripsAndRestrictsPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Appearance.Theme = "nord"
	cfg.TUI.AutoRefresh = false

	require.NoError(t, SaveTo(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestServerURL_EnvOverridesConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.BaseURL = "http://from-config"

	t.Setenv(EnvServerURL, "")
	assert.Equal(t, "http://from-config", ServerURL(cfg))

	t.Setenv(EnvServerURL, "http://from-env")
	assert.Equal(t, "http://from-env", ServerURL(cfg))

	t.Setenv(EnvServerURL, "")
	assert.Equal(t, DefaultServerURL, ServerURL(Config{}))
}

func TestXDGPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/x/config")
	t.Setenv("XDG_DATA_HOME", "/x/data")

	assert.Equal(t, filepath.Join("/x/config", "budget", "config.toml"), ConfigPath())
	assert.Equal(t, filepath.Join("/x/data", "budget", "session.db"), SessionDBPath())
}

func TestIntervals(t *testing.T) {
	assert.Equal(t, 10*time.Second, ServerConfig{}.Timeout())
	assert.Equal(t, 3*time.Second, ServerConfig{TimeoutSec: 3}.Timeout())
	assert.Equal(t, 10*time.Second, TUIConfig{RefreshIntervalSec: 1}.RefreshInterval())
	assert.Equal(t, 90*time.Second, TUIConfig{RefreshIntervalSec: 90}.RefreshInterval())
	assert.Equal(t, 5*time.Second, DaemonConfig{}.Interval())
}
