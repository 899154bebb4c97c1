package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"LAZY_LAYOUT_TMUX_BIN", "LAZY_LAYOUT_DATA_DIR", "LAZY_LAYOUT_LOG_LEVEL", "LAZY_LAYOUT_SETTLE_DELAY", "LAZY_LAYOUT_PRODUCERS", "LAZY_LAYOUT_MIN_PANE_WIDTH"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestDefault(t *testing.T) {
	isolate(t)
	cfg := Default()
	assert.Equal(t, "tmux", cfg.TmuxBin)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 150*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 2, cfg.MinPaneWidth)
	assert.Equal(t, 2, cfg.MinPaneHeight)
	assert.NoError(t, cfg.Validate())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tmux_bin: /opt/tmux
data_dir: /srv/layouts
settle_delay: 400ms
min_pane_width: 3
producers:
  logs: tail -f /var/log/{name}
`), 0o644))
	t.Setenv("LAZY_LAYOUT_DATA_DIR", "/env/layouts")
	t.Setenv("LAZY_LAYOUT_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/tmux", cfg.TmuxBin)
	assert.Equal(t, "/env/layouts", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 400*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 3, cfg.MinPaneWidth)
	assert.Equal(t, 2, cfg.MinPaneHeight)
	assert.Equal(t, map[string]string{"logs": "tail -f /var/log/{name}"}, cfg.Producers)
}

func TestLoadDefaultPathFromXDG(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lazy-layout"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lazy-layout", "config.yaml"), []byte("pager: most\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "most", cfg.Pager)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_pane_height: 0\n"), 0o644))
	_, err := Load(path)
	assert.ErrorContains(t, err, "minimum pane size")

	require.NoError(t, os.WriteFile(path, []byte("log_level: shouty\n"), 0o644))
	_, err = Load(path)
	assert.ErrorContains(t, err, "log level")

	require.NoError(t, os.WriteFile(path, []byte("tmux_bin: [\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
