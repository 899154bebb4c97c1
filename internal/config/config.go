package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/alchemmist/lazy-layout/internal/content"
	"github.com/alchemmist/lazy-layout/internal/logging"
	"github.com/alchemmist/lazy-layout/internal/store"
)

const envPrefix = "LAZY_LAYOUT"

type Config struct {
	TmuxBin       string        `yaml:"tmux_bin" split_words:"true"`
	Session       string        `yaml:"session" split_words:"true"`
	DataDir       string        `yaml:"data_dir" split_words:"true"`
	Editor        string        `yaml:"editor" split_words:"true"`
	Pager         string        `yaml:"pager" split_words:"true"`
	LogLevel      string        `yaml:"log_level" split_words:"true"`
	SettleDelay   time.Duration `yaml:"settle_delay" split_words:"true"`
	MinPaneWidth  int           `yaml:"min_pane_width" split_words:"true"`
	MinPaneHeight int           `yaml:"min_pane_height" split_words:"true"`
	// Producers maps a named-surface kind to the command that regenerates
	// it. {name} in the command is replaced by the surface name.
	Producers map[string]string `yaml:"producers" split_words:"true"`
}

func Default() Config {
	return Config{
		TmuxBin:       "tmux",
		DataDir:       store.DefaultDataDir(),
		Editor:        envOr("EDITOR", "vi"),
		Pager:         envOr("PAGER", "less"),
		LogLevel:      logging.DefaultLevel,
		SettleDelay:   content.DefaultSettleDelay,
		MinPaneWidth:  2,
		MinPaneHeight: 2,
	}
}

func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lazy-layout", "config.yaml")
}

// Load layers the YAML file at path and then LAZY_LAYOUT_* environment
// variables over Default. An empty path means DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: empty data_dir")
	}
	if c.MinPaneWidth < 1 || c.MinPaneHeight < 1 {
		return fmt.Errorf("config: minimum pane size %dx%d must be at least 1x1", c.MinPaneWidth, c.MinPaneHeight)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("config: negative settle_delay %s", c.SettleDelay)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
