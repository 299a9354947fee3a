package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// LocalConfigName is the per-project config file looked up from the working
// directory upwards.
const LocalConfigName = ".critpath.toml"

// Config holds all application configuration
type Config struct {
	General       GeneralConfig       `toml:"general"`
	Watch         WatchConfig         `toml:"watch"`
	Notifications NotificationsConfig `toml:"notifications"`
	Web           WebConfig           `toml:"web"`
	Batches       []BatchConfig       `toml:"batch"`
}

// GeneralConfig holds general settings
type GeneralConfig struct {
	DatabasePath string `toml:"database_path"`
	ProjectsDir  string `toml:"projects_dir"`
	TimeFormat   string `toml:"time_format"` // "clock" or "human"
}

// WatchConfig holds settings for re-analysing project files on change
type WatchConfig struct {
	Debounce string `toml:"debounce"`
	LockDir  string `toml:"lock_dir"`
}

// NotificationsConfig holds notification settings
type NotificationsConfig struct {
	Desktop      bool   `toml:"desktop"`
	SlackWebhook string `toml:"slack_webhook"`
}

// WebConfig holds web UI settings
type WebConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

// BatchConfig is a scheduled re-analysis of one project, or of every project
// when Project is empty.
type BatchConfig struct {
	Name           string `toml:"name"`
	Cron           string `toml:"cron"`
	Project        string `toml:"project"`
	NotifyOnChange bool   `toml:"notify_on_change"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		General: GeneralConfig{
			DatabasePath: filepath.Join(home, ".critpath", "critpath.db"),
			ProjectsDir:  filepath.Join(home, ".critpath", "projects"),
			TimeFormat:   "human",
		},
		Watch: WatchConfig{
			Debounce: "500ms",
			LockDir:  filepath.Join(home, ".critpath"),
		},
		Notifications: NotificationsConfig{
			Desktop: true,
		},
		Web: WebConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
	}
}

// Load reads configuration from a TOML file, falling back to defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	// Expand paths
	cfg.General.DatabasePath = ExpandPath(cfg.General.DatabasePath)
	cfg.General.ProjectsDir = ExpandPath(cfg.General.ProjectsDir)
	cfg.Watch.LockDir = ExpandPath(cfg.Watch.LockDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadWithLocalFallback loads path when given, otherwise the nearest local
// config file, otherwise the user config.
func LoadWithLocalFallback(path string) (*Config, error) {
	if path != "" {
		return Load(path)
	}
	if local := FindLocalConfig(); local != "" {
		return Load(local)
	}
	return Load(DefaultConfigPath())
}

// FindLocalConfig walks up from the working directory looking for
// LocalConfigName. It returns "" if there is none.
func FindLocalConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		candidate := filepath.Join(dir, LocalConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Save writes cfg as TOML, creating the parent directory.
func Save(cfg *Config, path string) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that cannot be caught by decoding alone.
func (c *Config) Validate() error {
	if _, err := c.Watch.DebounceDuration(); err != nil {
		return err
	}
	switch c.General.TimeFormat {
	case "", "clock", "human":
	default:
		return fmt.Errorf("general.time_format: unknown format %q", c.General.TimeFormat)
	}
	seen := make(map[string]bool)
	for i, b := range c.Batches {
		if b.Name == "" {
			return fmt.Errorf("batch %d: name is required", i)
		}
		if b.Cron == "" {
			return fmt.Errorf("batch %s: cron expression is required", b.Name)
		}
		if seen[b.Name] {
			return fmt.Errorf("batch %s: duplicate name", b.Name)
		}
		seen[b.Name] = true
	}
	return nil
}

// DebounceDuration parses Debounce, defaulting to 500ms when it is empty.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	if w.Debounce == "" {
		return 500 * time.Millisecond, nil
	}
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("watch.debounce: negative duration %s", d)
	}
	return d, nil
}

// ExpandPath expands ~ to the user's home directory
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfigPath returns the default config file location
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "critpath", "config.toml")
}
