// Package config handles application configuration.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	// DataDir is the directory for persistent data (logs, saved sessions).
	DataDir string `yaml:"-"`

	// DefaultShell is the shell for new tabs: bash, zsh, powershell, cmd,
	// gitbash. Empty picks the platform default.
	DefaultShell string `yaml:"default_shell"`

	// ResizeDebounceMS is the quiet period before a viewport change is
	// propagated to the shell process.
	ResizeDebounceMS int `yaml:"resize_debounce_ms"`

	// PendingBuffer bounds the per-session queue of output that arrives
	// before the session identifier is known.
	PendingBuffer int `yaml:"pending_buffer"`

	// InterruptThresholdMS is the double-press window for the interrupt
	// key escalation.
	InterruptThresholdMS int `yaml:"interrupt_threshold_ms"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Keys contains keybinding configuration.
	Keys KeyBindings `yaml:"keys"`
}

// KeyBindings holds all configurable keybindings.
type KeyBindings struct {
	KillChildren string `yaml:"kill_children"`
	Copy         string `yaml:"copy"`
	Interrupt    string `yaml:"interrupt"`
	Paste        string `yaml:"paste"`
	NewTab       string `yaml:"new_tab"`
	CloseTab     string `yaml:"close_tab"`
	NextTab      string `yaml:"next_tab"`
	PrevTab      string `yaml:"prev_tab"`
	Quit         string `yaml:"quit"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		DataDir:              defaultDataDir(),
		ResizeDebounceMS:     100,
		PendingBuffer:        100,
		InterruptThresholdMS: 500,
		LogLevel:             "info",
		Keys:                 DefaultKeyBindings(),
	}
}

// DefaultKeyBindings returns the default keybindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		KillChildren: "ctrl+k",
		Copy:         "ctrl+c",
		Interrupt:    "ctrl+c",
		Paste:        "ctrl+v",
		NewTab:       "ctrl+t",
		CloseTab:     "ctrl+w",
		NextTab:      "ctrl+n",
		PrevTab:      "ctrl+p",
		Quit:         "ctrl+q",
	}
}

// Load loads configuration from the default config file, falling back to
// defaults when the file does not exist.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from the given path, or the default config
// file when path is empty.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = cfg.ConfigFile()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	// Parse YAML into a temporary struct to merge with defaults
	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	mergeConfig(cfg, &fileCfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// mergeConfig merges file configuration into the default configuration.
// Only non-zero values from file are applied.
func mergeConfig(dst, src *Config) {
	if src.DefaultShell != "" {
		dst.DefaultShell = src.DefaultShell
	}
	if src.ResizeDebounceMS != 0 {
		dst.ResizeDebounceMS = src.ResizeDebounceMS
	}
	if src.PendingBuffer != 0 {
		dst.PendingBuffer = src.PendingBuffer
	}
	if src.InterruptThresholdMS != 0 {
		dst.InterruptThresholdMS = src.InterruptThresholdMS
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}

	mergeKeyBindings(&dst.Keys, &src.Keys)
}

// mergeKeyBindings merges keybindings from src into dst.
func mergeKeyBindings(dst, src *KeyBindings) {
	if src.KillChildren != "" {
		dst.KillChildren = src.KillChildren
	}
	if src.Copy != "" {
		dst.Copy = src.Copy
	}
	if src.Interrupt != "" {
		dst.Interrupt = src.Interrupt
	}
	if src.Paste != "" {
		dst.Paste = src.Paste
	}
	if src.NewTab != "" {
		dst.NewTab = src.NewTab
	}
	if src.CloseTab != "" {
		dst.CloseTab = src.CloseTab
	}
	if src.NextTab != "" {
		dst.NextTab = src.NextTab
	}
	if src.PrevTab != "" {
		dst.PrevTab = src.PrevTab
	}
	if src.Quit != "" {
		dst.Quit = src.Quit
	}
}

// defaultDataDir returns the default data directory.
func defaultDataDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "calico")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".calico"
	}
	return filepath.Join(home, ".config", "calico")
}

// ConfigFile returns the path to the config file.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "config.yaml")
}

// LogFile returns the path to the log file.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "calico.log")
}

// StoreFile returns the path to the saved-session database.
func (c *Config) StoreFile() string {
	return filepath.Join(c.DataDir, "sessions.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0755)
}
