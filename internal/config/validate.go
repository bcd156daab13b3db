package config

import (
	"fmt"

	"github.com/calicoterm/calico/internal/input"
	"github.com/calicoterm/calico/internal/session"
)

// Validate checks that the configuration parses: every keybinding must be a
// valid combination and the default shell must be a known shell name.
func Validate(cfg *Config) error {
	if cfg.DefaultShell != "" {
		if _, err := session.ParseShellType(cfg.DefaultShell); err != nil {
			return fmt.Errorf("default_shell: %w", err)
		}
	}

	bindings := map[string]string{
		"kill_children": cfg.Keys.KillChildren,
		"copy":          cfg.Keys.Copy,
		"interrupt":     cfg.Keys.Interrupt,
		"paste":         cfg.Keys.Paste,
		"new_tab":       cfg.Keys.NewTab,
		"close_tab":     cfg.Keys.CloseTab,
		"next_tab":      cfg.Keys.NextTab,
		"prev_tab":      cfg.Keys.PrevTab,
		"quit":          cfg.Keys.Quit,
	}
	for name, binding := range bindings {
		if _, err := input.ParseCombo(binding); err != nil {
			return fmt.Errorf("keys.%s: %w", name, err)
		}
	}

	if cfg.ResizeDebounceMS < 0 {
		return fmt.Errorf("resize_debounce_ms must not be negative")
	}
	if cfg.PendingBuffer < 0 {
		return fmt.Errorf("pending_buffer must not be negative")
	}
	if cfg.InterruptThresholdMS < 0 {
		return fmt.Errorf("interrupt_threshold_ms must not be negative")
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}

	return nil
}

// Combos parses the keybindings into input combinations. Call Validate
// first; parsing errors here fall back to the defaults for that binding.
func (c *Config) Combos() input.Combos {
	combos := input.DefaultCombos()
	if combo, err := input.ParseCombo(c.Keys.KillChildren); err == nil {
		combos.KillChildren = combo
	}
	if combo, err := input.ParseCombo(c.Keys.Copy); err == nil {
		combos.Copy = combo
	}
	if combo, err := input.ParseCombo(c.Keys.Interrupt); err == nil {
		combos.Interrupt = combo
	}
	if combo, err := input.ParseCombo(c.Keys.Paste); err == nil {
		combos.Paste = combo
	}
	return combos
}
