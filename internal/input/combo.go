// Package input classifies keyboard and paste events before they reach the
// display surface's default handling. A priority-ordered policy chain either
// consumes each event (kill-children, copy, interrupt, paste) or passes it
// through verbatim.
package input

import (
	"fmt"
	"strings"
	"unicode"
)

// KeyEvent is one keyboard event, independent of the UI toolkit.
type KeyEvent struct {
	Rune rune
	Ctrl bool
	Alt  bool
}

// Combo is a parsed key combination from config, e.g. "ctrl+c" or
// "ctrl+alt+k".
type Combo struct {
	Rune rune
	Ctrl bool
	Alt  bool
}

// ParseCombo parses a key combination string. Supported modifiers: ctrl and
// alt, joined with '+', followed by a single letter or character. Shift is
// rejected: terminals do not transmit it as a distinct modifier, so a
// shift-qualified binding could never fire.
func ParseCombo(s string) (Combo, error) {
	if strings.TrimSpace(s) == "" {
		return Combo{}, fmt.Errorf("empty key combination")
	}

	var c Combo
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")
	for i, part := range parts {
		last := i == len(parts)-1
		switch part {
		case "ctrl":
			if last {
				return Combo{}, fmt.Errorf("missing key after modifier: %q", s)
			}
			c.Ctrl = true
		case "alt":
			if last {
				return Combo{}, fmt.Errorf("missing key after modifier: %q", s)
			}
			c.Alt = true
		case "shift":
			return Combo{}, fmt.Errorf("shift is not a supported modifier: %q", s)
		default:
			if !last || len([]rune(part)) != 1 {
				return Combo{}, fmt.Errorf("invalid key combination: %q", s)
			}
			c.Rune = []rune(part)[0]
		}
	}
	if c.Rune == 0 {
		return Combo{}, fmt.Errorf("invalid key combination: %q", s)
	}
	return c, nil
}

// Matches reports whether the event is this combination.
func (c Combo) Matches(ev KeyEvent) bool {
	return unicode.ToLower(ev.Rune) == c.Rune &&
		ev.Ctrl == c.Ctrl && ev.Alt == c.Alt
}

// String renders the combination in config syntax.
func (c Combo) String() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("ctrl+")
	}
	if c.Alt {
		b.WriteString("alt+")
	}
	b.WriteRune(c.Rune)
	return b.String()
}
