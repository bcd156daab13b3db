package input

import "testing"

func TestParseCombo(t *testing.T) {
	tests := []struct {
		in   string
		want Combo
	}{
		{"ctrl+c", Combo{Rune: 'c', Ctrl: true}},
		{"ctrl+alt+k", Combo{Rune: 'k', Ctrl: true, Alt: true}},
		{"alt+x", Combo{Rune: 'x', Alt: true}},
		{"CTRL+V", Combo{Rune: 'v', Ctrl: true}},
		{"  ctrl+q  ", Combo{Rune: 'q', Ctrl: true}},
		{"a", Combo{Rune: 'a'}},
	}
	for _, tt := range tests {
		got, err := ParseCombo(tt.in)
		if err != nil {
			t.Errorf("ParseCombo(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCombo(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestParseCombo_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "ctrl", "ctrl+", "ctrl+alt", "ctrl+abc", "+c"} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q) should fail", in)
		}
	}
}

func TestParseCombo_ShiftRejected(t *testing.T) {
	// Terminals do not deliver shift as a separate modifier, so a binding
	// that requires it could never fire. Rejecting it at parse time surfaces
	// the mistake in config validation instead of as a dead binding.
	for _, in := range []string{"shift+k", "ctrl+shift+k", "shift+c"} {
		if _, err := ParseCombo(in); err == nil {
			t.Errorf("ParseCombo(%q) should reject the shift modifier", in)
		}
	}
}

func TestComboMatches(t *testing.T) {
	c := Combo{Rune: 'c', Ctrl: true}

	if !c.Matches(KeyEvent{Rune: 'c', Ctrl: true}) {
		t.Error("exact event should match")
	}
	if !c.Matches(KeyEvent{Rune: 'C', Ctrl: true}) {
		t.Error("uppercase rune should match")
	}
	if c.Matches(KeyEvent{Rune: 'c'}) {
		t.Error("missing ctrl should not match")
	}
	if c.Matches(KeyEvent{Rune: 'c', Ctrl: true, Alt: true}) {
		t.Error("extra modifier should not match")
	}
}

func TestComboString(t *testing.T) {
	c := Combo{Rune: 'k', Ctrl: true, Alt: true}
	if got := c.String(); got != "ctrl+alt+k" {
		t.Errorf("String() = %q, want ctrl+alt+k", got)
	}

	// String output parses back to the same combo.
	parsed, err := ParseCombo(c.String())
	if err != nil || parsed != c {
		t.Errorf("round-trip failed: %+v, err %v", parsed, err)
	}
}
