package session

import "testing"

func TestParseShellType(t *testing.T) {
	tests := []struct {
		name string
		want ShellType
	}{
		{"bash", ShellBash},
		{"zsh", ShellZsh},
		{"powershell", ShellPowerShell},
		{"pwsh", ShellPowerShell},
		{"cmd", ShellCmd},
		{"gitbash", ShellGitBash},
		{"git-bash", ShellGitBash},
	}
	for _, tt := range tests {
		got, err := ParseShellType(tt.name)
		if err != nil {
			t.Errorf("ParseShellType(%q) returned error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseShellType(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseShellType_Unknown(t *testing.T) {
	if _, err := ParseShellType("fish"); err == nil {
		t.Error("expected error for unknown shell")
	}
}

func TestConfigNameRoundTrip(t *testing.T) {
	for _, shell := range []ShellType{ShellBash, ShellZsh, ShellPowerShell, ShellCmd, ShellGitBash} {
		parsed, err := ParseShellType(shell.ConfigName())
		if err != nil {
			t.Errorf("%v: ConfigName %q does not parse: %v", shell, shell.ConfigName(), err)
			continue
		}
		if parsed != shell {
			t.Errorf("%v: round-trip gave %v", shell, parsed)
		}
	}
}

func TestShellCommandNonEmpty(t *testing.T) {
	for _, shell := range []ShellType{ShellBash, ShellZsh, ShellPowerShell, ShellCmd, ShellGitBash} {
		if len(shell.Command()) == 0 {
			t.Errorf("%v: empty argv", shell)
		}
	}
}
