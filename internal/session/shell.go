// Package session provides the session data model and registry for the PTY bridge.
package session

import (
	"fmt"
	"runtime"
)

// ShellType identifies which shell a session runs.
type ShellType int

const (
	// ShellBash is GNU bash.
	ShellBash ShellType = iota
	// ShellZsh is zsh.
	ShellZsh
	// ShellPowerShell is PowerShell (pwsh or Windows PowerShell).
	ShellPowerShell
	// ShellCmd is the Windows command prompt.
	ShellCmd
	// ShellGitBash is the bash shipped with Git for Windows.
	ShellGitBash
)

// String returns the canonical display name for the shell.
func (s ShellType) String() string {
	switch s {
	case ShellBash:
		return "bash"
	case ShellZsh:
		return "zsh"
	case ShellPowerShell:
		return "PowerShell"
	case ShellCmd:
		return "Command Prompt"
	case ShellGitBash:
		return "Git Bash"
	default:
		return "unknown"
	}
}

// Command returns the argv used to launch the shell.
func (s ShellType) Command() []string {
	switch s {
	case ShellBash:
		return []string{"bash", "--login"}
	case ShellZsh:
		return []string{"zsh", "-l"}
	case ShellPowerShell:
		if runtime.GOOS == "windows" {
			return []string{"powershell.exe", "-NoLogo"}
		}
		return []string{"pwsh", "-NoLogo"}
	case ShellCmd:
		return []string{"cmd.exe"}
	case ShellGitBash:
		return []string{"bash", "--login", "-i"}
	default:
		return []string{"sh"}
	}
}

// ParseShellType parses a config-file shell name into a ShellType.
func ParseShellType(name string) (ShellType, error) {
	switch name {
	case "bash":
		return ShellBash, nil
	case "zsh":
		return ShellZsh, nil
	case "powershell", "pwsh":
		return ShellPowerShell, nil
	case "cmd":
		return ShellCmd, nil
	case "gitbash", "git-bash":
		return ShellGitBash, nil
	}
	return 0, fmt.Errorf("unknown shell type: %q", name)
}

// ConfigName returns the name used for the shell in config files and the
// session store. Inverse of ParseShellType.
func (s ShellType) ConfigName() string {
	switch s {
	case ShellBash:
		return "bash"
	case ShellZsh:
		return "zsh"
	case ShellPowerShell:
		return "powershell"
	case ShellCmd:
		return "cmd"
	case ShellGitBash:
		return "gitbash"
	default:
		return "bash"
	}
}

// DefaultShell returns the shell to use when the config does not name one.
func DefaultShell() ShellType {
	if runtime.GOOS == "windows" {
		return ShellPowerShell
	}
	return ShellBash
}
