package input

import (
	"io"
	"os/exec"
	"runtime"
	"strings"
	"sync"

	"github.com/aymanbagabas/go-osc52/v2"
)

// Clipboard copies and pastes text. Copies go to an internal store, to the
// hosting terminal via OSC 52, and best-effort to the system clipboard tool.
// Pastes prefer the system tool and fall back to the internal store, so copy
// and paste still round-trip on hosts with no clipboard utility installed.
type Clipboard struct {
	mu    sync.Mutex
	local string

	// osc52Out receives the OSC 52 escape sequence; nil disables it.
	osc52Out io.Writer
}

// NewClipboard creates a clipboard. osc52Out is typically the tty the UI
// runs on; pass nil to skip OSC 52 emission.
func NewClipboard(osc52Out io.Writer) *Clipboard {
	return &Clipboard{osc52Out: osc52Out}
}

// Copy stores text and pushes it to the host clipboard.
func (c *Clipboard) Copy(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	c.local = text
	out := c.osc52Out
	c.mu.Unlock()

	if out != nil {
		osc52.New(text).WriteTo(out)
	}

	if cmd := copyCommand(); cmd != nil {
		cmd.Stdin = strings.NewReader(text)
		cmd.Run()
	}
}

// Paste returns the clipboard contents. System tool output wins; the
// internal store covers hosts without one.
func (c *Clipboard) Paste() string {
	if cmd := pasteCommand(); cmd != nil {
		if out, err := cmd.Output(); err == nil && len(out) > 0 {
			return string(out)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.local
}

func copyCommand() *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbcopy")
	case "linux":
		if _, err := exec.LookPath("wl-copy"); err == nil {
			return exec.Command("wl-copy")
		}
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard")
		}
	}
	return nil
}

func pasteCommand() *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("pbpaste")
	case "linux":
		if _, err := exec.LookPath("wl-paste"); err == nil {
			return exec.Command("wl-paste", "--no-newline")
		}
		if _, err := exec.LookPath("xclip"); err == nil {
			return exec.Command("xclip", "-selection", "clipboard", "-o")
		}
	}
	return nil
}
