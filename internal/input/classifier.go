package input

import (
	"log/slog"
	"sync"
	"time"

	"github.com/calicoterm/calico/internal/session"
	"github.com/calicoterm/calico/internal/surface"
)

// DefaultInterruptThreshold is the window within which a second interrupt
// press escalates to killing child processes.
const DefaultInterruptThreshold = 500 * time.Millisecond

// interruptByte is the raw ETX byte a terminal sends for ctrl-c.
const interruptByte = 0x03

// Combos holds the configured key combinations, in policy priority order.
type Combos struct {
	KillChildren Combo
	Copy         Combo
	Interrupt    Combo
	Paste        Combo
}

// DefaultCombos returns the default key combinations. Copy and interrupt
// share ctrl+c: with a selection present the press copies, without one it
// interrupts, which is how mainstream terminal emulators resolve the clash.
func DefaultCombos() Combos {
	return Combos{
		KillChildren: Combo{Rune: 'k', Ctrl: true},
		Copy:         Combo{Rune: 'c', Ctrl: true},
		Interrupt:    Combo{Rune: 'c', Ctrl: true},
		Paste:        Combo{Rune: 'v', Ctrl: true},
	}
}

// Classifier applies the input policy chain to key events for the active
// session. Consumed events never reach the surface's default handling.
type Classifier struct {
	comboMu   sync.Mutex
	combos    Combos // guarded by comboMu; swapped by config reload
	threshold time.Duration
	clipboard *Clipboard
	log       *slog.Logger

	reg       *session.Registry
	surfaceOf func(id string) *surface.Surface
	write     func(id string, data []byte)
	forceKill func(id string) (int, error)

	now func() time.Time
}

// NewClassifier wires a classifier to its collaborators. surfaceOf may
// return nil for sessions without a surface; threshold zero means
// DefaultInterruptThreshold.
func NewClassifier(
	combos Combos,
	threshold time.Duration,
	clipboard *Clipboard,
	reg *session.Registry,
	surfaceOf func(id string) *surface.Surface,
	write func(id string, data []byte),
	forceKill func(id string) (int, error),
	log *slog.Logger,
) *Classifier {
	if threshold <= 0 {
		threshold = DefaultInterruptThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Classifier{
		combos:    combos,
		threshold: threshold,
		clipboard: clipboard,
		log:       log.With("component", "input"),
		reg:       reg,
		surfaceOf: surfaceOf,
		write:     write,
		forceKill: forceKill,
		now:       time.Now,
	}
}

// SetCombos swaps the key combinations, e.g. after a config reload. Safe to
// call from the reload watcher goroutine while keys are being handled.
func (c *Classifier) SetCombos(combos Combos) {
	c.comboMu.Lock()
	c.combos = combos
	c.comboMu.Unlock()
}

// HandleKey applies the policy chain to one key event. It returns true when
// the event was consumed; false means the caller forwards it to the
// surface's default handling, which writes it to the session.
func (c *Classifier) HandleKey(ev KeyEvent) bool {
	active := c.reg.Active()
	if active == nil {
		return false
	}
	id := active.ID()

	c.comboMu.Lock()
	combos := c.combos
	c.comboMu.Unlock()

	// 1. Kill-children shortcut.
	if combos.KillChildren.Matches(ev) {
		count, err := c.forceKill(id)
		if err != nil {
			c.log.Warn("kill children failed", "session", id, "err", err)
		} else {
			c.log.Info("killed children", "session", id, "count", count)
		}
		return true
	}

	surf := c.surfaceOf(id)
	hasSelection := surf != nil && surf.HasSelection()

	// 2. Copy when a selection exists.
	if combos.Copy.Matches(ev) && hasSelection {
		text := surf.SelectedText()
		surf.ClearSelection()
		if text != "" {
			c.clipboard.Copy(text)
		}
		return true
	}

	// 3. Interrupt, possibly escalating on a double press. A single ctrl-c
	// is often ignored by the foreground program, and killing outright on
	// one press is too aggressive, so the second press within the
	// threshold tries the child kill and falls back to the raw byte.
	if combos.Interrupt.Matches(ev) && !hasSelection {
		if active.MarkInterrupt(c.now(), c.threshold) {
			count, err := c.forceKill(id)
			if err == nil && count > 0 {
				return true
			}
			if err != nil {
				c.log.Warn("interrupt escalation failed", "session", id, "err", err)
			}
		}
		c.write(id, []byte{interruptByte})
		return true
	}

	// 4. Paste. The clipboard read may shell out, so it runs off the UI
	// loop; the write targets whatever session is active when it lands.
	if combos.Paste.Matches(ev) {
		go func() {
			text := c.clipboard.Paste()
			if text == "" {
				return
			}
			if activeID := c.reg.ActiveID(); activeID != "" {
				c.write(activeID, []byte(text))
			}
		}()
		return true
	}

	// 5. Everything else passes through.
	return false
}

// HandlePaste routes pasted text (e.g. a terminal bracketed paste delivered
// by the UI toolkit) straight to the active session.
func (c *Classifier) HandlePaste(text string) bool {
	if text == "" {
		return true
	}
	id := c.reg.ActiveID()
	if id == "" {
		return false
	}
	c.write(id, []byte(text))
	return true
}
