package app

import (
	"sync"

	"github.com/jesseduffield/gocui"

	"github.com/calicoterm/calico/internal/input"
	"github.com/calicoterm/calico/internal/surface"
)

// ctrlRunes maps gocui's ctrl-key constants back to the letter pressed.
var ctrlRunes = map[gocui.Key]rune{
	gocui.KeyCtrlA: 'a', gocui.KeyCtrlB: 'b', gocui.KeyCtrlC: 'c',
	gocui.KeyCtrlD: 'd', gocui.KeyCtrlE: 'e', gocui.KeyCtrlF: 'f',
	gocui.KeyCtrlG: 'g', gocui.KeyCtrlJ: 'j', gocui.KeyCtrlK: 'k',
	gocui.KeyCtrlL: 'l', gocui.KeyCtrlN: 'n', gocui.KeyCtrlO: 'o',
	gocui.KeyCtrlP: 'p', gocui.KeyCtrlQ: 'q', gocui.KeyCtrlR: 'r',
	gocui.KeyCtrlS: 's', gocui.KeyCtrlT: 't', gocui.KeyCtrlU: 'u',
	gocui.KeyCtrlV: 'v', gocui.KeyCtrlW: 'w', gocui.KeyCtrlX: 'x',
	gocui.KeyCtrlY: 'y', gocui.KeyCtrlZ: 'z',
}

// escapeSequences maps navigation keys to the bytes a terminal sends.
var escapeSequences = map[gocui.Key][]byte{
	gocui.KeyArrowUp:    []byte("\x1b[A"),
	gocui.KeyArrowDown:  []byte("\x1b[B"),
	gocui.KeyArrowRight: []byte("\x1b[C"),
	gocui.KeyArrowLeft:  []byte("\x1b[D"),
	gocui.KeyHome:       []byte("\x1b[H"),
	gocui.KeyEnd:        []byte("\x1b[F"),
	gocui.KeyPgup:       []byte("\x1b[5~"),
	gocui.KeyPgdn:       []byte("\x1b[6~"),
	gocui.KeyDelete:     []byte("\x1b[3~"),
	gocui.KeyInsert:     []byte("\x1b[2~"),
}

// editTerminal receives every key event for the terminal view. App-level
// combos run first, then the input classifier's policy chain; whatever
// survives is translated to terminal bytes and written to the active
// session.
func (a *App) editTerminal(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	if ev, ok := translateKey(key, ch, mod); ok {
		if a.handleAppCombo(ev) {
			return true
		}
		if a.classifier.HandleKey(ev) {
			return true
		}
	}

	data := keyBytes(key, ch, mod)
	if len(data) == 0 {
		return false
	}
	if id := a.reg.ActiveID(); id != "" {
		a.br.Write(id, data)
	}
	return true
}

// handleAppCombo runs the tab-management and quit bindings, which outrank
// the session-level policies.
func (a *App) handleAppCombo(ev input.KeyEvent) bool {
	a.comboMu.Lock()
	newTabC, closeC, nextC, prevC, quitC := a.newTabC, a.closeC, a.nextC, a.prevC, a.quitC
	a.comboMu.Unlock()

	switch {
	case quitC.Matches(ev):
		a.gui.Update(func(g *gocui.Gui) error { return gocui.ErrQuit })
		return true
	case newTabC.Matches(ev):
		dir := ""
		if t := a.activeTab(); t != nil {
			a.mu.Lock()
			dir = t.cwd
			a.mu.Unlock()
		}
		a.newTab(a.defaultShell(), dir, "")
		return true
	case closeC.Matches(ev):
		if err := a.closeTab(); err != nil {
			a.gui.Update(func(g *gocui.Gui) error { return err })
		}
		return true
	case nextC.Matches(ev):
		a.switchTab(1)
		return true
	case prevC.Matches(ev):
		a.switchTab(-1)
		return true
	}
	return false
}

// translateKey converts a gocui key event into the classifier's form.
func translateKey(key gocui.Key, ch rune, mod gocui.Modifier) (input.KeyEvent, bool) {
	if r, ok := ctrlRunes[key]; ok {
		return input.KeyEvent{Rune: r, Ctrl: true, Alt: mod&gocui.ModAlt != 0}, true
	}
	if ch != 0 {
		return input.KeyEvent{Rune: ch, Alt: mod&gocui.ModAlt != 0}, true
	}
	return input.KeyEvent{}, false
}

// keyBytes converts an unconsumed key event to the bytes a real terminal
// would send to the shell.
func keyBytes(key gocui.Key, ch rune, mod gocui.Modifier) []byte {
	if seq, ok := escapeSequences[key]; ok {
		return seq
	}

	switch key {
	case gocui.KeyEnter:
		return []byte("\r")
	case gocui.KeyTab:
		return []byte("\t")
	case gocui.KeyEsc:
		return []byte("\x1b")
	case gocui.KeySpace:
		return []byte(" ")
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		return []byte{0x7f}
	}

	// Remaining ctrl combinations map straight to their control byte.
	if key > 0 && key < 0x20 {
		return []byte{byte(key)}
	}

	if ch != 0 {
		if mod&gocui.ModAlt != 0 {
			return append([]byte{0x1b}, []byte(string(ch))...)
		}
		return []byte(string(ch))
	}
	return nil
}

// selectionState tracks an in-progress mouse selection on the terminal view.
type selectionState struct {
	mu     sync.Mutex
	row    int
	col    int
	active bool
}

// setupMouse wires click-and-drag selection on the terminal view.
func (a *App) setupMouse(g *gocui.Gui) error {
	g.Mouse = true

	if err := g.SetKeybinding(terminalViewName, gocui.MouseLeft, gocui.ModNone, a.mouseDown); err != nil {
		return err
	}
	return g.SetKeybinding(terminalViewName, gocui.MouseLeft, gocui.ModMotion, a.mouseDrag)
}

// mouseDown anchors a new selection at the click position.
func (a *App) mouseDown(g *gocui.Gui, v *gocui.View) error {
	t := a.activeTab()
	if t == nil {
		return nil
	}
	cx, cy := v.Cursor()
	a.sel.mu.Lock()
	a.sel.row, a.sel.col, a.sel.active = cy, cx, true
	a.sel.mu.Unlock()
	t.surf.ClearSelection()
	return nil
}

// mouseDrag extends the selection from the anchor to the drag position.
func (a *App) mouseDrag(g *gocui.Gui, v *gocui.View) error {
	t := a.activeTab()
	if t == nil {
		return nil
	}
	a.sel.mu.Lock()
	anchorRow, anchorCol, active := a.sel.row, a.sel.col, a.sel.active
	a.sel.mu.Unlock()
	if !active {
		return nil
	}
	cx, cy := v.Cursor()
	t.surf.SetSelection(surface.Selection{
		StartRow: anchorRow, StartCol: anchorCol,
		EndRow: cy, EndCol: cx,
	})
	return nil
}
