package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jesseduffield/gocui"
)

const (
	tabsViewName     = "tabs"
	terminalViewName = "terminal"
)

// layout is the gocui manager function.
func (a *App) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	// Window size change: resize every surface now, debounce the backend
	// propagation through the coordinator.
	if maxX != a.lastMaxX || maxY != a.lastMaxY {
		a.lastMaxX, a.lastMaxY = maxX, maxY
		rows, cols := termSize(maxX, maxY)
		a.mu.Lock()
		for _, t := range a.tabs {
			t.surf.Resize(rows, cols)
		}
		a.mu.Unlock()
		a.resizer.Trigger()
	}

	if err := a.layoutTabBar(g, maxX); err != nil {
		return err
	}
	if err := a.layoutTerminal(g, maxX, maxY); err != nil {
		return err
	}
	return nil
}

// layoutTabBar draws the single-line tab strip across the top.
func (a *App) layoutTabBar(g *gocui.Gui, maxX int) error {
	v, err := g.SetView(tabsViewName, -1, -1, maxX, 1, 0)
	if err != nil && !errors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	v.Frame = false
	v.Wrap = false

	a.mu.Lock()
	var b strings.Builder
	for i, t := range a.tabs {
		label := fmt.Sprintf(" %d:%s ", i+1, t.shell)
		if i == a.active {
			b.WriteString("\x1b[7m" + label + "\x1b[0m")
		} else {
			b.WriteString(label)
		}
	}
	a.mu.Unlock()

	v.Clear()
	fmt.Fprint(v, b.String())
	return nil
}

// layoutTerminal draws the active tab's surface into the terminal view.
func (a *App) layoutTerminal(g *gocui.Gui, maxX, maxY int) error {
	v, err := g.SetView(terminalViewName, 0, 1, maxX-1, maxY-1, 0)
	if err != nil {
		if !errors.Is(err, gocui.ErrUnknownView) && err.Error() != "unknown view" {
			return err
		}
	}

	v.Frame = true
	v.Wrap = false
	v.Editable = true
	v.Editor = gocui.EditorFunc(a.editTerminal)

	t := a.activeTab()
	if t == nil {
		v.Title = " calico "
		v.Clear()
		return nil
	}

	title := fmt.Sprintf(" %s ", t.shell)
	a.mu.Lock()
	if t.cwd != "" {
		title = fmt.Sprintf(" %s - %s ", t.shell, t.cwd)
	}
	a.mu.Unlock()
	v.Title = title

	if a.firstCall {
		if _, err := g.SetCurrentView(terminalViewName); err != nil {
			return err
		}
		a.firstCall = false
	}

	var sb strings.Builder
	if err := t.surf.Render(&sb); err != nil {
		return err
	}
	v.Clear()
	fmt.Fprint(v, sb.String())

	if t.surf.CursorVisible() {
		x, y := t.surf.Cursor()
		v.SetCursor(x, y)
		g.Cursor = true
	} else {
		g.Cursor = false
	}

	return nil
}
