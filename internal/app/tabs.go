package app

import (
	"context"
	"time"

	"github.com/jesseduffield/gocui"

	"github.com/calicoterm/calico/internal/session"
	"github.com/calicoterm/calico/internal/store"
	"github.com/calicoterm/calico/internal/surface"
)

// newTab spawns a session and binds it to a fresh tab. Spawn failure keeps
// the tab: the diagnostic line the bridge wrote to the surface is what the
// user sees in the pane.
func (a *App) newTab(shell session.ShellType, dir, initialCmd string) {
	rows, cols := a.measure()
	surf := surface.New(rows, cols)

	t := &tab{
		surf:  surf,
		shell: shell,
		cwd:   dir,
	}

	a.mu.Lock()
	a.tabs = append(a.tabs, t)
	a.active = len(a.tabs) - 1
	a.mu.Unlock()

	id, err := a.br.Spawn(shell, dir, a.hooksFor(t))
	if err != nil {
		a.log.Warn("tab spawn failed", "shell", shell.String(), "err", err)
		a.gui.Update(func(g *gocui.Gui) error { return nil })
		return
	}

	a.mu.Lock()
	t.id = id
	a.mu.Unlock()

	a.reg.SetActive(id)
	a.br.Resize(id, rows, cols)
	if initialCmd != "" {
		a.br.Write(id, []byte(initialCmd+"\n"))
	}
	a.persist()
	a.gui.Update(func(g *gocui.Gui) error { return nil })
}

// hooksFor builds the session callbacks for a tab. The hooks survive
// respawn; OnReady re-homes the tab onto the replacement session id.
func (a *App) hooksFor(t *tab) session.Hooks {
	return session.Hooks{
		OnData: func(data []byte) {
			t.surf.Write(data)
			a.gui.Update(func(g *gocui.Gui) error { return nil })
		},
		OnCwdChange: func(dir string) {
			a.mu.Lock()
			t.cwd = dir
			a.mu.Unlock()
			a.gui.Update(func(g *gocui.Gui) error { return nil })
		},
		OnExit: func(code *int) {
			a.log.Debug("tab session exited", "session", t.id)
		},
		OnReady: func(newID string) {
			a.mu.Lock()
			wasActive := a.tabs != nil && a.active < len(a.tabs) && a.tabs[a.active] == t
			t.id = newID
			a.mu.Unlock()
			if wasActive {
				a.reg.SetActive(newID)
			}
			rows, cols := a.measure()
			a.br.Resize(newID, rows, cols)
			a.persist()
			a.gui.Update(func(g *gocui.Gui) error { return nil })
		},
	}
}

// closeTab kills the active tab's session and disposes its surface. Closing
// the last tab quits.
func (a *App) closeTab() error {
	a.mu.Lock()
	if len(a.tabs) == 0 {
		a.mu.Unlock()
		return gocui.ErrQuit
	}
	t := a.tabs[a.active]
	a.tabs = append(a.tabs[:a.active], a.tabs[a.active+1:]...)
	if a.active >= len(a.tabs) && len(a.tabs) > 0 {
		a.active = len(a.tabs) - 1
	}
	var next *tab
	if len(a.tabs) > 0 {
		next = a.tabs[a.active]
	}
	a.mu.Unlock()

	// Kill detaches the session's listeners before the backend request, so
	// disposing the surface afterwards cannot race a late write.
	if t.id != "" {
		a.br.Kill(t.id)
	}
	t.surf.Dispose()

	if next == nil {
		return gocui.ErrQuit
	}
	if next.id != "" {
		a.reg.SetActive(next.id)
		a.resizer.Trigger()
	}
	a.persist()
	return nil
}

// switchTab moves focus by delta (wrapping) and retargets input and resize
// at the newly active session.
func (a *App) switchTab(delta int) {
	a.mu.Lock()
	if len(a.tabs) == 0 {
		a.mu.Unlock()
		return
	}
	a.active = (a.active + delta + len(a.tabs)) % len(a.tabs)
	t := a.tabs[a.active]
	a.mu.Unlock()

	if t.id != "" {
		a.reg.SetActive(t.id)
		a.resizer.Trigger()
	}
}

// activeTab returns the focused tab, or nil.
func (a *App) activeTab() *tab {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.tabs) == 0 {
		return nil
	}
	return a.tabs[a.active]
}

// persist saves the current session set in tab order. Best-effort and off
// the UI loop; the app works fine without the store.
func (a *App) persist() {
	if a.st == nil {
		return
	}

	a.mu.Lock()
	saved := make([]store.SavedSession, 0, len(a.tabs))
	for _, t := range a.tabs {
		saved = append(saved, store.SavedSession{Shell: t.shell, SpawnDir: t.cwdAtSpawn(a)})
	}
	a.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.st.Save(ctx, saved); err != nil {
			a.log.Warn("session save failed", "err", err)
		}
	}()
}

// cwdAtSpawn returns the directory a restored tab should reopen in: the
// original spawn directory, never the parser-reported one. Caller holds a.mu.
func (t *tab) cwdAtSpawn(a *App) string {
	if t.id != "" {
		if s := a.reg.Get(t.id); s != nil {
			return s.SpawnDir()
		}
	}
	return t.cwd
}
