// Package app wires the session bridge to the gocui UI: one tab per shell
// session, a tab bar, and a terminal view rendered from the active session's
// display surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jesseduffield/gocui"

	"github.com/calicoterm/calico/internal/bridge"
	"github.com/calicoterm/calico/internal/config"
	"github.com/calicoterm/calico/internal/input"
	"github.com/calicoterm/calico/internal/session"
	"github.com/calicoterm/calico/internal/store"
	"github.com/calicoterm/calico/internal/surface"
)

// tab is one pane: a session id (replaced on respawn) plus its surface.
type tab struct {
	id    string
	surf  *surface.Surface
	shell session.ShellType
	cwd   string
}

// App is the main application.
type App struct {
	gui     *gocui.Gui
	cfg     *config.Config
	log     *slog.Logger
	br      *bridge.Bridge
	reg     *session.Registry
	st      *store.Store // nil when the session store is unavailable
	startup *config.Startup

	classifier *input.Classifier
	resizer    *bridge.ResizeCoordinator
	watcher    *config.Watcher
	sel        selectionState

	// App-level key combinations, swapped on config reload.
	comboMu  sync.Mutex
	newTabC  input.Combo
	closeC   input.Combo
	nextC    input.Combo
	prevC    input.Combo
	quitC    input.Combo

	mu         sync.Mutex
	tabs       []*tab
	active     int
	lastMaxX   int
	lastMaxY   int
	firstCall  bool
}

// New creates the application. st may be nil; the app then runs without
// session persistence.
func New(cfg *config.Config, br *bridge.Bridge, st *store.Store, startup *config.Startup, log *slog.Logger) (*App, error) {
	g, err := gocui.NewGui(gocui.NewGuiOpts{
		OutputMode: gocui.OutputTrue,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing GUI: %w", err)
	}

	if log == nil {
		log = slog.Default()
	}

	a := &App{
		gui:       g,
		cfg:       cfg,
		log:       log.With("component", "app"),
		br:        br,
		reg:       br.Registry(),
		st:        st,
		startup:   startup,
		firstCall: true,
	}
	a.applyKeys(cfg)

	clipboard := input.NewClipboard(os.Stdout)
	a.classifier = input.NewClassifier(
		cfg.Combos(),
		time.Duration(cfg.InterruptThresholdMS)*time.Millisecond,
		clipboard,
		a.reg,
		a.surfaceOf,
		br.Write,
		br.ForceKillChildren,
		log,
	)

	a.resizer = bridge.NewResizeCoordinator(
		time.Duration(cfg.ResizeDebounceMS)*time.Millisecond,
		a.reg.ActiveID,
		a.measure,
		br.Resize,
	)

	if w, err := config.NewWatcher(cfg.ConfigFile(), log, a.onConfigReload); err == nil {
		a.watcher = w
		a.watcher.Start()
	} else {
		a.log.Warn("config watcher unavailable", "err", err)
	}

	return a, nil
}

// applyKeys parses the app-level tab/quit combinations.
func (a *App) applyKeys(cfg *config.Config) {
	a.comboMu.Lock()
	defer a.comboMu.Unlock()
	a.newTabC = mustCombo(cfg.Keys.NewTab, input.Combo{Rune: 't', Ctrl: true})
	a.closeC = mustCombo(cfg.Keys.CloseTab, input.Combo{Rune: 'w', Ctrl: true})
	a.nextC = mustCombo(cfg.Keys.NextTab, input.Combo{Rune: 'n', Ctrl: true})
	a.prevC = mustCombo(cfg.Keys.PrevTab, input.Combo{Rune: 'p', Ctrl: true})
	a.quitC = mustCombo(cfg.Keys.Quit, input.Combo{Rune: 'q', Ctrl: true})
}

func mustCombo(s string, fallback input.Combo) input.Combo {
	combo, err := input.ParseCombo(s)
	if err != nil {
		return fallback
	}
	return combo
}

// onConfigReload applies a live config edit to the running classifier and
// app keybindings.
func (a *App) onConfigReload(cfg *config.Config) {
	a.classifier.SetCombos(cfg.Combos())
	a.applyKeys(cfg)
	a.gui.Update(func(g *gocui.Gui) error { return nil })
}

// Run opens the initial tabs and runs the main loop until quit.
func (a *App) Run() error {
	defer a.Close()

	a.gui.SetManagerFunc(a.layout)

	if err := a.setupMouse(a.gui); err != nil {
		return fmt.Errorf("mouse bindings: %w", err)
	}

	if err := a.openInitialTabs(); err != nil {
		return err
	}

	// Handle SIGINT/SIGTERM for clean exit
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		a.gui.Update(func(g *gocui.Gui) error {
			return gocui.ErrQuit
		})
	}()

	if err := a.gui.MainLoop(); err != nil && !errors.Is(err, gocui.ErrQuit) && err.Error() != "quit" {
		return fmt.Errorf("main loop: %w", err)
	}
	return nil
}

// openInitialTabs restores the saved session set (unless the startup flag
// skips it) and applies the consume-once startup options.
func (a *App) openInitialTabs() error {
	var restored int
	if a.st != nil && !a.startup.SkipRestore() {
		saved, err := a.st.Load(context.Background())
		if err != nil {
			a.log.Warn("session restore failed", "err", err)
		}
		for _, sv := range saved {
			a.newTab(sv.Shell, sv.SpawnDir, "")
			restored++
		}
	}

	opts, _ := a.startup.Consume()
	if restored == 0 || opts.WorkingDir != "" || opts.Command != "" {
		dir := opts.WorkingDir
		if dir == "" {
			dir, _ = os.UserHomeDir()
		}
		a.newTab(a.defaultShell(), dir, opts.Command)
	}
	return nil
}

func (a *App) defaultShell() session.ShellType {
	if a.cfg.DefaultShell != "" {
		if shell, err := session.ParseShellType(a.cfg.DefaultShell); err == nil {
			return shell
		}
	}
	return session.DefaultShell()
}

// surfaceOf returns the surface owned by the tab currently bound to the id.
func (a *App) surfaceOf(id string) *surface.Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, t := range a.tabs {
		if t.id == id {
			return t.surf
		}
	}
	return nil
}

// measure returns the terminal view's natural dimensions for the current
// window size. Called lazily when the resize debounce fires.
func (a *App) measure() (rows, cols int) {
	maxX, maxY := a.gui.Size()
	return termSize(maxX, maxY)
}

// termSize maps window size to the terminal view's interior size: one line
// of tab bar plus the view frame.
func termSize(maxX, maxY int) (rows, cols int) {
	rows = maxY - 3
	cols = maxX - 2
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	return rows, cols
}

// Close tears the UI and all sessions down.
func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	a.resizer.Cancel()
	a.mu.Lock()
	tabs := a.tabs
	a.tabs = nil
	a.mu.Unlock()
	for _, t := range tabs {
		if t.id != "" {
			a.br.Kill(t.id)
		}
		t.surf.Dispose()
	}
	a.gui.Close()
}
