package input

import (
	"testing"
	"time"

	"github.com/calicoterm/calico/internal/session"
	"github.com/calicoterm/calico/internal/surface"
)

// classifierHarness wires a classifier to fakes and one active session.
type classifierHarness struct {
	c          *Classifier
	surf       *surface.Surface
	writes     [][]byte
	forceKills int
	killCount  int
	killErr    error
	clock      time.Time
}

func newHarness(t *testing.T) *classifierHarness {
	t.Helper()

	h := &classifierHarness{
		surf:  surface.New(5, 40),
		clock: time.Now(),
	}

	reg := session.NewRegistry()
	s := session.New(session.ShellBash, "", session.Hooks{})
	reg.Register(s)
	s.Resolve("sess-1")
	reg.Bind("sess-1", s)
	reg.SetActive("sess-1")

	h.c = NewClassifier(
		DefaultCombos(),
		500*time.Millisecond,
		NewClipboard(nil),
		reg,
		func(id string) *surface.Surface { return h.surf },
		func(id string, data []byte) { h.writes = append(h.writes, data) },
		func(id string) (int, error) { h.forceKills++; return h.killCount, h.killErr },
		nil,
	)
	h.c.now = func() time.Time { return h.clock }
	return h
}

func (h *classifierHarness) selectText(t *testing.T, text string) {
	t.Helper()
	if _, err := h.surf.Write([]byte(text)); err != nil {
		t.Fatalf("surface write: %v", err)
	}
	h.surf.SetSelection(surface.Selection{EndRow: 0, EndCol: len(text) - 1})
}

func TestHandleKey_KillChildren(t *testing.T) {
	h := newHarness(t)

	if !h.c.HandleKey(KeyEvent{Rune: 'k', Ctrl: true}) {
		t.Fatal("kill-children combo should be consumed")
	}
	if h.forceKills != 1 {
		t.Errorf("expected 1 force kill, got %d", h.forceKills)
	}
	if len(h.writes) != 0 {
		t.Errorf("kill-children should not write to the session: %q", h.writes)
	}
}

func TestHandleKey_CopyWithSelection(t *testing.T) {
	h := newHarness(t)
	h.selectText(t, "hello")

	if !h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true}) {
		t.Fatal("copy should be consumed")
	}
	if h.surf.HasSelection() {
		t.Error("selection should be cleared after copy")
	}
	if len(h.writes) != 0 {
		t.Errorf("copy must not reach the session: %q", h.writes)
	}
	if got := h.c.clipboard.local; got != "hello" {
		t.Errorf("clipboard holds %q, want hello", got)
	}
}

func TestHandleKey_InterruptSingle(t *testing.T) {
	h := newHarness(t)

	if !h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true}) {
		t.Fatal("interrupt should be consumed")
	}
	if h.forceKills != 0 {
		t.Error("single press must not escalate")
	}
	if len(h.writes) != 1 || len(h.writes[0]) != 1 || h.writes[0][0] != 0x03 {
		t.Errorf("expected one ETX write, got %q", h.writes)
	}
}

func TestHandleKey_InterruptDoubleEscalates(t *testing.T) {
	h := newHarness(t)
	h.killCount = 2

	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})
	h.clock = h.clock.Add(100 * time.Millisecond)
	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})

	if h.forceKills != 1 {
		t.Errorf("expected escalation on the double press, got %d kills", h.forceKills)
	}
	// The second press killed children, so no second ETX went through.
	if len(h.writes) != 1 {
		t.Errorf("expected 1 write, got %d", len(h.writes))
	}
}

func TestHandleKey_InterruptDoubleFallsBackWhenIdle(t *testing.T) {
	h := newHarness(t)
	h.killCount = 0 // shell has no children

	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})
	h.clock = h.clock.Add(100 * time.Millisecond)
	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})

	if h.forceKills != 1 {
		t.Errorf("expected escalation attempt, got %d", h.forceKills)
	}
	// Nothing to kill: the raw interrupt byte still goes through.
	if len(h.writes) != 2 {
		t.Errorf("expected fallback ETX write, got %d writes", len(h.writes))
	}
}

func TestHandleKey_InterruptOutsideThreshold(t *testing.T) {
	h := newHarness(t)

	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})
	h.clock = h.clock.Add(time.Second)
	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})

	if h.forceKills != 0 {
		t.Error("slow presses must not escalate")
	}
	if len(h.writes) != 2 {
		t.Errorf("expected 2 ETX writes, got %d", len(h.writes))
	}
}

func TestHandleKey_SelectionDisambiguatesCtrlC(t *testing.T) {
	h := newHarness(t)
	h.selectText(t, "copied")

	// With a selection, ctrl+c copies and must not count as an interrupt.
	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})
	if len(h.writes) != 0 {
		t.Fatalf("copy press reached the session: %q", h.writes)
	}

	// The very next ctrl+c (selection now cleared) is a fresh single
	// interrupt, not a double.
	h.clock = h.clock.Add(100 * time.Millisecond)
	h.c.HandleKey(KeyEvent{Rune: 'c', Ctrl: true})
	if h.forceKills != 0 {
		t.Error("copy press leaked into the interrupt double-press window")
	}
	if len(h.writes) != 1 {
		t.Errorf("expected one ETX write, got %d", len(h.writes))
	}
}

func TestHandleKey_Passthrough(t *testing.T) {
	h := newHarness(t)

	if h.c.HandleKey(KeyEvent{Rune: 'a'}) {
		t.Error("plain key should pass through")
	}
	if h.c.HandleKey(KeyEvent{Rune: 'd', Ctrl: true}) {
		t.Error("unbound ctrl key should pass through")
	}
	if len(h.writes) != 0 {
		t.Errorf("passthrough must not write: %q", h.writes)
	}
}

func TestHandleKey_NoActiveSession(t *testing.T) {
	h := newHarness(t)
	h.c.reg = session.NewRegistry()

	if h.c.HandleKey(KeyEvent{Rune: 'k', Ctrl: true}) {
		t.Error("no active session: everything passes through")
	}
}

func TestSetCombosAppliesNewBindings(t *testing.T) {
	h := newHarness(t)

	combos := DefaultCombos()
	combos.KillChildren = Combo{Rune: 'x', Ctrl: true}
	h.c.SetCombos(combos)

	if h.c.HandleKey(KeyEvent{Rune: 'k', Ctrl: true}) {
		t.Error("old binding should no longer be consumed")
	}
	if !h.c.HandleKey(KeyEvent{Rune: 'x', Ctrl: true}) {
		t.Fatal("rebound kill-children combo should be consumed")
	}
	if h.forceKills != 1 {
		t.Errorf("expected 1 force kill, got %d", h.forceKills)
	}
}

func TestSetCombosConcurrentWithHandleKey(t *testing.T) {
	// Config reloads arrive on the watcher goroutine while the UI loop is
	// handling keys. Run both under the race detector.
	h := newHarness(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.c.SetCombos(DefaultCombos())
		}
	}()
	for i := 0; i < 200; i++ {
		h.c.HandleKey(KeyEvent{Rune: 'a'})
	}
	<-done
}

func TestHandlePaste(t *testing.T) {
	h := newHarness(t)

	if !h.c.HandlePaste("pasted text") {
		t.Fatal("paste should be consumed")
	}
	if len(h.writes) != 1 || string(h.writes[0]) != "pasted text" {
		t.Errorf("unexpected writes: %q", h.writes)
	}

	if !h.c.HandlePaste("") {
		t.Error("empty paste is a consumed no-op")
	}
}
