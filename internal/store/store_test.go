package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/calicoterm/calico/internal/session"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	saved := []SavedSession{
		{Shell: session.ShellBash, SpawnDir: "/home/alice"},
		{Shell: session.ShellZsh, SpawnDir: "/home/alice/src"},
		{Shell: session.ShellPowerShell, SpawnDir: "/tmp"},
	}
	if err := s.Save(ctx, saved); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != len(saved) {
		t.Fatalf("expected %d sessions, got %d", len(saved), len(got))
	}
	for i := range saved {
		if got[i] != saved[i] {
			t.Errorf("position %d: got %+v, want %+v", i, got[i], saved[i])
		}
	}
}

func TestSaveReplacesPreviousSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, []SavedSession{
		{Shell: session.ShellBash, SpawnDir: "/old-1"},
		{Shell: session.ShellBash, SpawnDir: "/old-2"},
	}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := s.Save(ctx, []SavedSession{
		{Shell: session.ShellZsh, SpawnDir: "/new"},
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 || got[0].SpawnDir != "/new" || got[0].Shell != session.ShellZsh {
		t.Errorf("unexpected saved set: %+v", got)
	}
}

func TestLoadEmptyStore(t *testing.T) {
	s := openTestStore(t)

	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set, got %+v", got)
	}
}

func TestLoadSkipsUnknownShell(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// A row written by a newer version with a shell this build does not
	// know. The restore skips it instead of failing.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO saved_sessions(position, shell, spawn_dir) VALUES (0, 'bash', '/ok'), (1, 'fish', '/skip'), (2, 'zsh', '/also-ok')`,
	); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %+v", got)
	}
	if got[0].SpawnDir != "/ok" || got[1].SpawnDir != "/also-ok" {
		t.Errorf("unexpected sessions: %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, []SavedSession{{Shell: session.ShellBash, SpawnDir: "/x"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty set after clear, got %+v", got)
	}
}
