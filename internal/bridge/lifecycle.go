package bridge

import (
	"fmt"

	"github.com/calicoterm/calico/internal/session"
)

// Spawn requests a new shell process and returns its session id. The session
// is registered in Pending state before the backend call, so output arriving
// ahead of the returned identifier is buffered and replayed in order.
//
// On failure the error is written into the pane as a diagnostic line and
// returned; the bridge does not retry.
func (b *Bridge) Spawn(shell session.ShellType, workingDir string, hooks session.Hooks) (string, error) {
	s := session.New(shell, workingDir, hooks)
	s.SetPendingLimit(b.pendingLimit)
	b.reg.Register(s)

	b.noteSpawn()
	id, err := b.be.Spawn(shell, workingDir)
	if err != nil {
		b.abandonSpawn()
		b.reg.Discard(s)
		spawnErr := &SpawnError{Shell: shell.String(), Err: err}
		b.log.Error("spawn failed", "shell", shell.String(), "dir", workingDir, "err", err)
		if hooks.OnData != nil {
			hooks.OnData(diagnostic(spawnErr.Error()))
		}
		return "", spawnErr
	}

	code, exited := b.claim(s, id)
	b.log.Info("session started", "session", id, "shell", shell.String(), "dir", workingDir)
	if exited {
		// The process died before Spawn returned its id. The exit was held
		// alongside the early output; run the respawn path now that the id
		// is bound.
		b.handleExit(s, id, code, b.reg.ActiveID() == id)
	}
	return id, nil
}

// Write forwards bytes to a session's input stream. Failures are logged and
// swallowed: a transient write error must not make the terminal stop
// accepting input, and the caller has nothing useful to do with it.
func (b *Bridge) Write(id string, data []byte) {
	if b.reg.Get(id) == nil {
		b.log.Warn("write dropped", "err", &WriteError{SessionID: id, Err: errNotFound})
		return
	}
	if err := b.be.Write(id, data); err != nil {
		b.log.Warn("write dropped", "err", &WriteError{SessionID: id, Err: err})
	}
}

// errNotFound backs WriteError logging for writes to unregistered sessions.
var errNotFound = fmt.Errorf("session not found")

// Resize propagates new dimensions to the backend process and records them
// on the session once acknowledged.
func (b *Bridge) Resize(id string, rows, cols int) {
	s := b.reg.Get(id)
	if s == nil {
		return
	}
	if err := b.be.Resize(id, rows, cols); err != nil {
		b.log.Warn("resize failed", "session", id, "err", err)
		return
	}
	s.SetDimensions(rows, cols)
}

// Kill tears a session down at the UI's request. Idempotent: killing an
// unknown or already-dead session is a no-op. Listeners are detached and
// per-session timers cancelled before the backend kill is issued, so a
// disposed surface never sees another write; the eventual exit event finds
// the id retired and is dropped, which is why the UI never receives a
// duplicate exit.
func (b *Bridge) Kill(id string) {
	b.mu.Lock()
	s := b.reg.Get(id)
	if s == nil {
		b.mu.Unlock()
		return
	}
	s.SetHooks(session.Hooks{})
	s.SetState(session.StateExited)
	b.reg.Remove(id)
	b.mu.Unlock()

	s.RunCleanups()

	if err := b.be.Kill(id); err != nil {
		b.log.Warn("kill failed", "session", id, "err", err)
	}
	b.log.Info("session killed", "session", id)
}

// ForceKillChildren terminates descendant processes of the shell, leaving
// the shell alive. Returns the number killed (0 when the shell is idle).
// The session's child count is refreshed before the kill, so a failed
// attempt still leaves an accurate count behind.
func (b *Bridge) ForceKillChildren(id string) (int, error) {
	s := b.reg.Get(id)
	if s == nil {
		return 0, fmt.Errorf("force-kill: session %s not found", id)
	}
	if n, err := b.be.ChildCount(id); err == nil {
		s.SetChildCount(n)
	}
	count, err := b.be.ForceKillChildren(id)
	if err != nil {
		return count, err
	}
	s.SetChildCount(0)
	return count, nil
}

// handleExit runs the auto-respawn policy for a process exit the UI did not
// ask for. The old identifier is retired before the replacement spawn so
// stale events can never route to the pane under the old id.
func (b *Bridge) handleExit(s *session.Session, oldID string, code *int, wasActive bool) {
	b.log.Info("session exited", "session", oldID, "code", exitCodeAttr(code))

	s.SetState(session.StateRespawning)
	b.reg.Retire(oldID)

	hooks := s.Hooks()
	if hooks.OnExit != nil {
		hooks.OnExit(code)
	}

	go b.respawn(s, oldID, wasActive)
}

// respawn replaces an exited process with a fresh one of the same shell
// type, in the directory captured at the first spawn. The parser-reported
// directory is deliberately not used: a misfired prompt match must never
// leak a wrong path into a spawn.
func (b *Bridge) respawn(s *session.Session, oldID string, wasActive bool) {
	shell := s.Shell()
	dir := s.SpawnDir()

	b.noteSpawn()
	id, err := b.be.Spawn(shell, dir)
	if err != nil {
		b.abandonSpawn()
		s.SetState(session.StateExited)
		respawnErr := &RespawnError{SessionID: oldID, Err: err}
		b.log.Error("respawn failed", "session", oldID, "err", err)
		if hooks := s.Hooks(); hooks.OnData != nil {
			hooks.OnData(diagnostic(respawnErr.Error()))
		}
		return
	}

	code, exited := b.claim(s, id)
	if wasActive {
		b.reg.SetActive(id)
	}
	b.log.Info("session respawned", "old", oldID, "session", id, "shell", shell.String(), "dir", dir)

	if hooks := s.Hooks(); hooks.OnReady != nil {
		hooks.OnReady(id)
	}
	if exited {
		b.handleExit(s, id, code, wasActive)
	}
}

// diagnostic formats a bridge failure as a visible line in the pane.
func diagnostic(msg string) []byte {
	return []byte(fmt.Sprintf("\r\n[calico] %s\r\n", msg))
}

func exitCodeAttr(code *int) any {
	if code == nil {
		return "unknown"
	}
	return *code
}
