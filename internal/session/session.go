package session

import (
	"sync"
	"time"
)

// DefaultPendingLimit bounds the early-output queue held while a session
// waits for its backend identifier.
const DefaultPendingLimit = 100

// State represents where a session is in its lifecycle.
type State int

const (
	// StatePending is the window between the spawn request and the backend
	// returning an identifier. Output arriving here is buffered, not dropped.
	StatePending State = iota
	// StateActive means the backend acknowledged the session and output
	// flows directly to the display surface.
	StateActive
	// StateExited means the process ended and no replacement is running.
	StateExited
	// StateRespawning means the process exited and a replacement spawn is
	// in flight.
	StateRespawning
)

// String returns the human-readable state name.
func (s State) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateActive:
		return "ACTIVE"
	case StateExited:
		return "EXITED"
	case StateRespawning:
		return "RESPAWNING"
	default:
		return "UNKNOWN"
	}
}

// Hooks are the per-session callbacks the UI attaches. They survive respawn:
// the replacement session inherits the hooks of the one it replaces.
type Hooks struct {
	// OnData receives output in arrival order.
	OnData func(data []byte)
	// OnCwdChange fires when the output parser detects a directory change.
	OnCwdChange func(dir string)
	// OnExit fires once per process exit. Code is nil when unknown.
	OnExit func(code *int)
	// OnReady fires after a respawn completes, carrying the replacement
	// session id so the UI can re-home its callbacks.
	OnReady func(newID string)
}

// Session is one shell process plus its bookkeeping. All fields are guarded
// by the session's own mutex; readers use Snapshot for a consistent view.
type Session struct {
	mu sync.Mutex

	id         string
	shell      ShellType
	spawnDir   string // captured at first spawn, never mutated afterwards
	reportedDir string
	state      State
	rows, cols int
	childCount int

	hooks Hooks

	// Early output queued while state is Pending, bounded by pendingLimit.
	pending      [][]byte
	pendingLimit int
	dropped      int

	// Timestamp of the last interrupt keypress, for double-press detection.
	lastInterrupt time.Time

	// Cleanup functions run at teardown, most recent first.
	cleanups []func()
}

// New creates a session in Pending state. The id is empty until the backend
// acknowledges the spawn.
func New(shell ShellType, spawnDir string, hooks Hooks) *Session {
	return &Session{
		shell:        shell,
		spawnDir:     spawnDir,
		state:        StatePending,
		hooks:        hooks,
		pendingLimit: DefaultPendingLimit,
	}
}

// Info is a consistent point-in-time copy of a session's fields.
type Info struct {
	ID          string
	Shell       ShellType
	SpawnDir    string
	ReportedDir string
	State       State
	Rows, Cols  int
	ChildCount  int
}

// Snapshot returns a consistent copy of the session's fields.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Info{
		ID:          s.id,
		Shell:       s.shell,
		SpawnDir:    s.spawnDir,
		ReportedDir: s.reportedDir,
		State:       s.state,
		Rows:        s.rows,
		Cols:        s.cols,
		ChildCount:  s.childCount,
	}
}

// ID returns the backend identifier, or "" while Pending.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Shell returns the shell type.
func (s *Session) Shell() ShellType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shell
}

// SpawnDir returns the working directory captured at first spawn. Respawns
// must use this, never the parser-reported directory.
func (s *Session) SpawnDir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawnDir
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the lifecycle state.
func (s *Session) SetState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
}

// Hooks returns the attached callbacks.
func (s *Session) Hooks() Hooks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hooks
}

// SetHooks replaces the attached callbacks.
func (s *Session) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

// SetReportedDir records a directory observed in output. This never feeds
// back into spawn; it is display-only state.
func (s *Session) SetReportedDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportedDir = dir
}

// SetDimensions records the size last acknowledged by the backend.
func (s *Session) SetDimensions(rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows, s.cols = rows, cols
}

// SetChildCount records the last known descendant process count.
func (s *Session) SetChildCount(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.childCount = n
}

// SetPendingLimit overrides the early-output bound. Zero or negative keeps
// the default.
func (s *Session) SetPendingLimit(n int) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLimit = n
}

// Buffer queues output that arrived before the identifier resolved. Returns
// false when the queue is full; the incoming entry is dropped so the queued
// entries keep their original order.
func (s *Session) Buffer(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) >= s.pendingLimit {
		s.dropped++
		return false
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.pending = append(s.pending, cp)
	return true
}

// Resolve assigns the backend identifier, transitions to Active, and returns
// the buffered output in arrival order. The queue is cleared.
func (s *Session) Resolve(id string) [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
	s.state = StateActive
	buffered := s.pending
	s.pending = nil
	return buffered
}

// DroppedCount reports how many early-output entries overflowed the bound.
func (s *Session) DroppedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// MarkInterrupt records an interrupt keypress and reports whether the
// previous one was within the given threshold (a double press).
func (s *Session) MarkInterrupt(now time.Time, threshold time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	double := !s.lastInterrupt.IsZero() && now.Sub(s.lastInterrupt) <= threshold
	if double {
		// Consume the pair so a third press starts a fresh cycle.
		s.lastInterrupt = time.Time{}
	} else {
		s.lastInterrupt = now
	}
	return double
}

// OnCleanup registers a function to run at teardown. Cleanups run most
// recent first.
func (s *Session) OnCleanup(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// RunCleanups runs and clears the registered cleanup functions. Buffered
// output is discarded at the same time.
func (s *Session) RunCleanups() {
	s.mu.Lock()
	fns := s.cleanups
	s.cleanups = nil
	s.pending = nil
	s.mu.Unlock()

	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
