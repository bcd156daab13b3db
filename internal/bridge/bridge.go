// Package bridge connects the UI to the process-owning backend. It routes
// the backend's single global event stream to per-session callbacks, owns
// session lifecycle (spawn, kill, auto-respawn), and coordinates resize.
//
// Spawning a process and subscribing to its output are separate asynchronous
// operations. The bridge subscribes before it spawns, and buffers output
// that arrives for an identifier no caller has learned yet, so the classic
// subscribe-after-spawn race cannot lose output.
package bridge

import (
	"log/slog"
	"sync"

	"github.com/calicoterm/calico/internal/backend"
	"github.com/calicoterm/calico/internal/parser"
	"github.com/calicoterm/calico/internal/session"
)

// Bridge routes backend events to sessions and drives their lifecycle.
type Bridge struct {
	be  backend.Backend
	reg *session.Registry
	log *slog.Logger

	pendingLimit int
	cwdDetect    func([]byte) (string, bool)

	mu        sync.Mutex
	unclaimed map[string][]backend.Event // output for ids whose spawn call has not returned yet
	spawning  int                        // spawn calls in flight
	closed    bool

	// onFatal is called when the backend stream ends unexpectedly.
	onFatal func(error)

	loopDone chan struct{}
}

// Options configures a Bridge.
type Options struct {
	// PendingLimit bounds the early-output buffer per session. Zero means
	// session.DefaultPendingLimit.
	PendingLimit int
	// OnFatal is invoked if the backend event stream closes while the
	// bridge is still running. May be nil.
	OnFatal func(error)
	// CwdDetect overrides the output parser hook. Nil means parser.DetectCwd;
	// a function returning ("", false) disables detection.
	CwdDetect func([]byte) (string, bool)
}

// New creates a bridge over the given backend and starts the event router.
// The router goroutine runs until the backend's event channel closes.
func New(be backend.Backend, reg *session.Registry, log *slog.Logger, opts Options) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	limit := opts.PendingLimit
	if limit <= 0 {
		limit = session.DefaultPendingLimit
	}
	detect := opts.CwdDetect
	if detect == nil {
		detect = parser.DetectCwd
	}
	b := &Bridge{
		be:           be,
		reg:          reg,
		log:          log.With("component", "bridge"),
		pendingLimit: limit,
		cwdDetect:    detect,
		unclaimed:    make(map[string][]backend.Event),
		onFatal:      opts.OnFatal,
		loopDone:     make(chan struct{}),
	}
	go b.run()
	return b
}

// Registry returns the session registry the bridge routes into.
func (b *Bridge) Registry() *session.Registry {
	return b.reg
}

// run consumes the global backend event stream until it closes.
func (b *Bridge) run() {
	defer close(b.loopDone)

	for ev := range b.be.Events() {
		b.dispatch(ev)
	}

	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed && b.onFatal != nil {
		b.onFatal(ErrBackendClosed)
	}
}

// dispatch routes one event. Dispatch and buffer replay both run under the
// bridge mutex, which is what preserves per-session FIFO order across the
// replay boundary.
func (b *Bridge) dispatch(ev backend.Event) {
	b.mu.Lock()

	s := b.reg.Get(ev.SessionID)
	switch {
	case s != nil:
		if ev.Kind == backend.EventOutput {
			b.deliverLocked(s, ev.Data)
			b.mu.Unlock()
			return
		}
		// Exit for a live session: hand off to the respawn path without
		// holding the lock, so one session's respawn never stalls another
		// session's event delivery.
		wasActive := b.reg.ActiveID() == ev.SessionID
		b.mu.Unlock()
		b.handleExit(s, ev.SessionID, ev.ExitCode, wasActive)
		return

	case b.reg.IsRetired(ev.SessionID):
		// Torn-down sessions must not resurrect output into a disposed
		// surface. Dropped silently.
		b.mu.Unlock()
		return

	case b.spawning > 0:
		// Events for an id some in-flight spawn is about to claim. Hold
		// them until the spawn call returns with the id. Exit events are
		// held regardless of the bound; losing one would strand the
		// session as live forever.
		buf := b.unclaimed[ev.SessionID]
		if ev.Kind == backend.EventOutput && len(buf) >= b.pendingLimit {
			// The incoming entry is the one dropped, so the buffered
			// entries keep their arrival order.
			b.log.Warn("early-output buffer full, dropping event",
				"session", ev.SessionID, "limit", b.pendingLimit)
			b.mu.Unlock()
			return
		}
		b.unclaimed[ev.SessionID] = append(buf, ev)
		b.mu.Unlock()
		return

	default:
		b.mu.Unlock()
		b.log.Debug("event for unknown session dropped", "session", ev.SessionID)
		return
	}
}

// deliverLocked forwards output to the session's data callback and runs the
// output parser. Caller holds b.mu.
func (b *Bridge) deliverLocked(s *session.Session, data []byte) {
	hooks := s.Hooks()
	if hooks.OnData != nil {
		hooks.OnData(data)
	}
	if dir, ok := b.cwdDetect(data); ok {
		s.SetReportedDir(dir)
		if hooks.OnCwdChange != nil {
			hooks.OnCwdChange(dir)
		}
	}
}

// claim binds a freshly-returned identifier to its session and replays any
// output that arrived before the id was known, in arrival order. A held exit
// event is reported to the caller, which must run the exit path after the
// replay: the process may have died before Spawn returned its id.
func (b *Bridge) claim(s *session.Session, id string) (exitCode *int, exited bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.spawning--
	held := b.unclaimed[id]
	delete(b.unclaimed, id)

	for _, ev := range held {
		if ev.Kind == backend.EventExit {
			exitCode, exited = ev.ExitCode, true
			continue
		}
		if !s.Buffer(ev.Data) {
			b.log.Warn("early-output buffer full, dropping event", "session", id)
		}
	}

	buffered := s.Resolve(id)
	b.reg.Bind(id, s)

	for _, data := range buffered {
		b.deliverLocked(s, data)
	}
	return exitCode, exited
}

// abandonSpawn unwinds the in-flight spawn bookkeeping after a failed
// backend spawn call.
func (b *Bridge) abandonSpawn() {
	b.mu.Lock()
	b.spawning--
	b.mu.Unlock()
}

// noteSpawn marks a spawn call as in flight so the router buffers output
// for identifiers it does not recognize yet.
func (b *Bridge) noteSpawn() {
	b.mu.Lock()
	b.spawning++
	b.mu.Unlock()
}

// Close tears down every session and shuts the backend down. Listeners are
// detached and timers cancelled before the kill requests go out.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	for _, s := range b.reg.All() {
		if id := s.ID(); id != "" {
			b.Kill(id)
		}
	}
	err := b.be.Close()
	<-b.loopDone
	return err
}
