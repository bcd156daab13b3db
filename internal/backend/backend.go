// Package backend owns the shell processes behind the bridge. It exposes the
// command surface (spawn, write, resize, kill, force-kill-children) and a
// single global event stream carrying output and exit events for every
// session, unfiltered. Consumers attribute events to sessions themselves.
package backend

import (
	"github.com/calicoterm/calico/internal/session"
)

// EventKind distinguishes the two event types on the global stream.
type EventKind int

const (
	// EventOutput carries a chunk of process output.
	EventOutput EventKind = iota
	// EventExit reports process termination.
	EventExit
)

// Event is one entry on the global backend event stream. Events for one
// session are emitted in arrival order; no ordering holds across sessions.
type Event struct {
	Kind      EventKind
	SessionID string
	Data      []byte
	// ExitCode is set on EventExit; nil when the code is unknown.
	ExitCode *int
}

// SessionInfo describes a live backend process.
type SessionInfo struct {
	ID         string
	Shell      session.ShellType
	WorkingDir string
	PID        int
	Rows, Cols int
}

// Backend is the process-owning side of the bridge. All methods are safe for
// concurrent use. Implementations assign opaque session identifiers at spawn
// time; identifiers are never reused.
type Backend interface {
	// Spawn starts a shell process and returns its identifier. Output for
	// the new session may appear on Events before Spawn returns to the
	// caller.
	Spawn(shell session.ShellType, workingDir string) (string, error)

	// Write forwards bytes to the process's input stream.
	Write(id string, data []byte) error

	// Resize changes the PTY dimensions.
	Resize(id string, rows, cols int) error

	// Kill terminates the process. Killing an unknown or already-dead
	// session is a no-op.
	Kill(id string) error

	// ForceKillChildren terminates descendant processes of the shell,
	// leaving the shell itself running. Returns the number killed.
	ForceKillChildren(id string) (int, error)

	// ChildCount returns the number of descendant processes of the shell.
	ChildCount(id string) (int, error)

	// Info returns metadata for a live session, or false when unknown.
	Info(id string) (SessionInfo, bool)

	// List returns the identifiers of all live sessions.
	List() []string

	// Events returns the global event stream. The channel is closed by
	// Close after all processes have been reaped.
	Events() <-chan Event

	// Close kills every process and shuts the event stream down.
	Close() error
}
