package bridge

import (
	"fmt"

	"github.com/go-errors/errors"
)

// ErrBackendClosed is reported through the fatal handler when the backend
// event stream ends while sessions are still registered. It is the only
// condition escalated beyond a single session.
var ErrBackendClosed = errors.New("backend event stream closed")

// SpawnError reports that the backend could not allocate a process. It is
// surfaced as an inline diagnostic in the affected pane and returned to the
// caller; the bridge does not retry.
type SpawnError struct {
	Shell string
	Err   error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s: %v", e.Shell, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// WriteError reports a failed write to a session's input stream. Writes are
// logged and swallowed so the terminal stays interactive after a transient
// I/O error; this type exists for the log record and for tests.
type WriteError struct {
	SessionID string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write to session %s: %v", e.SessionID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// RespawnError reports that an automatic respawn attempt failed. The session
// is left in the Exited state and no further retry happens; the failure is
// written into the pane as a visible diagnostic line.
type RespawnError struct {
	SessionID string
	Err       error
}

func (e *RespawnError) Error() string {
	return fmt.Sprintf("respawn of session %s: %v", e.SessionID, e.Err)
}

func (e *RespawnError) Unwrap() error { return e.Err }
