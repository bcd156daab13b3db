package backend

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"github.com/google/uuid"

	"github.com/calicoterm/calico/internal/session"
)

const eventBufferSize = 256

// proc tracks one spawned shell process.
type proc struct {
	id    string
	shell session.ShellType
	dir   string
	cmd   *exec.Cmd
	pty   *os.File
	rows  int
	cols  int
}

// PTYBackend runs shells on pseudo-terminals via creack/pty. One reader
// goroutine per process feeds the shared event channel, so per-session FIFO
// ordering holds by construction.
type PTYBackend struct {
	mu     sync.Mutex
	procs  map[string]*proc
	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
	log    *slog.Logger
}

// NewPTY creates a PTY backend. The logger may be nil.
func NewPTY(log *slog.Logger) *PTYBackend {
	if log == nil {
		log = slog.Default()
	}
	return &PTYBackend{
		procs:  make(map[string]*proc),
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
		log:    log.With("component", "backend"),
	}
}

// Spawn starts a shell process on a new PTY and returns its identifier.
func (b *PTYBackend) Spawn(shell session.ShellType, workingDir string) (string, error) {
	argv := shell.Command()
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")

	f, err := pty.Start(cmd)
	if err != nil {
		return "", fmt.Errorf("start pty for %s: %w", shell, err)
	}

	id := uuid.NewString()
	p := &proc{
		id:    id,
		shell: shell,
		dir:   workingDir,
		cmd:   cmd,
		pty:   f,
		rows:  24,
		cols:  80,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		f.Close()
		cmd.Process.Kill()
		cmd.Wait()
		return "", fmt.Errorf("backend closed")
	}
	b.procs[id] = p
	b.wg.Add(1)
	b.mu.Unlock()

	go b.readLoop(p)

	b.log.Info("spawned", "session", id, "shell", shell.String(), "dir", workingDir, "pid", cmd.Process.Pid)
	return id, nil
}

// readLoop pumps process output onto the global event stream, then emits the
// exit event once the PTY drains.
func (b *PTYBackend) readLoop(p *proc) {
	defer b.wg.Done()

	buf := make([]byte, 32*1024)
	for {
		n, err := p.pty.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			select {
			case b.events <- Event{Kind: EventOutput, SessionID: p.id, Data: data}:
			case <-b.done:
				return
			}
		}
		if err != nil {
			// Linux returns EIO from the master side once the child
			// exits; treat any read error as end of stream.
			if err != io.EOF {
				b.log.Debug("pty read ended", "session", p.id, "err", err)
			}
			break
		}
	}

	err := p.cmd.Wait()
	var code *int
	if p.cmd.ProcessState != nil {
		if c := p.cmd.ProcessState.ExitCode(); c >= 0 {
			code = &c
		}
	}
	if err != nil && code == nil {
		b.log.Debug("process wait", "session", p.id, "err", err)
	}
	p.pty.Close()

	b.mu.Lock()
	delete(b.procs, p.id)
	b.mu.Unlock()

	select {
	case b.events <- Event{Kind: EventExit, SessionID: p.id, ExitCode: code}:
	case <-b.done:
	}
}

// Write forwards bytes to the process's input stream.
func (b *PTYBackend) Write(id string, data []byte) error {
	p, ok := b.lookup(id)
	if !ok {
		return fmt.Errorf("write: unknown session %s", id)
	}
	if _, err := p.pty.Write(data); err != nil {
		return fmt.Errorf("write to session %s: %w", id, err)
	}
	return nil
}

// Resize changes the PTY dimensions.
func (b *PTYBackend) Resize(id string, rows, cols int) error {
	p, ok := b.lookup(id)
	if !ok {
		return fmt.Errorf("resize: unknown session %s", id)
	}
	if err := pty.Setsize(p.pty, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	}); err != nil {
		return fmt.Errorf("resize session %s: %w", id, err)
	}
	b.mu.Lock()
	p.rows, p.cols = rows, cols
	b.mu.Unlock()
	return nil
}

// Kill terminates the process. Unknown ids are a no-op; the exit event for a
// killed process still arrives on the stream.
func (b *PTYBackend) Kill(id string) error {
	p, ok := b.lookup(id)
	if !ok {
		return nil
	}
	if p.cmd.Process != nil {
		p.cmd.Process.Kill()
	}
	return nil
}

// ForceKillChildren terminates descendant processes of the shell, leaving
// the shell itself alive. Returns the number of processes killed.
func (b *PTYBackend) ForceKillChildren(id string) (int, error) {
	p, ok := b.lookup(id)
	if !ok {
		return 0, fmt.Errorf("force-kill: unknown session %s", id)
	}
	if p.cmd.Process == nil {
		return 0, nil
	}
	count, err := killDescendants(p.cmd.Process.Pid)
	if err != nil {
		return count, fmt.Errorf("force-kill children of session %s: %w", id, err)
	}
	b.log.Info("killed children", "session", id, "count", count)
	return count, nil
}

// ChildCount returns the number of descendant processes of the shell.
func (b *PTYBackend) ChildCount(id string) (int, error) {
	p, ok := b.lookup(id)
	if !ok {
		return 0, fmt.Errorf("child-count: unknown session %s", id)
	}
	if p.cmd.Process == nil {
		return 0, nil
	}
	return countDescendants(p.cmd.Process.Pid)
}

// Info returns metadata for a live session.
func (b *PTYBackend) Info(id string) (SessionInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procs[id]
	if !ok {
		return SessionInfo{}, false
	}
	return SessionInfo{
		ID:         p.id,
		Shell:      p.shell,
		WorkingDir: p.dir,
		PID:        p.cmd.Process.Pid,
		Rows:       p.rows,
		Cols:       p.cols,
	}, true
}

// List returns the identifiers of all live sessions.
func (b *PTYBackend) List() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	ids := make([]string, 0, len(b.procs))
	for id := range b.procs {
		ids = append(ids, id)
	}
	return ids
}

// Events returns the global event stream.
func (b *PTYBackend) Events() <-chan Event {
	return b.events
}

// Close kills all processes, waits for their readers, and closes the stream.
func (b *PTYBackend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	procs := make([]*proc, 0, len(b.procs))
	for _, p := range b.procs {
		procs = append(procs, p)
	}
	b.mu.Unlock()

	close(b.done)
	for _, p := range procs {
		if p.cmd.Process != nil {
			p.cmd.Process.Kill()
		}
		p.pty.Close()
	}
	b.wg.Wait()
	close(b.events)
	return nil
}

func (b *PTYBackend) lookup(id string) (*proc, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.procs[id]
	return p, ok
}
