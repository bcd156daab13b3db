package config

import (
	"sync"
)

// StartupOptions are read once at process start: the first spawn consumes
// them and they are never reapplied, so a respawn or a later tab cannot
// accidentally inherit a one-shot working directory or command.
type StartupOptions struct {
	// WorkingDir is the directory for the first spawned session.
	WorkingDir string
	// Command is written to the first session's input after spawn.
	Command string
	// SkipRestore disables restoring the saved session set.
	SkipRestore bool
}

// Startup holds startup options with consume-once semantics.
type Startup struct {
	mu       sync.Mutex
	opts     StartupOptions
	consumed bool
}

// NewStartup wraps the parsed command-line options.
func NewStartup(opts StartupOptions) *Startup {
	return &Startup{opts: opts}
}

// Consume returns the options the first time it is called and zero values
// afterwards. The second return reports whether this call got the real
// options.
func (s *Startup) Consume() (StartupOptions, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumed {
		return StartupOptions{}, false
	}
	s.consumed = true
	opts := s.opts
	s.opts = StartupOptions{}
	return opts, true
}

// SkipRestore reports the restore flag without consuming the spawn options.
// It is needed before the first spawn, when the options are still pending.
func (s *Startup) SkipRestore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.consumed && s.opts.SkipRestore
}
