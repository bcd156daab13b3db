package config

import (
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes and hands the result to a
// callback. Invalid edits are logged and skipped; the last good config stays
// in effect.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onReload func(*Config)
	log      *slog.Logger
	stopCh   chan struct{}
}

// NewWatcher watches the config file's directory (editors replace files
// rather than writing in place, so watching the file itself misses saves).
func NewWatcher(path string, log *slog.Logger, onReload func(*Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		path:     path,
		watcher:  w,
		onReload: onReload,
		log:      log.With("component", "config"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			cfg, err := LoadFrom(w.path)
			if err != nil {
				w.log.Warn("config reload failed", "err", err)
				continue
			}
			w.log.Info("config reloaded")
			w.onReload(cfg)

		case <-w.watcher.Errors:
			// Continue on errors
		}
	}
}
