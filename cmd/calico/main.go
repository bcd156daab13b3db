// Package main provides the entry point for calico.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/calicoterm/calico/internal/app"
	"github.com/calicoterm/calico/internal/backend"
	"github.com/calicoterm/calico/internal/bridge"
	"github.com/calicoterm/calico/internal/config"
	"github.com/calicoterm/calico/internal/session"
	"github.com/calicoterm/calico/internal/store"
	"github.com/calicoterm/calico/internal/version"
)

func main() {
	var (
		workDir     = flag.String("dir", "", "working directory for the first tab")
		command     = flag.String("cmd", "", "command to run in the first tab after spawn")
		noRestore   = flag.Bool("no-restore", false, "skip restoring the previous session set")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("calico %s\n", version.Short())
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error in configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDataDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	log, logFile, err := openLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log.Info("starting calico", "version", version.Short())

	// The session store is best-effort: a broken database means no
	// persistence, not a broken terminal.
	st, err := store.Open(context.Background(), cfg.StoreFile())
	if err != nil {
		log.Warn("session store unavailable", "err", err)
		st = nil
	} else {
		defer st.Close()
	}

	reg := session.NewRegistry()
	be := backend.NewPTY(log)
	br := bridge.New(be, reg, log, bridge.Options{
		PendingLimit: cfg.PendingBuffer,
		OnFatal: func(err error) {
			log.Error("backend event stream closed", "err", err)
		},
	})
	defer br.Close()

	startup := config.NewStartup(config.StartupOptions{
		WorkingDir:  *workDir,
		Command:     *command,
		SkipRestore: *noRestore,
	})

	application, err := app.New(cfg, br, st, startup, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting calico: %v\n", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		log.Error("fatal", "err", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openLogger builds the file-backed logger. Logs cannot go to stdout or
// stderr while the UI owns the terminal.
func openLogger(cfg *config.Config) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(cfg.LogFile(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return log, f, nil
}
