// Package store persists the saved session set: which shells were open and
// where, so a restart can bring the same tabs back. Losing the store is
// never fatal; callers fall back to a single default session.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/calicoterm/calico/internal/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS saved_sessions (
	position INTEGER PRIMARY KEY,
	shell TEXT NOT NULL,
	spawn_dir TEXT NOT NULL
);
`

// SavedSession is one entry of the saved session set, in tab order.
type SavedSession struct {
	Shell    session.ShellType
	SpawnDir string
}

// Store wraps the sqlite database holding the saved session set.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save replaces the saved session set with the given one, preserving order.
func (s *Store) Save(ctx context.Context, sessions []SavedSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM saved_sessions`); err != nil {
		return fmt.Errorf("clear saved sessions: %w", err)
	}
	for i, sess := range sessions {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO saved_sessions(position, shell, spawn_dir) VALUES (?, ?, ?)`,
			i, sess.Shell.ConfigName(), sess.SpawnDir,
		); err != nil {
			return fmt.Errorf("insert saved session %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// Load returns the saved session set in tab order. Rows with an unknown
// shell name are skipped rather than failing the whole restore.
func (s *Store) Load(ctx context.Context) ([]SavedSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT shell, spawn_dir FROM saved_sessions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query saved sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SavedSession
	for rows.Next() {
		var shellName, dir string
		if err := rows.Scan(&shellName, &dir); err != nil {
			return nil, fmt.Errorf("scan saved session: %w", err)
		}
		shell, err := session.ParseShellType(shellName)
		if err != nil {
			continue
		}
		sessions = append(sessions, SavedSession{Shell: shell, SpawnDir: dir})
	}
	return sessions, rows.Err()
}

// Clear removes the saved session set.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM saved_sessions`); err != nil {
		return fmt.Errorf("clear saved sessions: %w", err)
	}
	return nil
}
