// Package store persists the tracked state of every watched path in a SQLite
// database.
//
// The whole table is loaded by Open and mutations stay in memory until Close,
// which writes them in a single transaction. A run that dies before Close
// leaves the database exactly as the previous run committed it. There is no
// locking: two runs sharing one database file race, so callers that may
// overlap must serialize themselves, for example with flock(1).
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"github.com/Leantar/pollwatch/models"
	_ "modernc.org/sqlite"
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	db      *sql.DB
	entries map[string]models.State
	dirty   map[string]struct{}
}

// Open initializes (or reuses) the database at path and loads every entry.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("database path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Pragmas are per connection, so the flush must reuse the one they ran on
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{
		db:      db,
		entries: make(map[string]models.State),
		dirty:   make(map[string]struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS tracked_paths (
        path TEXT PRIMARY KEY,
        modified INTEGER,
        checksum TEXT
);
`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT path, modified, checksum FROM tracked_paths`)
	if err != nil {
		return fmt.Errorf("failed to query tracked paths: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			path     string
			modified sql.NullInt64
			checksum sql.NullString
		)
		if err := rows.Scan(&path, &modified, &checksum); err != nil {
			return fmt.Errorf("failed to scan tracked path: %w", err)
		}

		var state models.State
		if modified.Valid {
			state.Modified = &modified.Int64
		}
		if checksum.Valid {
			state.Checksum = &checksum.String
		}
		s.entries[path] = state
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate tracked paths: %w", err)
	}

	return nil
}

func (s *Store) Get(path string) (models.State, bool) {
	state, ok := s.entries[path]
	return state, ok
}

func (s *Store) Set(path string, state models.State) {
	s.entries[path] = state
	s.dirty[path] = struct{}{}
}

func (s *Store) Len() int {
	return len(s.entries)
}

// Close commits every entry changed since Open and releases the database.
// It is safe to call more than once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	err := s.flush()
	if cerr := s.db.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close database: %w", cerr)
	}
	s.db = nil

	return err
}

func (s *Store) flush() (err error) {
	if len(s.dirty) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`
INSERT INTO tracked_paths(path, modified, checksum)
VALUES(?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
        modified=excluded.modified,
        checksum=excluded.checksum
`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for path := range s.dirty {
		state := s.entries[path]

		var (
			modified sql.NullInt64
			checksum sql.NullString
		)
		if state.Modified != nil {
			modified = sql.NullInt64{Int64: *state.Modified, Valid: true}
		}
		if state.Checksum != nil {
			checksum = sql.NullString{String: *state.Checksum, Valid: true}
		}

		if _, err = stmt.Exec(path, modified, checksum); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", path, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.dirty = make(map[string]struct{})

	return nil
}

// Ext returns the extension that marks the store's own files, so they can be
// excluded from watching.
func Ext(path string) string {
	return filepath.Ext(path)
}
