// Package library persists saved patterns, templates and user preferences
// in SQLite.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

var (
	// ErrNotFound is returned when a pattern or template id does not exist.
	ErrNotFound = errors.New("library: not found")

	// ErrInvalid is returned for values outside their allowed set.
	ErrInvalid = errors.New("library: invalid value")
)

const schema = `
CREATE TABLE IF NOT EXISTS patterns (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    pattern     TEXT NOT NULL,
    preview     TEXT NOT NULL DEFAULT '',
    grid_size   INTEGER NOT NULL,
    theme       TEXT NOT NULL DEFAULT 'traditional',
    category    TEXT NOT NULL DEFAULT 'generated',
    is_favorite INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS templates (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    category    TEXT NOT NULL,
    difficulty  TEXT NOT NULL,
    pattern     TEXT NOT NULL,
    preview     TEXT NOT NULL DEFAULT '',
    grid_size   INTEGER NOT NULL,
    is_featured INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL,
    updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS preferences (
    id                INTEGER PRIMARY KEY CHECK (id = 1),
    default_theme     TEXT NOT NULL,
    default_grid_size INTEGER NOT NULL,
    line_thickness    INTEGER NOT NULL,
    dot_size          INTEGER NOT NULL,
    density           TEXT NOT NULL,
    symmetry          TEXT NOT NULL,
    auto_save         INTEGER NOT NULL,
    updated_at        TEXT NOT NULL
);
`

// Store is a SQLite-backed pattern library.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

func parseTime(v string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, v)
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// oneOf checks v against allowed values.
func oneOf(field, v string, allowed []string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s %q (allowed: %v)", ErrInvalid, field, v, allowed)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return err
}

// checkAffected turns a zero-row update or delete into ErrNotFound.
func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
	}
	return nil
}
