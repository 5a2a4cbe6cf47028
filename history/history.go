// Package history persists evaluation history in a SQLite database shared
// by the REPL and the evaluation server.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed indicates the store has been closed.
var ErrClosed = errors.New("history store is closed")

// Entry is one recorded evaluation.
type Entry struct {
	ID        int64
	Session   string
	Source    string
	Result    string // display form of the value, or the error text
	OK        bool
	CreatedAt time.Time
}

// Store records evaluations in a SQLite database. One Store belongs to one
// process; its session id stamps every row it writes.
type Store struct {
	db      *sql.DB
	session string
	mu      sync.Mutex
	closed  bool
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS evaluations (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		session    TEXT NOT NULL,
		source     TEXT NOT NULL,
		result     TEXT NOT NULL,
		ok         INTEGER NOT NULL,
		created_at TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating evaluations table: %w", err)
	}

	return &Store{db: db, session: uuid.NewString()}, nil
}

// Session returns this store's session id.
func (s *Store) Session() string {
	return s.session
}

// Record appends one evaluation to the history.
func (s *Store) Record(source, result string, ok bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	_, err := s.db.Exec(
		"INSERT INTO evaluations (session, source, result, ok, created_at) VALUES (?, ?, ?, ?, ?)",
		s.session, source, result, ok, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording evaluation: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first, across all sessions.
func (s *Store) Recent(n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.Query(
		"SELECT id, session, source, result, ok, created_at FROM evaluations ORDER BY id DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Session, &e.Source, &e.Result, &e.OK, &created); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			e.CreatedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
