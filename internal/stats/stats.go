// Package stats tracks per-session usage of resolved entries.
//
// The store lives in an in-memory SQLite database: it starts empty on
// process start, is updated after every successful execute-class
// resolution, and is never written to disk. SQLite gives us the same
// upsert/aggregation surface as a persistent store while keeping the
// session-only lifecycle trivially true.
package stats

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

const schema = `
CREATE TABLE IF NOT EXISTS usage (
	key          TEXT PRIMARY KEY,
	use_count    INTEGER NOT NULL DEFAULT 0,
	last_used_at TEXT NOT NULL
);`

// Usage is one entry's session usage record.
type Usage struct {
	Key        string    `json:"key"`
	UseCount   int       `json:"use_count"`
	LastUsedAt time.Time `json:"last_used_at"`
}

// Store holds session usage statistics. Safe for concurrent use.
type Store struct {
	db        *sql.DB
	sessionID string
	now       func() time.Time
}

// New opens a fresh in-memory store for one serving session.
func New() (*Store, error) {
	db, err := openDB("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening usage store: %w", err)
	}
	// One connection keeps every query on the same in-memory database and
	// serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating usage schema: %w", err)
	}

	return &Store{
		db:        db,
		sessionID: uuid.NewString(),
		now:       time.Now,
	}, nil
}

// SessionID identifies this serving session.
func (s *Store) SessionID() string { return s.sessionID }

// Close releases the in-memory database.
func (s *Store) Close() error { return s.db.Close() }

// Record bumps the usage counter for key. Called after every successful
// execute-class resolution.
func (s *Store) Record(key string) error {
	_, err := s.db.Exec(`
		INSERT INTO usage (key, use_count, last_used_at) VALUES (?, 1, ?)
		ON CONFLICT(key) DO UPDATE SET
			use_count = use_count + 1,
			last_used_at = excluded.last_used_at`,
		key, s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("recording usage for %s: %w", key, err)
	}
	return nil
}

// Lookup returns the usage record for key, if any.
func (s *Store) Lookup(key string) (count int, last time.Time, ok bool) {
	var lastStr string
	err := s.db.QueryRow(`SELECT use_count, last_used_at FROM usage WHERE key = ?`, key).
		Scan(&count, &lastStr)
	if err != nil {
		return 0, time.Time{}, false
	}
	last, _ = time.Parse(time.RFC3339Nano, lastStr)
	return count, last, true
}

// Snapshot returns every usage record, most used first.
func (s *Store) Snapshot() ([]Usage, error) {
	rows, err := s.db.Query(`SELECT key, use_count, last_used_at FROM usage ORDER BY use_count DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("reading usage snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Usage
	for rows.Next() {
		var u Usage
		var lastStr string
		if err := rows.Scan(&u.Key, &u.UseCount, &lastStr); err != nil {
			return nil, err
		}
		u.LastUsedAt, _ = time.Parse(time.RFC3339Nano, lastStr)
		out = append(out, u)
	}
	return out, rows.Err()
}
