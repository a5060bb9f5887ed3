// Package history records terminal transition events in a SQLite
// journal. It implements the engine's observer contract and is wired in
// by composition roots that want a navigation audit trail; the engine
// itself never persists anything.
package history

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/wayfind/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// Entry is one journal row.
type Entry struct {
	ID       string
	At       time.Time
	Kind     string
	ToName   string
	ToPath   string
	FromName string
	Error    string
}

// Journal is a SQLite-backed transition log.
type Journal struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens a journal file, applying the schema. The parent
// directory is created if needed.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply journal schema: %w", err)
	}

	return &Journal{db: db}, nil
}

// Observer returns an observer that records every terminal event.
// Recording failures are swallowed; the journal must never break a
// navigation.
func (j *Journal) Observer() types.Observer {
	return func(event types.Event) {
		if !event.Kind.Terminal() {
			return
		}
		_ = j.Record(event)
	}
}

// Record appends one event to the journal.
func (j *Journal) Record(event types.Event) error {
	entry := Entry{
		ID:   uuid.New().String(),
		At:   time.Now().UTC(),
		Kind: event.Kind.String(),
	}
	if event.To != nil {
		entry.ToName = event.To.Name
		entry.ToPath = event.To.Path
	}
	if event.From != nil {
		entry.FromName = event.From.Name
	}
	if event.Err != nil {
		entry.Error = event.Err.Error()
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.Exec(
		`INSERT INTO transitions (transition_id, occurred_at, kind, to_name, to_path, from_name, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.At.Format(time.RFC3339Nano), entry.Kind,
		entry.ToName, entry.ToPath, entry.FromName, entry.Error,
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// List returns the most recent entries, newest first. A non-positive
// limit returns everything.
func (j *Journal) List(limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	// rowid preserves insertion order; occurred_at strings trim trailing
	// zeros and do not sort reliably.
	query := `SELECT transition_id, occurred_at, kind, to_name, to_path, from_name, error
	          FROM transitions ORDER BY rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var occurredAt string
		if err := rows.Scan(&entry.ID, &occurredAt, &entry.Kind,
			&entry.ToName, &entry.ToPath, &entry.FromName, &entry.Error); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		entry.At, _ = time.Parse(time.RFC3339Nano, occurredAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close releases the database handle. Idempotent.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
