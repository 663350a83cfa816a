// Package history stores snapshots of extracted DDL in SQLite so that later
// extractions can be checked for drift.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/matviewddl/internal/config"
	"github.com/sadopc/matviewddl/internal/ddl"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	connection   TEXT NOT NULL,
	schema_name  TEXT NOT NULL,
	checksum     TEXT NOT NULL,
	ddl          TEXT NOT NULL,
	views        INTEGER,
	indexes      INTEGER,
	extracted_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

const createIndexSQL = `CREATE INDEX IF NOT EXISTS snapshots_lookup
	ON snapshots (connection, schema_name, extracted_at)`

// ErrNotFound is returned by Get for an unknown snapshot id.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the stored output of one successful extraction.
type Snapshot struct {
	ID          int64
	Connection  string
	Schema      string
	Checksum    string
	DDL         string
	Views       int
	Indexes     int
	ExtractedAt time.Time
}

// History provides SQLite-backed snapshot storage.
type History struct {
	db *sql.DB
}

// New opens (or creates) the history database at path, or at
// ConfigDir()/history.db when path is empty, and ensures the schema exists.
func New(path string) (*History, error) {
	if path == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, fmt.Errorf("history: config dir: %w", err)
		}
		path = filepath.Join(dir, "history.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	for _, stmt := range []string{createTableSQL, createIndexSQL} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("history: create schema: %w", err)
		}
	}
	return &History{db: db}, nil
}

// Add stores a snapshot. Checksum is computed when empty.
func (h *History) Add(s Snapshot) error {
	if s.Checksum == "" {
		s.Checksum = ddl.Checksum(s.DDL)
	}
	if s.ExtractedAt.IsZero() {
		s.ExtractedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(
		`INSERT INTO snapshots (connection, schema_name, checksum, ddl, views, indexes, extracted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Connection,
		s.Schema,
		s.Checksum,
		s.DDL,
		s.Views,
		s.Indexes,
		s.ExtractedAt,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot for connection and schema, or
// nil when there is none.
func (h *History) Latest(connection, schemaName string) (*Snapshot, error) {
	row := h.db.QueryRow(
		`SELECT id, connection, schema_name, checksum, ddl, views, indexes, extracted_at
		 FROM snapshots
		 WHERE connection = ? AND schema_name = ?
		 ORDER BY extracted_at DESC, id DESC
		 LIMIT 1`,
		connection, schemaName,
	)
	var s Snapshot
	err := row.Scan(&s.ID, &s.Connection, &s.Schema, &s.Checksum, &s.DDL, &s.Views, &s.Indexes, &s.ExtractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history latest: %w", err)
	}
	return &s, nil
}

// Recent returns the most recent snapshots, newest first, without their
// DDL text.
func (h *History) Recent(limit int) ([]Snapshot, error) {
	rows, err := h.db.Query(
		`SELECT id, connection, schema_name, checksum, '', views, indexes, extracted_at
		 FROM snapshots
		 ORDER BY extracted_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Search returns the most recent snapshots whose connection or schema
// matches the SQL LIKE pattern, newest first, without their DDL text.
func (h *History) Search(pattern string, limit int) ([]Snapshot, error) {
	rows, err := h.db.Query(
		`SELECT id, connection, schema_name, checksum, '', views, indexes, extracted_at
		 FROM snapshots
		 WHERE connection LIKE ? OR schema_name LIKE ?
		 ORDER BY extracted_at DESC, id DESC
		 LIMIT ?`,
		pattern, pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Get returns the snapshot with the given id, DDL included.
func (h *History) Get(id int64) (*Snapshot, error) {
	row := h.db.QueryRow(
		`SELECT id, connection, schema_name, checksum, ddl, views, indexes, extracted_at
		 FROM snapshots WHERE id = ?`,
		id,
	)
	var s Snapshot
	err := row.Scan(&s.ID, &s.Connection, &s.Schema, &s.Checksum, &s.DDL, &s.Views, &s.Indexes, &s.ExtractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history get: %w", err)
	}
	return &s, nil
}

// Clear deletes all snapshots.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM snapshots`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func scanSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	var snaps []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(
			&s.ID,
			&s.Connection,
			&s.Schema,
			&s.Checksum,
			&s.DDL,
			&s.Views,
			&s.Indexes,
			&s.ExtractedAt,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return snaps, nil
}
