// Package store persists inspections, module data, media, export logs and checklist
// records in SQLite.
//
// Rows are stored as the data-entry layer produces them: module data is a flat
// (inspection, module, field) -> value relation and media is a flat (inspection, module,
// photo type) -> file relation. The store never validates; it only reads and writes.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is a SQLite-backed repository.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and bootstraps the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer; sqlite serializes anyway and this keeps the pragmas on a single conn
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys=ON;`,
		`CREATE TABLE IF NOT EXISTS inspections (
			id TEXT PRIMARY KEY,
			client_name TEXT NOT NULL DEFAULT '',
			work_site TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			created_by TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS module_data (
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			module_type TEXT NOT NULL,
			field_name TEXT NOT NULL,
			field_value TEXT NOT NULL,
			field_type TEXT NOT NULL DEFAULT 'text',
			is_required INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (inspection_id, module_type, field_name)
		);`,
		`CREATE TABLE IF NOT EXISTS media_files (
			id TEXT PRIMARY KEY,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			module_type TEXT NOT NULL,
			file_name TEXT NOT NULL,
			file_path TEXT NOT NULL,
			file_type TEXT NOT NULL,
			is_required INTEGER NOT NULL DEFAULT 0,
			photo_type TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_media_inspection ON media_files(inspection_id);`,
		`CREATE TABLE IF NOT EXISTS export_logs (
			id TEXT PRIMARY KEY,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL DEFAULT '',
			artifact_type TEXT NOT NULL,
			file_name TEXT NOT NULL,
			version INTEGER NOT NULL,
			recipients TEXT NOT NULL DEFAULT '[]',
			mode TEXT NOT NULL,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			metadata TEXT NOT NULL DEFAULT '{}',
			attempts INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_export_logs_inspection ON export_logs(inspection_id);`,
		`CREATE TABLE IF NOT EXISTS checklist_executions (
			id TEXT PRIMARY KEY,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			item_id TEXT NOT NULL,
			status TEXT NOT NULL,
			measured_value REAL,
			observation TEXT NOT NULL DEFAULT '',
			photos TEXT NOT NULL DEFAULT '[]',
			validation TEXT,
			executed_at TEXT NOT NULL,
			executed_by TEXT NOT NULL DEFAULT '',
			UNIQUE (inspection_id, item_id)
		);`,
		`CREATE TABLE IF NOT EXISTS corrective_actions (
			id TEXT PRIMARY KEY,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			item_id TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL,
			criticality TEXT NOT NULL,
			remediation_type TEXT NOT NULL DEFAULT '',
			materials TEXT NOT NULL DEFAULT '[]',
			estimated_cost REAL NOT NULL DEFAULT 0,
			before_photos TEXT NOT NULL DEFAULT '[]',
			after_photos TEXT NOT NULL DEFAULT '[]',
			detected_at TEXT NOT NULL,
			corrected_at TEXT,
			responsible TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			work_order_id TEXT NOT NULL DEFAULT '',
			automatic INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS work_orders (
			id TEXT PRIMARY KEY,
			number TEXT NOT NULL UNIQUE,
			inspection_id TEXT NOT NULL REFERENCES inspections(id) ON DELETE CASCADE,
			fault_id TEXT NOT NULL,
			description TEXT NOT NULL,
			criticality TEXT NOT NULL,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeList(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func decodeList(s string) []string {
	var out []string
	if s == "" {
		return nil
	}
	_ = json.Unmarshal([]byte(s), &out)
	if len(out) == 0 {
		return nil
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}
