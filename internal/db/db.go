// Package db provides the SQLite-backed audit store.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps the audit database handle.
type DB struct {
	*sql.DB
}

// Open opens (creating if necessary) the SQLite database at path.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	// WAL keeps concurrent appenders from blocking each other; busy_timeout
	// covers the brief writer lock handoff.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return &DB{DB: conn}, nil
}

// OpenAndMigrate opens the database and applies the schema.
func OpenAndMigrate(path string) (*DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(); err != nil {
		_ = database.Close()
		return nil, err
	}
	return database, nil
}

// Migrate creates the audit schema if it does not exist.
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_records (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			description TEXT NOT NULL,
			normalized_text TEXT NOT NULL,
			patterns_matched TEXT NOT NULL,
			bypass_attempts TEXT NOT NULL,
			semantic_flags TEXT NOT NULL,
			whitelist_violations TEXT NOT NULL,
			confidence_score REAL NOT NULL,
			approved INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_created_at ON audit_records(created_at);
		CREATE INDEX IF NOT EXISTS idx_audit_approved ON audit_records(approved);
	`)
	if err != nil {
		return fmt.Errorf("migrating audit schema: %w", err)
	}
	return nil
}
