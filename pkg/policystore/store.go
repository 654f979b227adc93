// Package policystore persists named sandbox policies and pending
// approvals in SQLite so they survive across separate CLI invocations of
// the same execution core: a policy saved by one process can be selected
// by name in a later one, and an approval left pending by one invocation
// (when the approval manager is non-interactive) can be resolved by an
// `approve` invocation afterward.
package policystore

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrStoreClosed indicates the underlying database connection is unavailable.
var ErrStoreClosed = fmt.Errorf("policystore: closed")

// Store wraps a SQLite connection holding named sandbox policies and
// pending approvals.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at dbPath, applying WAL mode, a busy
// timeout, and foreign key enforcement before running the embedded schema.
func Open(dbPath string) (*Store, error) {
	if dbPath != "" && dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("policystore: create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("policystore: open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("policystore: enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return nil, fmt.Errorf("policystore: set busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("policystore: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return nil, fmt.Errorf("policystore: apply schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_migrations (version, name) VALUES (1, 'initial_schema')`); err != nil {
		return nil, fmt.Errorf("policystore: record initial schema version: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// DB returns the underlying *sql.DB for callers that need direct access
// (migrations, diagnostics).
func (s *Store) DB() *sql.DB { return s.db }
