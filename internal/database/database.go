// Package database is the sqlite store behind SESSION_BACKEND=sqlite.
// One file holds the sessions table (session.Backend via SessionRepo) and the
// credentials table (credential.Store via CredentialRepo), keyed by the same session id.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// DB is the shared handle both repos are built from
type DB struct {
	*sqlx.DB
}

// New opens the database at path, creating its directory if needed
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL lets status reads proceed while a refreshed token is written
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	// Session and credential writes go through one connection
	db.SetMaxOpenConns(1)

	return &DB{db}, nil
}

// Migrate creates the sessions and credentials tables
func (db *DB) Migrate(ctx context.Context) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return tx.Commit()
}

// Tables lists the user tables, used to check a migrated database
func (db *DB) Tables(ctx context.Context) ([]string, error) {
	var names []string
	err := db.SelectContext(ctx, &names, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}
