package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mixelka/inboxlens/internal/session"
	"github.com/mixelka/inboxlens/pkg/models"
)

// SessionRepo stores sessions in the sessions table
type SessionRepo struct {
	db *DB
}

// Sessions returns the session backend backed by this database
func (db *DB) Sessions() *SessionRepo {
	return &SessionRepo{db: db}
}

// Load returns a session by id
func (r *SessionRepo) Load(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	query := `SELECT id, created_at, expires_at, is_active, user_email FROM sessions WHERE id = ?`
	err := r.db.GetContext(ctx, &s, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// Save inserts or replaces a session
func (r *SessionRepo) Save(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, created_at, expires_at, is_active, user_email)
		VALUES (:id, :created_at, :expires_at, :is_active, :user_email)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			expires_at = excluded.expires_at,
			is_active = excluded.is_active,
			user_email = excluded.user_email
	`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete deletes a session
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns all session ids
func (r *SessionRepo) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.db.SelectContext(ctx, &ids, `SELECT id FROM sessions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Purge deletes all sessions
func (r *SessionRepo) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	return nil
}

var _ session.Backend = (*SessionRepo)(nil)
