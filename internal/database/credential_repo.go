package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mixelka/inboxlens/internal/credential"
	"github.com/mixelka/inboxlens/pkg/models"
)

// CredentialRepo stores encoded credentials in the credentials table
type CredentialRepo struct {
	db    *DB
	codec *credential.Codec
}

// Credentials returns the credential store backed by this database
func (db *DB) Credentials(codec *credential.Codec) *CredentialRepo {
	return &CredentialRepo{db: db, codec: codec}
}

// Load returns the credential of a session
func (r *CredentialRepo) Load(ctx context.Context, sessionID string) (*models.Credential, error) {
	var data string
	err := r.db.GetContext(ctx, &data, `SELECT data FROM credentials WHERE session_id = ?`, sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, credential.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}
	return r.codec.Decode([]byte(data))
}

// Save inserts or replaces the credential of a session
func (r *CredentialRepo) Save(ctx context.Context, sessionID string, cred *models.Credential) error {
	data, err := r.codec.Encode(cred)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO credentials (session_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, sessionID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete deletes the credential of a session
func (r *CredentialRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credentials WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}

// Purge deletes all credentials
func (r *CredentialRepo) Purge(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM credentials`); err != nil {
		return fmt.Errorf("failed to purge credentials: %w", err)
	}
	return nil
}

var _ credential.Store = (*CredentialRepo)(nil)
