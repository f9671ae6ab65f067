package session

import (
	"context"
	"errors"

	"github.com/mixelka/inboxlens/pkg/models"
)

// ErrNotFound is returned by a Backend when no record exists for an id
var ErrNotFound = errors.New("session record not found")

// Backend persists session records keyed by session id
type Backend interface {
	Load(ctx context.Context, id string) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	// Delete removes a record; a missing record is not an error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
	// Purge removes every record
	Purge(ctx context.Context) error
}

// Credentials is the part of the credential cache driven by session lifecycle
type Credentials interface {
	Forget(ctx context.Context, sessionID string) error
	Purge(ctx context.Context) error
}
