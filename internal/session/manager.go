package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/mixelka/inboxlens/pkg/models"
)

// DefaultTTL is the session lifetime when none is configured
const DefaultTTL = 24 * time.Hour

const idBytes = 32

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{16,128}$`)

// ErrInvalidID is returned when a caller-supplied id is not URL-safe
var ErrInvalidID = errors.New("invalid session id")

// Manager owns session lifecycle: creation, lazy expiry and removal
type Manager struct {
	backend     Backend
	credentials Credentials
	ttl         time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewManager creates a new session manager. credentials may be nil.
func NewManager(backend Backend, credentials Credentials, ttl time.Duration, logger *slog.Logger) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		backend:     backend,
		credentials: credentials,
		ttl:         ttl,
		logger:      logger.With("component", "sessions"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ValidID reports whether id can be used as a session identifier
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// NewID returns a fresh unguessable URL-safe identifier
func NewID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Create creates a session with a freshly generated id
func (m *Manager) Create(ctx context.Context) (string, error) {
	id, err := NewID()
	if err != nil {
		return "", err
	}
	return m.CreateWithID(ctx, id)
}

// CreateWithID creates a session under a caller-supplied id, replacing any existing record
func (m *Manager) CreateWithID(ctx context.Context, id string) (string, error) {
	if !ValidID(id) {
		return "", ErrInvalidID
	}

	now := m.now()
	s := &models.Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		IsActive:  true,
	}
	if err := m.backend.Save(ctx, s); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}

	m.logger.Debug("session created", "session", shortID(id))
	return id, nil
}

// Get returns the session for id. An expired session is deleted along with its credential.
func (m *Manager) Get(ctx context.Context, id string) (*models.Session, bool) {
	if !ValidID(id) {
		return nil, false
	}

	s, err := m.backend.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.Warn("failed to load session", "session", shortID(id), "error", err)
		}
		return nil, false
	}

	if s.Expired(m.now()) {
		m.logger.Info("session expired", "session", shortID(id))
		m.remove(ctx, id)
		return nil, false
	}

	return s, true
}

// Update applies a partial update. Returns false if the session is absent or expired.
func (m *Manager) Update(ctx context.Context, id string, upd models.SessionUpdate) bool {
	s, ok := m.Get(ctx, id)
	if !ok {
		return false
	}

	if upd.UserEmail != nil {
		email := *upd.UserEmail
		s.UserEmail = &email
	}
	if upd.IsActive != nil {
		s.IsActive = *upd.IsActive
	}

	if err := m.backend.Save(ctx, s); err != nil {
		m.logger.Warn("failed to update session", "session", shortID(id), "error", err)
		return false
	}
	return true
}

// Delete removes the session and its credential. Deleting an absent session succeeds.
func (m *Manager) Delete(ctx context.Context, id string) bool {
	if !ValidID(id) {
		return true
	}
	return m.remove(ctx, id)
}

// IsValid reports whether id names a live session
func (m *Manager) IsValid(ctx context.Context, id string) bool {
	_, ok := m.Get(ctx, id)
	return ok
}

// CleanupExpired deletes every expired session and returns how many were removed
func (m *Manager) CleanupExpired(ctx context.Context) int {
	ids, err := m.backend.List(ctx)
	if err != nil {
		m.logger.Warn("failed to list sessions", "error", err)
		return 0
	}

	now := m.now()
	removed := 0
	for _, id := range ids {
		s, err := m.backend.Load(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			// Unreadable records are dropped
			m.logger.Warn("removing unreadable session", "session", shortID(id), "error", err)
		} else if !s.Expired(now) {
			continue
		}

		if m.remove(ctx, id) {
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed)
	}
	return removed
}

// Flush removes all sessions and credentials
func (m *Manager) Flush(ctx context.Context) error {
	if err := m.backend.Purge(ctx); err != nil {
		return fmt.Errorf("failed to purge sessions: %w", err)
	}
	if m.credentials != nil {
		if err := m.credentials.Purge(ctx); err != nil {
			return fmt.Errorf("failed to purge credentials: %w", err)
		}
	}
	m.logger.Info("all sessions flushed")
	return nil
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) remove(ctx context.Context, id string) bool {
	ok := true
	if err := m.backend.Delete(ctx, id); err != nil {
		m.logger.Warn("failed to delete session", "session", shortID(id), "error", err)
		ok = false
	}
	if m.credentials != nil {
		if err := m.credentials.Forget(ctx, id); err != nil {
			m.logger.Warn("failed to delete credential", "session", shortID(id), "error", err)
			ok = false
		}
	}
	return ok
}

// shortID keeps session ids out of logs in full
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8] + "..."
}
