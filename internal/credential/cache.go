package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

// Cache hands out refreshing token sources for sessions and persists refreshed tokens
type Cache struct {
	store  Store
	oauth  *oauth2.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewCache creates a new credential cache
func NewCache(store Store, oauthCfg *oauth2.Config, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		oauth:  oauthCfg,
		logger: logger.With("component", "credentials"),
		now:    time.Now,
	}
}

// Put stores a credential for a session
func (c *Cache) Put(ctx context.Context, sessionID string, cred *models.Credential) error {
	if err := c.store.Save(ctx, sessionID, cred); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Forget removes the credential of a session
func (c *Cache) Forget(ctx context.Context, sessionID string) error {
	return c.store.Delete(ctx, sessionID)
}

// Purge removes all credentials
func (c *Cache) Purge(ctx context.Context) error {
	return c.store.Purge(ctx)
}

// Usable reports whether the session holds a valid or refreshable credential
func (c *Cache) Usable(ctx context.Context, sessionID string) bool {
	_, err := c.load(ctx, sessionID)
	return err == nil
}

// TokenSource returns a token source for the session that refreshes expired tokens
// and writes refreshed tokens back to the store
func (c *Cache) TokenSource(ctx context.Context, sessionID string) (oauth2.TokenSource, error) {
	cred, err := c.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &persistingSource{
		ctx:       ctx,
		cache:     c,
		sessionID: sessionID,
		base:      c.oauth.TokenSource(ctx, ToToken(cred)),
		last:      cred.AccessToken,
		scopes:    cred.Scopes,
	}, nil
}

// load returns a usable credential, discarding one that can never be used again
func (c *Cache) load(ctx context.Context, sessionID string) (*models.Credential, error) {
	cred, err := c.store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("failed to load credential", "error", err)
		}
		return nil, apperr.ErrAuthenticationRequired
	}

	if !cred.Usable(c.now()) {
		c.logger.Info("discarding expired credential without refresh token")
		if err := c.store.Delete(ctx, sessionID); err != nil {
			c.logger.Warn("failed to delete credential", "error", err)
		}
		return nil, apperr.ErrAuthenticationRequired
	}

	return cred, nil
}

type persistingSource struct {
	ctx       context.Context
	cache     *Cache
	sessionID string
	base      oauth2.TokenSource
	scopes    []string

	mu   sync.Mutex
	last string
}

// Token returns the current token, refreshing and persisting it when needed
func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			// The provider rejected the refresh token; only re-consent can recover
			if delErr := s.cache.store.Delete(s.ctx, s.sessionID); delErr != nil {
				s.cache.logger.Warn("failed to delete credential", "error", delErr)
			}
		}
		return nil, fmt.Errorf("%w: token refresh failed: %v", apperr.ErrAuthenticationRequired, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if tok.AccessToken != s.last {
		cred := FromToken(tok, s.scopes)
		if err := s.cache.store.Save(s.ctx, s.sessionID, cred); err != nil {
			s.cache.logger.Warn("failed to persist refreshed credential", "error", err)
		} else {
			s.cache.logger.Debug("credential refreshed")
		}
		s.last = tok.AccessToken
	}

	return tok, nil
}
