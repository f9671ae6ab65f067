// Package mailbox ties sessions, credentials and mail gateways together for the HTTP layer.
package mailbox

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mixelka/inboxlens/internal/analytics"
	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/internal/credential"
	"github.com/mixelka/inboxlens/internal/gmail"
	"github.com/mixelka/inboxlens/internal/session"
	"github.com/mixelka/inboxlens/pkg/models"
)

// DefaultDomainLimit is used when a domain listing names no limit
const DefaultDomainLimit = 20

// AuthStatus reports whether a session can reach its mailbox
type AuthStatus struct {
	Authenticated bool                `json:"authenticated"`
	Profile       *models.UserProfile `json:"user_profile,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// Service exposes mailbox operations keyed by session id
type Service struct {
	sessions   *session.Manager
	creds      *credential.Cache
	auth       *gmail.Authenticator
	gateways   GatewayFactory
	engine     *analytics.Engine
	sampleSize int
	logger     *slog.Logger
}

// NewService creates a new mailbox service
func NewService(
	sessions *session.Manager,
	creds *credential.Cache,
	auth *gmail.Authenticator,
	gateways GatewayFactory,
	engine *analytics.Engine,
	sampleSize int,
	logger *slog.Logger,
) *Service {
	if sampleSize <= 0 || sampleSize > gmail.MaxResults {
		sampleSize = gmail.MaxResults
	}
	return &Service{
		sessions:   sessions,
		creds:      creds,
		auth:       auth,
		gateways:   gateways,
		engine:     engine,
		sampleSize: sampleSize,
		logger:     logger.With("component", "mailbox"),
	}
}

// AuthURL returns the consent URL for a session
func (s *Service) AuthURL(sessionID string) string {
	return s.auth.AuthURL(sessionID)
}

// CompleteAuth finishes the OAuth flow started for the session named by state
func (s *Service) CompleteAuth(ctx context.Context, code, state string) error {
	if !session.ValidID(state) {
		return fmt.Errorf("%w: invalid state", apperr.ErrInvalidRequest)
	}
	if !s.sessions.IsValid(ctx, state) {
		// The session expired while the user was on the consent screen
		if _, err := s.sessions.CreateWithID(ctx, state); err != nil {
			return err
		}
	}

	cred, err := s.auth.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("authorization code exchange failed", "error", err)
		return err
	}
	if err := s.creds.Put(ctx, state, cred); err != nil {
		return err
	}

	gw, _, err := s.gateway(ctx, state)
	if err != nil {
		return err
	}

	profile, err := gw.Profile(ctx)
	if err != nil {
		// Authorized but profile unavailable; the status endpoint retries the lookup
		s.logger.Warn("failed to fetch profile after authorization", "error", err)
		return nil
	}

	email := profile.Email
	s.sessions.Update(ctx, state, models.SessionUpdate{UserEmail: &email})
	s.logger.Info("mailbox connected", "account", email)
	return nil
}

// Status reports whether the session is authenticated, with its profile when it is
func (s *Service) Status(ctx context.Context, sessionID string) AuthStatus {
	if !s.creds.Usable(ctx, sessionID) {
		return AuthStatus{}
	}

	gw, sess, err := s.gateway(ctx, sessionID)
	if err != nil {
		return AuthStatus{Error: err.Error()}
	}

	profile, err := gw.Profile(ctx)
	if err != nil {
		return AuthStatus{Error: err.Error()}
	}

	if !sess.Authenticated() || *sess.UserEmail != profile.Email {
		email := profile.Email
		s.sessions.Update(ctx, sessionID, models.SessionUpdate{UserEmail: &email})
	}

	return AuthStatus{Authenticated: true, Profile: profile}
}

// Logout drops the session's credential and unbinds its account. The session itself survives.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.creds.Forget(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to forget credential: %w", err)
	}

	empty := ""
	s.sessions.Update(ctx, sessionID, models.SessionUpdate{UserEmail: &empty})
	return nil
}

// Domains ranks sender domains over a sample of the newest inbox messages
func (s *Service) Domains(ctx context.Context, sessionID string) (models.DomainAnalysis, error) {
	gw, _, err := s.gateway(ctx, sessionID)
	if err != nil {
		return models.DomainAnalysis{}, err
	}

	emails, err := gw.FetchRecent(ctx, s.sampleSize, true)
	if err != nil {
		return models.DomainAnalysis{}, err
	}

	analysis := s.engine.Analyze(emails)
	s.logger.Info("domains analyzed", "emails", analysis.TotalEmails, "domains", len(analysis.Domains))
	return analysis, nil
}

// DomainEmails returns recent messages from one domain
func (s *Service) DomainEmails(ctx context.Context, sessionID, domain string, limit int) ([]models.EmailMessage, error) {
	d, err := analytics.NormalizeDomain(domain)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultDomainLimit
	}

	gw, _, err := s.gateway(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return gw.SearchByDomain(ctx, d, limit)
}

// Email returns a single message with its full body
func (s *Service) Email(ctx context.Context, sessionID, messageID string) (*models.EmailMessage, error) {
	gw, _, err := s.gateway(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return gw.FetchByID(ctx, messageID)
}

// SendReply sends body as a reply to original
func (s *Service) SendReply(ctx context.Context, sessionID string, original *models.EmailMessage, body string) error {
	if original == nil {
		return fmt.Errorf("%w: original_email is required", apperr.ErrInvalidRequest)
	}
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: reply body cannot be empty", apperr.ErrInvalidRequest)
	}

	gw, _, err := s.gateway(ctx, sessionID)
	if err != nil {
		return err
	}
	return gw.SendReply(ctx, original, body)
}

// Profile returns the session's account. The bound address is used when known.
func (s *Service) Profile(ctx context.Context, sessionID string) (*models.UserProfile, error) {
	sess, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		return nil, apperr.ErrSessionNotFound
	}
	if sess.Authenticated() {
		return &models.UserProfile{Email: *sess.UserEmail}, nil
	}

	gw, _, err := s.gateway(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return gw.Profile(ctx)
}

// ProfileSource binds Profile to one session
func (s *Service) ProfileSource(sessionID string) *SessionProfile {
	return &SessionProfile{service: s, sessionID: sessionID}
}

// SessionProfile resolves the account of a single session
type SessionProfile struct {
	service   *Service
	sessionID string
}

// Profile returns the session's account
func (p *SessionProfile) Profile(ctx context.Context) (*models.UserProfile, error) {
	return p.service.Profile(ctx, p.sessionID)
}

// gateway resolves the session and builds a gateway from its credential
func (s *Service) gateway(ctx context.Context, sessionID string) (Gateway, *models.Session, error) {
	sess, ok := s.sessions.Get(ctx, sessionID)
	if !ok {
		return nil, nil, apperr.ErrSessionNotFound
	}

	ts, err := s.creds.TokenSource(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	account := ""
	if sess.Authenticated() {
		account = *sess.UserEmail
	}

	gw, err := s.gateways.Gateway(ctx, account, ts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create mail gateway: %w", err)
	}
	return gw, sess, nil
}
