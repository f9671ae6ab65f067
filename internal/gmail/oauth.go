package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/internal/credential"
	"github.com/mixelka/inboxlens/pkg/models"
)

// Authenticator builds consent URLs and exchanges authorization codes
type Authenticator struct {
	config *oauth2.Config
}

// NewAuthenticator creates an authenticator for Google's OAuth2 endpoint
func NewAuthenticator(clientID, clientSecret, redirectURL string, scopes []string) *Authenticator {
	return &Authenticator{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

// Config returns the underlying OAuth2 configuration
func (a *Authenticator) Config() *oauth2.Config {
	return a.config
}

// AuthURL returns the consent URL. The session id travels as the state token
// so the callback can be routed back without cookies.
func (a *Authenticator) AuthURL(sessionID string) string {
	return a.config.AuthCodeURL(sessionID,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for a credential. There is no retry.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*models.Credential, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty authorization code", apperr.ErrAuthorizationFailed)
	}

	tok, err := a.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrAuthorizationFailed, err)
	}
	return credential.FromToken(tok, a.config.Scopes), nil
}
