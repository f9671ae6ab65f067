package gmail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/inboxlens/internal/apperr"
)

func TestAuthURL(t *testing.T) {
	a := NewAuthenticator("client-id", "secret", "http://localhost:8000/auth/gmail/callback", []string{"scope-a", "scope-b"})

	u, err := url.Parse(a.AuthURL("session-123"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "session-123", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "true", q.Get("include_granted_scopes"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "scope-a scope-b", q.Get("scope"))
	assert.Equal(t, "http://localhost:8000/auth/gmail/callback", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		if r.Form.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"invalid_grant"}`)
			return
		}
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","token_type":"Bearer","expires_in":3600,"scope":"scope-a"}`)
	}))
	defer srv.Close()

	a := NewAuthenticator("client-id", "secret", "http://localhost/cb", []string{"scope-a", "scope-b"})
	a.Config().Endpoint.TokenURL = srv.URL

	cred, err := a.Exchange(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "at", cred.AccessToken)
	assert.Equal(t, "rt", cred.RefreshToken)
	assert.Equal(t, []string{"scope-a"}, cred.Scopes)
	assert.False(t, cred.Expiry.IsZero())

	_, err = a.Exchange(context.Background(), "bad-code")
	assert.ErrorIs(t, err, apperr.ErrAuthorizationFailed)

	_, err = a.Exchange(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrAuthorizationFailed)
}
