package credential

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mixelka/inboxlens/internal/apperr"
	"github.com/mixelka/inboxlens/pkg/models"
)

const testSession = "session-0123456789abcdef"

type tokenServer struct {
	*httptest.Server
	calls atomic.Int32
}

func newTokenServer(t *testing.T, status int, body string) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestCache(t *testing.T, tokenURL string) (*Cache, *FileStore) {
	t.Helper()
	codec, err := NewCodec("")
	require.NoError(t, err)
	store, err := NewFileStore(t.TempDir(), codec)
	require.NoError(t, err)

	cfg := &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCache(store, cfg, logger), store
}

func TestTokenSourceWithoutCredential(t *testing.T) {
	cache, _ := newTestCache(t, "http://127.0.0.1:0/token")

	_, err := cache.TokenSource(context.Background(), testSession)
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
	assert.False(t, cache.Usable(context.Background(), testSession))
}

func TestUnusableCredentialIsDiscarded(t *testing.T) {
	ctx := context.Background()
	cache, store := newTestCache(t, "http://127.0.0.1:0/token")

	require.NoError(t, cache.Put(ctx, testSession, &models.Credential{
		AccessToken: "stale",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	_, err := cache.TokenSource(ctx, testSession)
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)

	_, err = store.Load(ctx, testSession)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidTokenIsNotRefreshed(t *testing.T) {
	ctx := context.Background()
	srv := newTokenServer(t, http.StatusOK, `{"access_token":"new","token_type":"Bearer","expires_in":3600}`)
	cache, _ := newTestCache(t, srv.URL)

	require.NoError(t, cache.Put(ctx, testSession, &models.Credential{
		AccessToken:  "current",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}))
	assert.True(t, cache.Usable(ctx, testSession))

	ts, err := cache.TokenSource(ctx, testSession)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "current", tok.AccessToken)
	assert.Zero(t, srv.calls.Load())
}

func TestExpiredTokenIsRefreshedAndPersisted(t *testing.T) {
	ctx := context.Background()
	srv := newTokenServer(t, http.StatusOK,
		`{"access_token":"fresh","token_type":"Bearer","expires_in":3600,"scope":"a b"}`)
	cache, store := newTestCache(t, srv.URL)

	require.NoError(t, cache.Put(ctx, testSession, &models.Credential{
		AccessToken:  "stale",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(-time.Minute),
		Scopes:       []string{"a"},
	}))
	assert.True(t, cache.Usable(ctx, testSession))

	ts, err := cache.TokenSource(ctx, testSession)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
	assert.EqualValues(t, 1, srv.calls.Load())

	stored, err := store.Load(ctx, testSession)
	require.NoError(t, err)
	assert.Equal(t, "fresh", stored.AccessToken)
	assert.Equal(t, "refresh", stored.RefreshToken)
	assert.Equal(t, []string{"a", "b"}, stored.Scopes)
	assert.True(t, stored.Expiry.After(time.Now()))
}

func TestRejectedRefreshRequiresReauth(t *testing.T) {
	ctx := context.Background()
	srv := newTokenServer(t, http.StatusBadRequest, `{"error":"invalid_grant"}`)
	cache, store := newTestCache(t, srv.URL)

	require.NoError(t, cache.Put(ctx, testSession, &models.Credential{
		AccessToken:  "stale",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Minute),
	}))

	ts, err := cache.TokenSource(ctx, testSession)
	require.NoError(t, err)

	_, err = ts.Token()
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)

	_, err = store.Load(ctx, testSession)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestForgetAndPurge(t *testing.T) {
	ctx := context.Background()
	cache, store := newTestCache(t, "http://127.0.0.1:0/token")
	cred := &models.Credential{AccessToken: "x", RefreshToken: "y"}

	require.NoError(t, cache.Put(ctx, testSession, cred))
	require.NoError(t, cache.Forget(ctx, testSession))
	require.NoError(t, cache.Forget(ctx, testSession))

	other := "session-fedcba9876543210"
	require.NoError(t, cache.Put(ctx, testSession, cred))
	require.NoError(t, cache.Put(ctx, other, cred))
	require.NoError(t, cache.Purge(ctx))

	for _, id := range []string{testSession, other} {
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	}
}
