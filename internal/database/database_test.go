package database

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixelka/inboxlens/internal/credential"
	"github.com/mixelka/inboxlens/internal/session"
	"github.com/mixelka/inboxlens/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestDB(t).Sessions()

	_, err := repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	now := time.Now().UTC().Truncate(time.Second)
	s := &models.Session{ID: "session-aaaaaaaaaaaa", CreatedAt: now, ExpiresAt: now.Add(time.Hour), IsActive: true}
	require.NoError(t, repo.Save(ctx, s))

	loaded, err := repo.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsActive)
	assert.Nil(t, loaded.UserEmail)
	assert.True(t, loaded.ExpiresAt.Equal(s.ExpiresAt))

	email := "user@example.com"
	s.UserEmail = &email
	require.NoError(t, repo.Save(ctx, s))

	loaded, err = repo.Load(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.UserEmail)
	assert.Equal(t, email, *loaded.UserEmail)

	ids, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{s.ID}, ids)

	require.NoError(t, repo.Delete(ctx, s.ID))
	require.NoError(t, repo.Delete(ctx, s.ID))
	_, err = repo.Load(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManagerOverSQLite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	codec, err := credential.NewCodec("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	creds := db.Credentials(codec)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := credential.NewCache(creds, nil, logger)
	m := session.NewManager(db.Sessions(), cache, time.Hour, logger)

	id, err := m.Create(ctx)
	require.NoError(t, err)
	assert.True(t, m.IsValid(ctx, id))

	require.NoError(t, cache.Put(ctx, id, &models.Credential{AccessToken: "a", RefreshToken: "r"}))
	assert.True(t, cache.Usable(ctx, id))

	assert.True(t, m.Delete(ctx, id))
	assert.False(t, m.IsValid(ctx, id))

	_, err = creds.Load(ctx, id)
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestCredentialRepoRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	codec, err := credential.NewCodec("")
	require.NoError(t, err)
	repo := db.Credentials(codec)

	cred := &models.Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Scopes:       []string{"scope"},
	}
	require.NoError(t, repo.Save(ctx, "session-bbbbbbbbbbbb", cred))
	require.NoError(t, repo.Save(ctx, "session-cccccccccccc", cred))

	loaded, err := repo.Load(ctx, "session-bbbbbbbbbbbb")
	require.NoError(t, err)
	assert.Equal(t, cred, loaded)

	require.NoError(t, repo.Purge(ctx))
	_, err = repo.Load(ctx, "session-cccccccccccc")
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, db.Migrate(ctx))

	tables, err := db.Tables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"credentials", "sessions"}, tables)
}
