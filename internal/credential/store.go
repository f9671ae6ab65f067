package credential

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mixelka/inboxlens/internal/session"
	"github.com/mixelka/inboxlens/pkg/models"
)

// ErrNotFound is returned by a Store when no credential exists for a session
var ErrNotFound = errors.New("credential not found")

// Store persists credentials keyed by session id
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.Credential, error)
	Save(ctx context.Context, sessionID string, cred *models.Credential) error
	// Delete removes a credential; a missing credential is not an error
	Delete(ctx context.Context, sessionID string) error
	Purge(ctx context.Context) error
}

const fileExt = ".json"

// FileStore keeps one file per session next to the session records
type FileStore struct {
	dir   string
	codec *Codec
}

// NewFileStore creates a file store rooted at dir
func NewFileStore(dir string, codec *Codec) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create credentials directory: %w", err)
	}
	return &FileStore{dir: dir, codec: codec}, nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+fileExt)
}

// Load reads and decodes a credential file
func (s *FileStore) Load(_ context.Context, sessionID string) (*models.Credential, error) {
	if !session.ValidID(sessionID) {
		return nil, ErrNotFound
	}

	raw, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return s.codec.Decode(raw)
}

// Save encodes and writes a credential file atomically
func (s *FileStore) Save(_ context.Context, sessionID string, cred *models.Credential) error {
	if !session.ValidID(sessionID) {
		return session.ErrInvalidID
	}

	data, err := s.codec.Encode(cred)
	if err != nil {
		return err
	}
	return session.WriteFileAtomic(s.path(sessionID), data)
}

// Delete removes a credential file
func (s *FileStore) Delete(_ context.Context, sessionID string) error {
	if !session.ValidID(sessionID) {
		return nil
	}
	if err := os.Remove(s.path(sessionID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove credential: %w", err)
	}
	return nil
}

// Purge removes every credential file
func (s *FileStore) Purge(_ context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove credential: %w", err)
		}
	}
	return nil
}
