package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	koruerrors "github.com/korulabs/koru/internal/errors"

	bolt "go.etcd.io/bbolt"
)

var (
	sessionBucket = []byte("session")
	currentKey    = []byte("current")
)

// Store persists the session between CLI invocations so that every command
// does not require a fresh login. The stored session includes the private
// key; the database lives in the user data directory with 0600 permissions.
type Store struct {
	path string
}

// NewStore creates a store backed by session.db under dataDir.
func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, "session.db")}
}

// Save writes the session, replacing any previous one.
func (s *Store) Save(sess *Session) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(s.path, 0600, nil)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer db.Close()

	encoded, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(sessionBucket)
		if err != nil {
			return err
		}
		return bucket.Put(currentKey, encoded)
	})
}

// Load reads the stored session. Returns ErrNotLoggedIn when no session has
// been saved.
func (s *Store) Load() (*Session, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, koruerrors.ErrNotLoggedIn
	}

	db, err := bolt.Open(s.path, 0600, &bolt.Options{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}
	defer db.Close()

	var sess Session
	err = db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionBucket)
		if bucket == nil {
			return koruerrors.ErrNotLoggedIn
		}
		encoded := bucket.Get(currentKey)
		if encoded == nil {
			return koruerrors.ErrNotLoggedIn
		}
		return json.Unmarshal(encoded, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Delete removes the stored session. Deleting a store that does not exist
// is not an error.
func (s *Store) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session store: %w", err)
	}
	return nil
}

// refresher is the slice of the API client the token provider needs.
type refresher interface {
	RefreshSession(ctx context.Context, refreshToken string) (token, newRefreshToken string, err error)
}

// Tokens adapts a stored session into an api.TokenProvider. A successful
// refresh updates the session in place and persists it so later commands
// pick up the new token pair.
type Tokens struct {
	Session *Session
	Client  refresher
	Store   *Store
}

func (t *Tokens) Token() string {
	return t.Session.Token
}

func (t *Tokens) Refresh(ctx context.Context) (string, error) {
	token, refreshToken, err := t.Client.RefreshSession(ctx, t.Session.RefreshToken)
	if err != nil {
		return "", koruerrors.ErrSessionExpired
	}

	t.Session.Token = token
	t.Session.RefreshToken = refreshToken
	if t.Store != nil {
		if err := t.Store.Save(t.Session); err != nil {
			return "", fmt.Errorf("failed to persist refreshed session: %w", err)
		}
	}
	return token, nil
}
