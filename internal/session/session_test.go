package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/korulabs/koru/internal/crypto"
	koruerrors "github.com/korulabs/koru/internal/errors"
)

func TestDeriveWrappingKeyPadsShortPasswords(t *testing.T) {
	key := DeriveWrappingKey("hunter2")
	if len(key) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(key))
	}
	want := strings.Repeat("0", 25) + "hunter2"
	if string(key) != want {
		t.Errorf("unexpected padding: got %q, want %q", key, want)
	}
}

func TestDeriveWrappingKeyTruncatesLongPasswords(t *testing.T) {
	long := strings.Repeat("abcdefgh", 8) // 64 bytes
	key := DeriveWrappingKey(long)
	if len(key) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(key))
	}
	if string(key) != long[:32] {
		t.Errorf("expected first 32 bytes of password, got %q", key)
	}
}

func TestDeriveWrappingKeyExactLength(t *testing.T) {
	exact := strings.Repeat("x", 32)
	key := DeriveWrappingKey(exact)
	if string(key) != exact {
		t.Errorf("32-byte password should pass through unchanged, got %q", key)
	}
}

func TestDeriveWrappingKeyIsDeterministic(t *testing.T) {
	if !bytes.Equal(DeriveWrappingKey("pw"), DeriveWrappingKey("pw")) {
		t.Fatal("same password produced different wrapping keys")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	password := "correct horse battery staple"
	privateKey := "base64-private-key-material"

	envelope, err := crypto.EncryptSymmetric(privateKey, DeriveWrappingKey(password))
	if err != nil {
		t.Fatalf("failed to wrap private key: %v", err)
	}

	got, err := decryptEnvelope(envelope.Ciphertext, envelope.IV, envelope.Tag, password)
	if err != nil {
		t.Fatalf("failed to unwrap private key: %v", err)
	}
	if got != privateKey {
		t.Fatalf("round trip mismatch: got %q", got)
	}
}

func TestEnvelopeWrongPasswordIsCorrupt(t *testing.T) {
	envelope, err := crypto.EncryptSymmetric("key material", DeriveWrappingKey("right password"))
	if err != nil {
		t.Fatalf("failed to wrap private key: %v", err)
	}

	_, err = decryptEnvelope(envelope.Ciphertext, envelope.IV, envelope.Tag, "wrong password")
	if !errors.Is(err, koruerrors.ErrEnvelopeCorrupt) {
		t.Fatalf("expected ErrEnvelopeCorrupt, got %v", err)
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())

	saved := &Session{
		Email:        "dev@example.com",
		UserID:       "user-1",
		Token:        "jwt-token",
		RefreshToken: "refresh-token",
		PublicKey:    "pub",
		PrivateKey:   "priv",
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if *loaded != *saved {
		t.Fatalf("session mismatch: got %+v, want %+v", loaded, saved)
	}
}

func TestStoreLoadWithoutSave(t *testing.T) {
	store := NewStore(t.TempDir())

	if _, err := store.Load(); !errors.Is(err, koruerrors.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir())

	if err := store.Delete(); err != nil {
		t.Fatalf("deleting a missing store should not fail: %v", err)
	}

	if err := store.Save(&Session{Email: "dev@example.com"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Delete(); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Load(); !errors.Is(err, koruerrors.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn after delete, got %v", err)
	}
}

type fakeRefresher struct {
	token   string
	refresh string
	fail    bool
	calls   int
}

func (f *fakeRefresher) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	f.calls++
	if f.fail {
		return "", "", errors.New("server unavailable")
	}
	return f.token, f.refresh, nil
}

func TestTokensRefreshUpdatesAndPersists(t *testing.T) {
	store := NewStore(t.TempDir())
	sess := &Session{Email: "dev@example.com", Token: "old", RefreshToken: "old-refresh"}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	tokens := &Tokens{
		Session: sess,
		Client:  &fakeRefresher{token: "new", refresh: "new-refresh"},
		Store:   store,
	}

	got, err := tokens.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if got != "new" || tokens.Token() != "new" {
		t.Errorf("token not updated: got %q", tokens.Token())
	}
	if sess.RefreshToken != "new-refresh" {
		t.Errorf("refresh token not updated: got %q", sess.RefreshToken)
	}

	persisted, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if persisted.Token != "new" {
		t.Errorf("refreshed token not persisted: got %q", persisted.Token)
	}
}

func TestTokensRefreshFailureMeansExpiredSession(t *testing.T) {
	tokens := &Tokens{
		Session: &Session{Token: "old", RefreshToken: "old-refresh"},
		Client:  &fakeRefresher{fail: true},
	}

	if _, err := tokens.Refresh(context.Background()); !errors.Is(err, koruerrors.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}
