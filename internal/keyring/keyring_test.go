package keyring

import (
	"errors"
	"testing"

	"github.com/korulabs/koru/internal/crypto"
	koruerrors "github.com/korulabs/koru/internal/errors"
)

type member struct {
	publicKey  string
	privateKey string
}

func newMember(t *testing.T) member {
	t.Helper()

	publicKey, privateKey, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate keypair: %v", err)
	}
	return member{publicKey: publicKey, privateKey: privateKey}
}

func TestAllGrantsUnwrapToSameKey(t *testing.T) {
	granter := newMember(t)
	alice := newMember(t)
	bob := newMember(t)

	projectKey, err := crypto.NewProjectKey()
	if err != nil {
		t.Fatalf("failed to generate project key: %v", err)
	}

	for name, recipient := range map[string]member{"alice": alice, "bob": bob} {
		grant, err := GrantAccess(projectKey, name, recipient.publicKey, granter.privateKey)
		if err != nil {
			t.Fatalf("GrantAccess for %s failed: %v", name, err)
		}
		grant.SenderPublicKey = granter.publicKey

		unwrapped, err := UnwrapProjectKey(&grant, recipient.privateKey)
		if err != nil {
			t.Fatalf("UnwrapProjectKey for %s failed: %v", name, err)
		}
		if unwrapped != projectKey {
			t.Errorf("%s unwrapped %q, want %q", name, unwrapped, projectKey)
		}
	}
}

func TestUnwrapWithoutGrant(t *testing.T) {
	me := newMember(t)

	if _, err := UnwrapProjectKey(nil, me.privateKey); !errors.Is(err, koruerrors.ErrKeyGrantInvalid) {
		t.Fatalf("expected ErrKeyGrantInvalid for missing grant, got %v", err)
	}
}

func TestUnwrapWithForeignGrant(t *testing.T) {
	granter := newMember(t)
	alice := newMember(t)
	eve := newMember(t)

	projectKey, err := crypto.NewProjectKey()
	if err != nil {
		t.Fatalf("failed to generate project key: %v", err)
	}

	grant, err := GrantAccess(projectKey, "alice", alice.publicKey, granter.privateKey)
	if err != nil {
		t.Fatalf("GrantAccess failed: %v", err)
	}
	grant.SenderPublicKey = granter.publicKey

	if _, err := UnwrapProjectKey(&grant, eve.privateKey); !errors.Is(err, koruerrors.ErrKeyGrantInvalid) {
		t.Fatalf("expected ErrKeyGrantInvalid for wrong keypair, got %v", err)
	}
}

func TestUnwrapTamperedGrant(t *testing.T) {
	granter := newMember(t)
	alice := newMember(t)

	projectKey, err := crypto.NewProjectKey()
	if err != nil {
		t.Fatalf("failed to generate project key: %v", err)
	}

	grant, err := GrantAccess(projectKey, "alice", alice.publicKey, granter.privateKey)
	if err != nil {
		t.Fatalf("GrantAccess failed: %v", err)
	}
	grant.SenderPublicKey = granter.publicKey
	grant.EncryptedKey = "AAAA" + grant.EncryptedKey[4:]

	if _, err := UnwrapProjectKey(&grant, alice.privateKey); !errors.Is(err, koruerrors.ErrKeyGrantInvalid) {
		t.Fatalf("expected ErrKeyGrantInvalid for tampered grant, got %v", err)
	}
}

func TestServiceTokenRoundTrip(t *testing.T) {
	parsed, err := ParseServiceToken("st.abc-123.cHJpdmF0ZQ")
	if err != nil {
		t.Fatalf("ParseServiceToken failed: %v", err)
	}
	if parsed.ID != "abc-123" {
		t.Errorf("unexpected id: %q", parsed.ID)
	}
	if parsed.PrivateKey != "private" {
		t.Errorf("unexpected private key: %q", parsed.PrivateKey)
	}
}

func TestParseServiceTokenRejectsMalformed(t *testing.T) {
	for _, token := range []string{"", "st.", "st.id", "nope.id.key", "st..key", "st.id.", "st.id.!!!"} {
		if _, err := ParseServiceToken(token); err == nil {
			t.Errorf("expected error for %q", token)
		}
	}
}

func TestGrantFieldsAreEncodedAndKeyed(t *testing.T) {
	granter := newMember(t)
	alice := newMember(t)

	grant, err := GrantAccess("0123456789abcdef0123456789abcdef", "user-42", alice.publicKey, granter.privateKey)
	if err != nil {
		t.Fatalf("GrantAccess failed: %v", err)
	}
	if grant.RecipientUserID != "user-42" {
		t.Errorf("unexpected recipient: %q", grant.RecipientUserID)
	}
	if grant.EncryptedKey == "" || grant.Nonce == "" {
		t.Error("grant is missing ciphertext or nonce")
	}
	if grant.EncryptedKey == "0123456789abcdef0123456789abcdef" {
		t.Error("project key leaked in plaintext")
	}
}
