package keyring

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/crypto"
	koruerrors "github.com/korulabs/koru/internal/errors"

	"github.com/google/uuid"
)

// UnwrapProjectKey recovers the plaintext project key from the caller's
// grant. A nil grant means the caller was never granted access; a failed
// decryption means the grant was issued for a different keypair. Both
// surface as ErrKeyGrantInvalid.
func UnwrapProjectKey(grant *api.KeyGrant, myPrivateKey string) (string, error) {
	if grant == nil {
		return "", koruerrors.ErrKeyGrantInvalid
	}

	key, err := crypto.DecryptAsymmetric(grant.EncryptedKey, grant.Nonce, grant.SenderPublicKey, myPrivateKey)
	if err != nil {
		return "", koruerrors.ErrKeyGrantInvalid
	}
	return key, nil
}

// GrantAccess wraps the plaintext project key under the recipient's public
// key, authenticated with the granter's private key. Every authorized
// member holds their own grant; all grants unwrap to the same key.
func GrantAccess(projectKey, recipientUserID, recipientPublicKey, myPrivateKey string) (api.KeyGrant, error) {
	ciphertext, nonce, err := crypto.EncryptAsymmetric(projectKey, recipientPublicKey, myPrivateKey)
	if err != nil {
		return api.KeyGrant{}, fmt.Errorf("failed to wrap project key: %w", err)
	}
	return api.KeyGrant{
		RecipientUserID: recipientUserID,
		EncryptedKey:    ciphertext,
		Nonce:           nonce,
	}, nil
}

// ObtainProjectKey returns the project key for the workspace, bootstrapping
// one if the project has never had a grant.
//
// The bootstrap path generates a fresh random key and submits a self-grant
// so the key exists on the server only in wrapped form from the start.
func ObtainProjectKey(ctx context.Context, client *api.Client, workspaceID, userID, publicKey, privateKey string) (string, error) {
	grant, err := client.GetKeyGrant(ctx, workspaceID)
	if err != nil {
		return "", err
	}
	if grant != nil {
		return UnwrapProjectKey(grant, privateKey)
	}

	projectKey, err := crypto.NewProjectKey()
	if err != nil {
		return "", err
	}

	selfGrant, err := GrantAccess(projectKey, userID, publicKey, privateKey)
	if err != nil {
		return "", err
	}
	if err := client.CreateKeyGrant(ctx, workspaceID, selfGrant); err != nil {
		return "", err
	}
	return projectKey, nil
}

// ServiceToken grants read access to automation without a user account. The
// recipient is a synthetic keypair generated at issuance; the token string
// carries the private half, so the server alone can never unwrap the key.
type ServiceToken struct {
	ID         string
	PrivateKey string
}

// IssueServiceToken creates a synthetic recipient, grants it the project
// key, and returns the composed token string to hand to the automation.
func IssueServiceToken(ctx context.Context, client *api.Client, workspaceID, projectKey, myPrivateKey string) (string, error) {
	publicKey, privateKey, err := crypto.GenerateKeyPair()
	if err != nil {
		return "", fmt.Errorf("failed to generate service keypair: %w", err)
	}

	tokenID := uuid.New().String()
	grant, err := GrantAccess(projectKey, "service:"+tokenID, publicKey, myPrivateKey)
	if err != nil {
		return "", err
	}
	if err := client.CreateKeyGrant(ctx, workspaceID, grant); err != nil {
		return "", err
	}

	return "st." + tokenID + "." + base64.RawURLEncoding.EncodeToString([]byte(privateKey)), nil
}

// ParseServiceToken splits a token string back into its id and private key.
func ParseServiceToken(token string) (ServiceToken, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 || parts[0] != "st" || parts[1] == "" || parts[2] == "" {
		return ServiceToken{}, fmt.Errorf("malformed service token")
	}
	privateKey, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return ServiceToken{}, fmt.Errorf("malformed service token key: %w", err)
	}
	return ServiceToken{ID: parts[1], PrivateKey: string(privateKey)}, nil
}
