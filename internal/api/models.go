package api

import "time"

// KeyGrant is one member's wrapped copy of the project key as stored on the
// server. The server never sees the plaintext key.
type KeyGrant struct {
	RecipientUserID string `json:"recipientUserId,omitempty"`
	EncryptedKey    string `json:"encryptedKey"`
	Nonce           string `json:"nonce"`
	SenderPublicKey string `json:"senderPublicKey,omitempty"`
}

// SecretRecord is one encrypted secret as it travels on the wire. Name,
// value and comment are each an independent AEAD triple under the same
// project key.
type SecretRecord struct {
	ID          string `json:"id,omitempty"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	Environment string `json:"environment"`
	Type        string `json:"type"`

	SecretKeyCiphertext string `json:"secretKeyCiphertext"`
	SecretKeyIV         string `json:"secretKeyIV"`
	SecretKeyTag        string `json:"secretKeyTag"`
	SecretKeyHash       string `json:"secretKeyHash,omitempty"`

	SecretValueCiphertext string `json:"secretValueCiphertext"`
	SecretValueIV         string `json:"secretValueIV"`
	SecretValueTag        string `json:"secretValueTag"`
	SecretValueHash       string `json:"secretValueHash,omitempty"`

	SecretCommentCiphertext string `json:"secretCommentCiphertext,omitempty"`
	SecretCommentIV         string `json:"secretCommentIV,omitempty"`
	SecretCommentTag        string `json:"secretCommentTag,omitempty"`
	SecretCommentHash       string `json:"secretCommentHash,omitempty"`
}

// Snapshot is one immutable history entry, appended on every successful
// write batch.
type Snapshot struct {
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"createdAt"`
	SecretVersions []SecretRecord `json:"secretVersions"`
}

// ProjectMember is a member of the workspace, with the public key needed to
// wrap the project key for them.
type ProjectMember struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	PublicKey string `json:"publicKey"`
}

type getKeyGrantResponse struct {
	Grant *KeyGrant `json:"grant"`
}

type getSecretsResponse struct {
	Secrets []SecretRecord `json:"secrets"`
}

type createSecretsRequest struct {
	WorkspaceID string         `json:"workspaceId"`
	Environment string         `json:"environment"`
	Secrets     []SecretRecord `json:"secrets"`
}

type createSecretsResponse struct {
	Secrets []SecretRecord `json:"secrets"`
}

type updateSecretsRequest struct {
	WorkspaceID string         `json:"workspaceId"`
	Secrets     []SecretRecord `json:"secrets"`
}

type deleteSecretsRequest struct {
	WorkspaceID string   `json:"workspaceId"`
	SecretIDs   []string `json:"secretIds"`
}

type snapshotCountResponse struct {
	Count int `json:"count"`
}

type rollbackRequest struct {
	Version int `json:"version"`
}

type membersResponse struct {
	Members []ProjectMember `json:"members"`
}

// Login wire shapes. All SRP values are hex encoded.

type loginOneRequest struct {
	Email           string `json:"email"`
	ClientPublicKey string `json:"clientPublicKey"`
}

// LoginOneResponse carries the server's SRP challenge.
type LoginOneResponse struct {
	ServerPublicKey string `json:"serverPublicKey"`
	Salt            string `json:"salt"`
}

type loginTwoRequest struct {
	Email       string `json:"email"`
	ClientProof string `json:"clientProof"`
}

// LoginTwoResponse carries the session token and the caller's encrypted
// private-key envelope. The envelope is decrypted client-side only.
type LoginTwoResponse struct {
	ServerProof  string `json:"serverProof"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`

	UserID              string `json:"userId"`
	PublicKey           string `json:"publicKey"`
	EncryptedPrivateKey string `json:"encryptedPrivateKey"`
	IV                  string `json:"iv"`
	Tag                 string `json:"tag"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	ClientProof         string `json:"clientProof"`
	Salt                string `json:"salt"`
	Verifier            string `json:"verifier"`
	EncryptedPrivateKey string `json:"encryptedPrivateKey"`
	IV                  string `json:"iv"`
	Tag                 string `json:"tag"`
}
