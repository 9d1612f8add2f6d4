package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	koruerrors "github.com/korulabs/koru/internal/errors"

	"golang.org/x/crypto/nacl/box"
)

// Wire-format sizes for the symmetric AEAD (AES-256-GCM).
const (
	SymmetricKeySize = 32 // key bytes
	ivSize           = 12 // GCM nonce
	tagSize          = 16 // GCM authentication tag
)

// EncryptedField is one AEAD-sealed value as it travels on the wire.
// All three parts are base64 encoded.
type EncryptedField struct {
	Ciphertext string
	IV         string
	Tag        string
}

// GenerateKeyPair creates a fresh box keypair for asymmetric key wrapping.
// Both keys are returned base64 encoded.
func GenerateKeyPair() (publicKey string, privateKey string, err error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate box keypair: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub[:]), base64.StdEncoding.EncodeToString(priv[:]), nil
}

// NewProjectKey generates a fresh random project key: 16 random bytes,
// hex encoded. The resulting 32 ASCII characters are used directly as the
// AES-256-GCM key bytes for every secret field in the project.
func NewProjectKey() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate project key: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

// EncryptAsymmetric seals plaintext under the recipient's public key,
// authenticated with the sender's private key. Returns base64 ciphertext
// and the 24-byte base64 nonce.
func EncryptAsymmetric(plaintext, recipientPublicKey, senderPrivateKey string) (ciphertext string, nonce string, err error) {
	pub, err := decodeBoxKey(recipientPublicKey)
	if err != nil {
		return "", "", fmt.Errorf("invalid recipient public key: %w", err)
	}
	priv, err := decodeBoxKey(senderPrivateKey)
	if err != nil {
		return "", "", fmt.Errorf("invalid sender private key: %w", err)
	}

	var n [24]byte
	if _, err := io.ReadFull(rand.Reader, n[:]); err != nil {
		return "", "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := box.Seal(nil, []byte(plaintext), &n, pub, priv)
	return base64.StdEncoding.EncodeToString(sealed), base64.StdEncoding.EncodeToString(n[:]), nil
}

// DecryptAsymmetric opens a sealed box using the recipient's private key and
// the sender's public key. Returns ErrDecryptionFailed if authentication
// fails: either a wrong key or tampered ciphertext.
func DecryptAsymmetric(ciphertext, nonce, senderPublicKey, recipientPrivateKey string) (string, error) {
	pub, err := decodeBoxKey(senderPublicKey)
	if err != nil {
		return "", fmt.Errorf("invalid sender public key: %w", err)
	}
	priv, err := decodeBoxKey(recipientPrivateKey)
	if err != nil {
		return "", fmt.Errorf("invalid recipient private key: %w", err)
	}

	rawCiphertext, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	rawNonce, err := base64.StdEncoding.DecodeString(nonce)
	if err != nil {
		return "", fmt.Errorf("invalid nonce encoding: %w", err)
	}
	if len(rawNonce) != 24 {
		return "", fmt.Errorf("invalid nonce length: expected 24 bytes, got %d", len(rawNonce))
	}

	var n [24]byte
	copy(n[:], rawNonce)

	plaintext, ok := box.Open(nil, rawCiphertext, &n, pub, priv)
	if !ok {
		return "", koruerrors.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// EncryptSymmetric seals plaintext with AES-256-GCM under the given 32-byte
// key, using a fresh random IV per call. IVs are never reused.
func EncryptSymmetric(plaintext string, key []byte) (EncryptedField, error) {
	aead, err := newGCM(key)
	if err != nil {
		return EncryptedField{}, err
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return EncryptedField{}, fmt.Errorf("failed to generate IV: %w", err)
	}

	// Seal appends ciphertext||tag; the tag travels as its own wire field.
	sealed := aead.Seal(nil, iv, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return EncryptedField{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		IV:         base64.StdEncoding.EncodeToString(iv),
		Tag:        base64.StdEncoding.EncodeToString(tag),
	}, nil
}

// DecryptSymmetric opens an AEAD-sealed field. Returns ErrDecryptionFailed
// on authentication failure; this is the primary integrity check in the
// system and must never be treated as an empty result.
func DecryptSymmetric(field EncryptedField, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(field.Ciphertext)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	iv, err := base64.StdEncoding.DecodeString(field.IV)
	if err != nil {
		return "", fmt.Errorf("invalid IV encoding: %w", err)
	}
	tag, err := base64.StdEncoding.DecodeString(field.Tag)
	if err != nil {
		return "", fmt.Errorf("invalid tag encoding: %w", err)
	}
	if len(iv) != ivSize {
		return "", koruerrors.ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, iv, append(ciphertext, tag...), nil)
	if err != nil {
		return "", koruerrors.ErrDecryptionFailed
	}
	return string(plaintext), nil
}

// Hash returns the hex-encoded SHA-256 digest of the plaintext. Stored
// alongside ciphertext to support equality checks without decryption.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != SymmetricKeySize {
		return nil, koruerrors.ErrInvalidKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCM: %w", err)
	}
	return aead, nil
}

func decodeBoxKey(encoded string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("expected 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}
