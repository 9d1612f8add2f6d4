package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/crypto"
	koruerrors "github.com/korulabs/koru/internal/errors"
	"github.com/korulabs/koru/internal/srp"
)

// Session is one authenticated login: the bearer tokens plus the unwrapped
// private key. It is passed explicitly to every call site that needs it;
// there is no process-wide session state.
type Session struct {
	Email        string `json:"email"`
	UserID       string `json:"userId"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	PublicKey    string `json:"publicKey"`
	PrivateKey   string `json:"privateKey"`
}

// DeriveWrappingKey turns a password into the 32-byte key that seals the
// private-key envelope: the first 32 UTF-8 bytes of the password, left
// padded with "0" characters to 32. This exact derivation is what existing
// envelopes were encrypted under and must not change without a migration.
func DeriveWrappingKey(password string) []byte {
	raw := []byte(password)
	if len(raw) >= 32 {
		return raw[:32]
	}
	return append([]byte(strings.Repeat("0", 32-len(raw))), raw...)
}

// Login authenticates with the server and unwraps the caller's private key.
//
// The password never leaves the process: the exchange sends only SRP proof
// material, and the private-key envelope is decrypted locally with a key
// derived from the password. Returns ErrAuthFailed when the proof exchange
// fails and ErrEnvelopeCorrupt when the envelope does not authenticate.
func Login(ctx context.Context, client *api.Client, email, password string) (*Session, error) {
	params := srp.GetParams(4096)
	srpClient := srp.NewClient(params, []byte(email), []byte(password), srp.GenKey())

	loginOne, err := client.LoginOne(ctx, email, hex.EncodeToString(srpClient.ComputeA()))
	if err != nil {
		return nil, fmt.Errorf("failed to start login: %w", err)
	}

	salt, err := hex.DecodeString(loginOne.Salt)
	if err != nil {
		return nil, fmt.Errorf("invalid salt from server: %w", err)
	}
	serverB, err := hex.DecodeString(loginOne.ServerPublicKey)
	if err != nil {
		return nil, fmt.Errorf("invalid server public key: %w", err)
	}

	srpClient.SetSalt(salt, []byte(email), []byte(password))
	srpClient.SetB(serverB)

	loginTwo, err := client.LoginTwo(ctx, email, hex.EncodeToString(srpClient.ComputeM1()))
	if err != nil {
		return nil, fmt.Errorf("failed to complete login: %w", err)
	}

	serverProof, err := hex.DecodeString(loginTwo.ServerProof)
	if err != nil {
		return nil, fmt.Errorf("invalid server proof: %w", err)
	}
	if err := srpClient.CheckM2(serverProof); err != nil {
		return nil, err
	}

	privateKey, err := decryptEnvelope(loginTwo.EncryptedPrivateKey, loginTwo.IV, loginTwo.Tag, password)
	if err != nil {
		return nil, err
	}

	return &Session{
		Email:        email,
		UserID:       loginTwo.UserID,
		Token:        loginTwo.Token,
		RefreshToken: loginTwo.RefreshToken,
		PublicKey:    loginTwo.PublicKey,
		PrivateKey:   privateKey,
	}, nil
}

// ChangePassword proves the old password, then submits a fresh verifier and
// a re-wrapped private-key envelope in one request. The server persists
// both or neither, so a failure leaves the old password working.
func ChangePassword(ctx context.Context, client *api.Client, sess *Session, oldPassword, newPassword string) error {
	params := srp.GetParams(4096)
	srpClient := srp.NewClient(params, []byte(sess.Email), []byte(oldPassword), srp.GenKey())

	loginOne, err := client.LoginOne(ctx, sess.Email, hex.EncodeToString(srpClient.ComputeA()))
	if err != nil {
		return fmt.Errorf("failed to start password proof: %w", err)
	}
	oldSalt, err := hex.DecodeString(loginOne.Salt)
	if err != nil {
		return fmt.Errorf("invalid salt from server: %w", err)
	}
	serverB, err := hex.DecodeString(loginOne.ServerPublicKey)
	if err != nil {
		return fmt.Errorf("invalid server public key: %w", err)
	}
	srpClient.SetSalt(oldSalt, []byte(sess.Email), []byte(oldPassword))
	srpClient.SetB(serverB)

	newSalt := make([]byte, 16)
	if _, err := rand.Read(newSalt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}
	verifier := srp.ComputeVerifier(params, newSalt, []byte(sess.Email), []byte(newPassword))

	envelope, err := crypto.EncryptSymmetric(sess.PrivateKey, DeriveWrappingKey(newPassword))
	if err != nil {
		return fmt.Errorf("failed to re-wrap private key: %w", err)
	}

	return client.ChangePassword(ctx,
		hex.EncodeToString(srpClient.ComputeM1()),
		hex.EncodeToString(newSalt),
		hex.EncodeToString(verifier),
		envelope.Ciphertext, envelope.IV, envelope.Tag,
	)
}

func decryptEnvelope(ciphertext, iv, tag, password string) (string, error) {
	field := crypto.EncryptedField{Ciphertext: ciphertext, IV: iv, Tag: tag}
	privateKey, err := crypto.DecryptSymmetric(field, DeriveWrappingKey(password))
	if err != nil {
		if errors.Is(err, koruerrors.ErrDecryptionFailed) {
			return "", koruerrors.ErrEnvelopeCorrupt
		}
		return "", fmt.Errorf("failed to decrypt private key envelope: %w", err)
	}
	return privateKey, nil
}
