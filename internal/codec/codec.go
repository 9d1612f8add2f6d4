package codec

import (
	"fmt"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/crypto"
)

// PlainSecret is one decrypted record: the unit everything above the codec
// works with. It never touches the wire.
type PlainSecret struct {
	ID          string
	Environment Environment
	Type        SecretType
	Key         string
	Value       string
	Comment     string
}

// EncryptRecord seals all three fields of a secret under the project key,
// each with its own fresh IV, and computes the plaintext hashes stored
// alongside for equality checks without decryption.
func EncryptRecord(plain PlainSecret, projectKey []byte) (api.SecretRecord, error) {
	record := api.SecretRecord{
		ID:          plain.ID,
		Environment: plain.Environment.String(),
		Type:        plain.Type.String(),
	}

	if err := sealField(&record.SecretKeyCiphertext, &record.SecretKeyIV, &record.SecretKeyTag, &record.SecretKeyHash, plain.Key, projectKey); err != nil {
		return api.SecretRecord{}, fmt.Errorf("failed to encrypt key name: %w", err)
	}
	if err := sealField(&record.SecretValueCiphertext, &record.SecretValueIV, &record.SecretValueTag, &record.SecretValueHash, plain.Value, projectKey); err != nil {
		return api.SecretRecord{}, fmt.Errorf("failed to encrypt value: %w", err)
	}
	if err := sealField(&record.SecretCommentCiphertext, &record.SecretCommentIV, &record.SecretCommentTag, &record.SecretCommentHash, plain.Comment, projectKey); err != nil {
		return api.SecretRecord{}, fmt.Errorf("failed to encrypt comment: %w", err)
	}

	return record, nil
}

// DecryptRecord opens all three fields. An authentication failure on any
// field aborts the whole record; a partially decrypted secret is never
// returned.
func DecryptRecord(record api.SecretRecord, projectKey []byte) (PlainSecret, error) {
	secretType, err := ParseSecretType(record.Type)
	if err != nil {
		return PlainSecret{}, err
	}
	environment, err := ParseEnvironment(record.Environment)
	if err != nil {
		return PlainSecret{}, err
	}

	key, err := openField(record.SecretKeyCiphertext, record.SecretKeyIV, record.SecretKeyTag, projectKey)
	if err != nil {
		return PlainSecret{}, fmt.Errorf("failed to decrypt key name of %s: %w", record.ID, err)
	}
	value, err := openField(record.SecretValueCiphertext, record.SecretValueIV, record.SecretValueTag, projectKey)
	if err != nil {
		return PlainSecret{}, fmt.Errorf("failed to decrypt value of %s: %w", record.ID, err)
	}

	comment := ""
	if record.SecretCommentCiphertext != "" {
		comment, err = openField(record.SecretCommentCiphertext, record.SecretCommentIV, record.SecretCommentTag, projectKey)
		if err != nil {
			return PlainSecret{}, fmt.Errorf("failed to decrypt comment of %s: %w", record.ID, err)
		}
	}

	return PlainSecret{
		ID:          record.ID,
		Environment: environment,
		Type:        secretType,
		Key:         key,
		Value:       value,
		Comment:     comment,
	}, nil
}

// ReencryptChanged produces the wire record for an update, re-encrypting
// only the fields whose plaintext actually changed. Unchanged fields keep
// their existing ciphertext, so a rename does not churn the value's IV.
func ReencryptChanged(existing api.SecretRecord, old, updated PlainSecret, projectKey []byte) (api.SecretRecord, error) {
	record := existing
	record.Environment = updated.Environment.String()
	record.Type = updated.Type.String()

	if updated.Key != old.Key {
		if err := sealField(&record.SecretKeyCiphertext, &record.SecretKeyIV, &record.SecretKeyTag, &record.SecretKeyHash, updated.Key, projectKey); err != nil {
			return api.SecretRecord{}, fmt.Errorf("failed to encrypt key name: %w", err)
		}
	}
	if updated.Value != old.Value {
		if err := sealField(&record.SecretValueCiphertext, &record.SecretValueIV, &record.SecretValueTag, &record.SecretValueHash, updated.Value, projectKey); err != nil {
			return api.SecretRecord{}, fmt.Errorf("failed to encrypt value: %w", err)
		}
	}
	if updated.Comment != old.Comment {
		if err := sealField(&record.SecretCommentCiphertext, &record.SecretCommentIV, &record.SecretCommentTag, &record.SecretCommentHash, updated.Comment, projectKey); err != nil {
			return api.SecretRecord{}, fmt.Errorf("failed to encrypt comment: %w", err)
		}
	}

	return record, nil
}

// DecryptAll decrypts a batch of records, preserving order.
func DecryptAll(records []api.SecretRecord, projectKey []byte) ([]PlainSecret, error) {
	plains := make([]PlainSecret, 0, len(records))
	for _, record := range records {
		plain, err := DecryptRecord(record, projectKey)
		if err != nil {
			return nil, err
		}
		plains = append(plains, plain)
	}
	return plains, nil
}

func sealField(ciphertext, iv, tag, hash *string, plaintext string, projectKey []byte) error {
	field, err := crypto.EncryptSymmetric(plaintext, projectKey)
	if err != nil {
		return err
	}
	*ciphertext = field.Ciphertext
	*iv = field.IV
	*tag = field.Tag
	*hash = crypto.Hash(plaintext)
	return nil
}

func openField(ciphertext, iv, tag string, projectKey []byte) (string, error) {
	return crypto.DecryptSymmetric(crypto.EncryptedField{Ciphertext: ciphertext, IV: iv, Tag: tag}, projectKey)
}
