// Package crypto implements the cryptographic primitives for Koru.
//
// Two constructions are used, matching the wire format of the hosted store:
//
//   - Asymmetric "box" encryption (X25519 + XSalsa20-Poly1305, 24-byte nonce)
//     for wrapping the project key per recipient.
//   - AES-256-GCM (12-byte IV, 16-byte tag, base64-encoded parts) for every
//     secret field and for the private-key envelope.
//
// A project key is 16 random bytes hex-encoded to 32 ASCII characters; those
// characters are the AES key bytes. SHA-256 plaintext hashes are stored next
// to ciphertext so equality can be checked without decryption.
package crypto
