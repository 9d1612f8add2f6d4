// Package session handles login, password change, and session persistence.
//
// Login runs an SRP-6a proof exchange (the password itself is never sent)
// and then decrypts the private-key envelope locally with a key derived
// from the password. The resulting Session carries the bearer tokens and
// the unwrapped private key, and is persisted in a local bbolt database so
// subsequent commands reuse it without re-authenticating.
package session
