package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Authentication errors indicate the user could not prove their identity.
var (
	// ErrAuthFailed indicates the password proof exchange was rejected.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotLoggedIn indicates no stored session exists.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionExpired indicates the stored session token is no longer accepted.
	ErrSessionExpired = errors.New("session has expired")
)

// Cryptographic errors indicate failures during encryption or decryption.
// An authentication-tag mismatch is always fatal to the operation: it means
// either a wrong key or tampered data, never an empty result.
var (
	// ErrEnvelopeCorrupt indicates the private-key envelope failed to decrypt.
	ErrEnvelopeCorrupt = errors.New("private key envelope failed authentication")

	// ErrDecryptionFailed indicates a secret field failed AEAD authentication.
	ErrDecryptionFailed = errors.New("decryption failed: wrong key or tampered ciphertext")

	// ErrKeyGrantInvalid indicates the caller has no usable key grant for the project.
	ErrKeyGrantInvalid = errors.New("no valid key grant for this project")

	// ErrInvalidKeyLength indicates a symmetric key has an unexpected length.
	ErrInvalidKeyLength = errors.New("invalid symmetric key length")
)

// Project state errors indicate issues with project linkage or push state.
var (
	// ErrProjectNotLinked indicates the working directory has not been linked to a project.
	ErrProjectNotLinked = errors.New("directory is not linked to a koru project")

	// ErrPushInFlight indicates another reconciliation batch is already running
	// for this project.
	ErrPushInFlight = errors.New("another push is already in flight for this project")

	// ErrSnapshotNotFound indicates the requested snapshot version does not exist.
	ErrSnapshotNotFound = errors.New("snapshot version not found")
)

// ValidationError reports problems with the local working set. It is raised
// before any network call, so invalid local state never causes partial writes.
type ValidationError struct {
	// Duplicates holds secret names that appear more than once.
	Duplicates []string

	// LeadingDigit holds secret names that begin with a digit, which is
	// reserved for interpolation syntax like ${OTHER_KEY}.
	LeadingDigit []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Duplicates) > 0 {
		parts = append(parts, fmt.Sprintf("duplicate secret names: %s", strings.Join(e.Duplicates, ", ")))
	}
	if len(e.LeadingDigit) > 0 {
		parts = append(parts, fmt.Sprintf("secret names may not begin with a digit: %s", strings.Join(e.LeadingDigit, ", ")))
	}
	if len(parts) == 0 {
		return "validation failed"
	}
	return strings.Join(parts, "; ")
}

// HasProblems reports whether the error carries any findings.
func (e *ValidationError) HasProblems() bool {
	return len(e.Duplicates) > 0 || len(e.LeadingDigit) > 0
}

// NetworkError wraps a transport failure surfaced from the API client.
// The core does not retry these; the working set and the synced baseline
// may diverge until the next successful reconciliation.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
