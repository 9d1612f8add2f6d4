// Package errors provides typed error values for the Koru application.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching. This makes
// error handling more robust and refactoring-safe.
//
// # Error Categories
//
// Errors are grouped by category:
//
//   - Authentication errors: the password proof or session failed (ErrAuthFailed)
//   - Crypto errors: AEAD or key-grant failures (ErrDecryptionFailed, ErrKeyGrantInvalid)
//   - Project errors: linkage and push state (ErrProjectNotLinked, ErrPushInFlight)
//
// Two structured error types exist alongside the sentinels: ValidationError,
// raised before any network call when the working set is invalid, and
// NetworkError, which wraps transport failures the core does not retry.
//
// # Usage
//
// Return errors from internal packages:
//
//	if grant == nil {
//	    return "", errors.ErrKeyGrantInvalid
//	}
//
// Handle errors in the CLI layer:
//
//	_, err := engine.Push(ctx, opts)
//	if errors.Is(err, kerrors.ErrPushInFlight) {
//	    // Tell the user to wait for the running push
//	}
package errors
