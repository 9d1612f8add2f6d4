// Package srp implements the client side of SRP-6a password authentication.
//
// The implementation is wire-compatible with node-srp as deployed by the
// hosted server: 4096-bit RFC 5054 group with g = 5, SHA-256 throughout,
// k = H(N | PAD(g)), x = H(salt | H(identity ":" password)), and proofs
// M1 = H(PAD(A) | PAD(B) | PAD(S)) and M2 = H(PAD(A) | M1 | K). All values
// travel hex-encoded on the wire; encoding is the caller's concern.
package srp
