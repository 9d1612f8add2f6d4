// Package keyring manages project key distribution.
//
// Each project has one symmetric key, stored server-side only as
// per-recipient wrapped grants. Inviting a member or issuing a service
// token wraps the key under the recipient's public key; removing a member
// removes their grant without rotating the key.
package keyring
