// Package api is the HTTP boundary with the Koru server.
//
// Everything crossing this boundary is ciphertext: secret fields travel as
// AEAD triples, the project key travels only as per-recipient wrapped
// grants, and login uses an SRP proof instead of the password. Bearer
// tokens come from an injected TokenProvider; a rejected token triggers one
// refresh and one retry, never more.
package api
