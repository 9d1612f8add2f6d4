// Package merge builds the client working set from decrypted records.
//
// Shared and personal records are separate storage rows server-side but one
// visual row client-side: a personal record with the same key name as a
// shared record overrides its value for the owning user only. The merged
// rows are what every command above this layer edits.
package merge
