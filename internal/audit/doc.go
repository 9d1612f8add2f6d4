// Package audit provides audit trail logging for Koru operations.
//
// Every significant operation (push, invite, token issuance, rollback,
// export) is recorded in a project-level audit log. This provides
// accountability and helps teams understand who changed secrets and when.
//
// # Log Format
//
// The audit log is stored as JSON Lines (one JSON object per line) at:
//
//	.koru/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - User email
//   - Operation name
//   - Operation-specific details (environment, counts, target users, etc.)
//
// # Usage
//
// Create an entry with user info pre-populated:
//
//	entry := audit.LogWithUser("push")
//	entry.Environment = "staging"
//	audit.Log(entry)
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error. Operations should never
// fail just because audit logging failed.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
