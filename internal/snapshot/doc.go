// Package snapshot reads project history and restores past versions.
//
// Every successful push appends one immutable history entry. A rollback
// rebuilds the working set from a chosen entry and pushes it through the
// normal reconciliation path, so restoring is itself a new version rather
// than a rewind.
package snapshot
