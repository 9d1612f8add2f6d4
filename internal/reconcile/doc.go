// Package reconcile syncs the edited working set with the server.
//
// A push is a four-way diff of current rows against the last confirmed
// baseline, computed independently for shared records and personal
// overrides, then issued as deletes, adds, and updates in that order.
// Validation runs before any network call, one push may be in flight per
// project, and a successful push advances the baseline and the snapshot
// counter by one. Concurrent edits from another client are last-write-wins;
// there is no conflict detection.
package reconcile
