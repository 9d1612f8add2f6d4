package snapshot

import (
	"context"
	"fmt"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/codec"
	"github.com/korulabs/koru/internal/merge"
	"github.com/korulabs/koru/internal/reconcile"
)

// Service answers history queries and restores past versions.
type Service struct {
	client *api.Client
	engine *reconcile.Engine
}

// NewService creates a snapshot service sharing the reconciliation engine,
// so a rollback obeys the same locking and baseline rules as a normal push.
func NewService(client *api.Client, engine *reconcile.Engine) *Service {
	return &Service{client: client, engine: engine}
}

// Count returns the server-side number of history entries for the project.
func (s *Service) Count(ctx context.Context, workspaceID string) (int, error) {
	return s.client.GetSnapshotCount(ctx, workspaceID)
}

// Get fetches one history entry.
func (s *Service) Get(ctx context.Context, workspaceID string, version int) (*api.Snapshot, error) {
	return s.client.GetSnapshot(ctx, workspaceID, version)
}

// RollbackRequest restores the state captured at Version for one
// environment.
type RollbackRequest struct {
	WorkspaceID string
	Environment codec.Environment
	ProjectKey  []byte
	Version     int
	// Existing holds the wire records from the last fetch, keyed by id, for
	// partial re-encryption of updated rows.
	Existing map[string]api.SecretRecord
}

// Rollback rebuilds the working set from the requested snapshot and feeds
// it through the normal reconciliation path as the new current state. The
// restore is therefore an ordinary diff against whatever is loaded now,
// with the usual validation, ordering, and locking, and it appends a new
// version rather than rewinding history.
func (s *Service) Rollback(ctx context.Context, req RollbackRequest) ([]merge.MergedRow, error) {
	snap, err := s.client.GetSnapshot(ctx, req.WorkspaceID, req.Version)
	if err != nil {
		return nil, err
	}

	rows, err := rowsFromSnapshot(snap, req.Environment, req.ProjectKey)
	if err != nil {
		return nil, err
	}
	rekeyAgainstBaseline(rows, s.engine.Baseline(req.WorkspaceID))

	pushed, err := s.engine.Push(ctx, reconcile.PushRequest{
		WorkspaceID: req.WorkspaceID,
		Environment: req.Environment,
		ProjectKey:  req.ProjectKey,
		Current:     rows,
		Existing:    req.Existing,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply snapshot %d: %w", req.Version, err)
	}

	if err := s.client.NotifyRollback(ctx, req.WorkspaceID, req.Version); err != nil {
		// The restore itself already succeeded; only provenance is lost.
		return pushed, fmt.Errorf("failed to record rollback provenance: %w", err)
	}
	return pushed, nil
}

// rowsFromSnapshot decrypts the snapshot's records for one environment and
// merges them into a working set.
func rowsFromSnapshot(snap *api.Snapshot, environment codec.Environment, projectKey []byte) ([]merge.MergedRow, error) {
	var records []api.SecretRecord
	for _, record := range snap.SecretVersions {
		if record.Environment == environment.String() {
			records = append(records, record)
		}
	}

	plains, err := codec.DecryptAll(records, projectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt snapshot %d: %w", snap.Version, err)
	}

	var shared, personal []codec.PlainSecret
	for _, plain := range plains {
		switch plain.Type {
		case codec.Shared:
			shared = append(shared, plain)
		case codec.Personal:
			personal = append(personal, plain)
		}
	}

	return merge.Merge(shared, personal), nil
}

// rekeyAgainstBaseline swaps the historical record ids in the restored rows
// for the ids of the live rows with the same key name. A restored row then
// diffs as an update of the live record; a row whose key no longer exists
// diffs as an add.
func rekeyAgainstBaseline(rows, baseline []merge.MergedRow) {
	liveByKey := make(map[string]merge.MergedRow, len(baseline))
	for _, row := range baseline {
		liveByKey[merge.NormalizeKey(row.Key)] = row
	}

	for i := range rows {
		live, ok := liveByKey[merge.NormalizeKey(rows[i].Key)]
		if !ok {
			rows[i].ID = ""
			rows[i].IDOverride = ""
			continue
		}
		rows[i].ID = live.ID
		if rows[i].ValueOverride != nil {
			rows[i].IDOverride = live.IDOverride
		} else {
			rows[i].IDOverride = ""
		}
	}
}
