package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/korulabs/koru/internal/api"
	"github.com/korulabs/koru/internal/codec"
	koruerrors "github.com/korulabs/koru/internal/errors"
	"github.com/korulabs/koru/internal/merge"
)

// Engine reconciles a local working set against the server. It holds the
// last confirmed baseline and the snapshot counter per project, and allows
// one push in flight per project at a time.
type Engine struct {
	client *api.Client

	mu        sync.Mutex
	inflight  map[string]bool
	baselines map[string][]merge.MergedRow
	counters  map[string]int
}

// NewEngine creates an engine backed by the given API client.
func NewEngine(client *api.Client) *Engine {
	return &Engine{
		client:    client,
		inflight:  make(map[string]bool),
		baselines: make(map[string][]merge.MergedRow),
		counters:  make(map[string]int),
	}
}

// SetBaseline records the last state confirmed synced with the server,
// typically right after a fetch, along with the server's snapshot count.
func (e *Engine) SetBaseline(workspaceID string, rows []merge.MergedRow, snapshotCount int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baselines[workspaceID] = cloneRows(rows)
	e.counters[workspaceID] = snapshotCount
}

// Baseline returns a copy of the current baseline for the project.
func (e *Engine) Baseline(workspaceID string) []merge.MergedRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRows(e.baselines[workspaceID])
}

// SnapshotCount returns the locally tracked snapshot count. It increases by
// exactly one per successful push and never decreases.
func (e *Engine) SnapshotCount(workspaceID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counters[workspaceID]
}

// PushRequest carries one reconciliation batch.
type PushRequest struct {
	WorkspaceID string
	Environment codec.Environment
	ProjectKey  []byte
	// Current is the edited working set to reconcile against the baseline.
	Current []merge.MergedRow
	// Existing holds the wire records from the last fetch, keyed by id.
	// When present, updates re-encrypt only the fields that changed.
	Existing map[string]api.SecretRecord
}

// Push validates the working set, diffs it against the baseline, and issues
// the batch as deletes, then adds, then updates. That order avoids
// transient duplicate-name collisions against the server's uniqueness
// constraint. On success the baseline is swapped to the pushed state and
// the snapshot counter is incremented by one.
//
// A second push for the same project while one is in flight fails with
// ErrPushInFlight. A network failure mid-batch is surfaced as-is: there is
// no automatic retry or rollback, and the baseline keeps its pre-push value
// so the next push recomputes the remaining operations.
func (e *Engine) Push(ctx context.Context, req PushRequest) ([]merge.MergedRow, error) {
	if err := e.acquire(req.WorkspaceID); err != nil {
		return nil, err
	}
	defer e.release(req.WorkspaceID)

	current := normalizeRows(req.Current)
	if problem := merge.Validate(current); problem != nil {
		return nil, problem
	}

	initial := e.Baseline(req.WorkspaceID)
	plan := Diff(initial, current)
	if plan.Empty() {
		return current, nil
	}

	if err := e.applyDeletes(ctx, req, plan); err != nil {
		return nil, err
	}
	if err := e.applyAdds(ctx, req, plan, current); err != nil {
		return nil, err
	}
	if err := e.applyUpdates(ctx, req, plan, initial); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.baselines[req.WorkspaceID] = cloneRows(current)
	e.counters[req.WorkspaceID]++
	e.mu.Unlock()

	return current, nil
}

func (e *Engine) acquire(workspaceID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inflight[workspaceID] {
		return koruerrors.ErrPushInFlight
	}
	e.inflight[workspaceID] = true
	return nil
}

func (e *Engine) release(workspaceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, workspaceID)
}

func (e *Engine) applyDeletes(ctx context.Context, req PushRequest, plan Plan) error {
	ids := append(append([]string{}, plan.Secrets.ToDelete...), plan.Overrides.ToDelete...)
	if len(ids) == 0 {
		return nil
	}
	return e.client.DeleteSecrets(ctx, req.WorkspaceID, ids)
}

// applyAdds creates the new records and writes the server-assigned ids back
// into current. The server returns created records in request order.
func (e *Engine) applyAdds(ctx context.Context, req PushRequest, plan Plan, current []merge.MergedRow) error {
	if len(plan.Secrets.ToAdd) == 0 && len(plan.Overrides.ToAdd) == 0 {
		return nil
	}

	type placement struct {
		pos      int
		override bool
	}
	var records []api.SecretRecord
	var placements []placement

	for _, row := range plan.Secrets.ToAdd {
		record, err := codec.EncryptRecord(sharedPlain(row, req.Environment), req.ProjectKey)
		if err != nil {
			return err
		}
		records = append(records, record)
		placements = append(placements, placement{pos: row.Pos})
	}
	for _, row := range plan.Overrides.ToAdd {
		record, err := codec.EncryptRecord(overridePlain(row, req.Environment), req.ProjectKey)
		if err != nil {
			return err
		}
		records = append(records, record)
		placements = append(placements, placement{pos: row.Pos, override: true})
	}

	created, err := e.client.CreateSecrets(ctx, req.WorkspaceID, req.Environment.String(), records)
	if err != nil {
		return err
	}
	if len(created) != len(records) {
		return fmt.Errorf("server created %d records, expected %d", len(created), len(records))
	}

	byPos := make(map[int]int, len(current))
	for i, row := range current {
		byPos[row.Pos] = i
	}
	for i, p := range placements {
		idx, ok := byPos[p.pos]
		if !ok {
			return fmt.Errorf("created record has no matching row at position %d", p.pos)
		}
		if p.override {
			current[idx].IDOverride = created[i].ID
		} else {
			current[idx].ID = created[i].ID
		}
	}
	return nil
}

func (e *Engine) applyUpdates(ctx context.Context, req PushRequest, plan Plan, initial []merge.MergedRow) error {
	if len(plan.Secrets.ToUpdate) == 0 && len(plan.Overrides.ToUpdate) == 0 {
		return nil
	}

	initialByID := make(map[string]merge.MergedRow, len(initial))
	initialByOverrideID := make(map[string]merge.MergedRow, len(initial))
	for _, row := range initial {
		if row.ID != "" {
			initialByID[row.ID] = row
		}
		if row.IDOverride != "" {
			initialByOverrideID[row.IDOverride] = row
		}
	}

	var records []api.SecretRecord
	for _, row := range plan.Secrets.ToUpdate {
		before := initialByID[row.ID]
		record, err := e.encryptUpdate(req, row.ID, sharedPlain(before, req.Environment), sharedPlain(row, req.Environment))
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	for _, row := range plan.Overrides.ToUpdate {
		before := initialByOverrideID[row.IDOverride]
		record, err := e.encryptUpdate(req, row.IDOverride, overridePlain(before, req.Environment), overridePlain(row, req.Environment))
		if err != nil {
			return err
		}
		records = append(records, record)
	}

	return e.client.UpdateSecrets(ctx, req.WorkspaceID, records)
}

func (e *Engine) encryptUpdate(req PushRequest, id string, before, after codec.PlainSecret) (api.SecretRecord, error) {
	after.ID = id
	if existing, ok := req.Existing[id]; ok {
		return codec.ReencryptChanged(existing, before, after, req.ProjectKey)
	}
	return codec.EncryptRecord(after, req.ProjectKey)
}

func sharedPlain(row merge.MergedRow, environment codec.Environment) codec.PlainSecret {
	return codec.PlainSecret{
		ID:          row.ID,
		Environment: environment,
		Type:        codec.Shared,
		Key:         row.Key,
		Value:       row.Value,
		Comment:     row.Comment,
	}
}

func overridePlain(row merge.MergedRow, environment codec.Environment) codec.PlainSecret {
	value := ""
	if row.ValueOverride != nil {
		value = *row.ValueOverride
	}
	return codec.PlainSecret{
		ID:          row.IDOverride,
		Environment: environment,
		Type:        codec.Personal,
		Key:         row.Key,
		Value:       value,
		Comment:     row.Comment,
	}
}

// normalizeRows applies write-time key normalization to a copy of the
// working set, leaving the caller's slice untouched.
func normalizeRows(rows []merge.MergedRow) []merge.MergedRow {
	normalized := cloneRows(rows)
	for i := range normalized {
		normalized[i].Key = merge.NormalizeKey(normalized[i].Key)
	}
	return normalized
}

func cloneRows(rows []merge.MergedRow) []merge.MergedRow {
	if rows == nil {
		return nil
	}
	cloned := make([]merge.MergedRow, len(rows))
	copy(cloned, rows)
	for i := range cloned {
		if cloned[i].ValueOverride != nil {
			value := *cloned[i].ValueOverride
			cloned[i].ValueOverride = &value
		}
	}
	return cloned
}
