package reconcile

import (
	"github.com/korulabs/koru/internal/merge"
)

// Changes is one four-way diff result. ToAdd rows have no server id yet;
// ToUpdate rows are matched by id; ToDelete holds ids whose rows vanished.
// Rows present in both states with no field changed appear nowhere.
type Changes struct {
	ToAdd    []merge.MergedRow
	ToUpdate []merge.MergedRow
	ToDelete []string
}

// Empty reports whether the diff requires no network operation.
func (c Changes) Empty() bool {
	return len(c.ToAdd) == 0 && len(c.ToUpdate) == 0 && len(c.ToDelete) == 0
}

// Plan is the full reconciliation plan: one diff for the shared records and
// an independent one for the personal overrides. They are separate because
// shared and personal records are independent storage rows server-side even
// though they are one visual row client-side.
type Plan struct {
	Secrets   Changes
	Overrides Changes
}

// Empty reports whether the whole plan requires no network operation.
func (p Plan) Empty() bool {
	return p.Secrets.Empty() && p.Overrides.Empty()
}

// Diff classifies every row of current against initial. Both diffs are
// keyed by record id through maps built once, so classification is O(1)
// per row and the result does not depend on row order. A row that changed
// several fields at once is a single update, never a delete plus add.
func Diff(initial, current []merge.MergedRow) Plan {
	return Plan{
		Secrets:   diffSecrets(initial, current),
		Overrides: diffOverrides(initial, current),
	}
}

// hasShared reports whether the row carries a shared record: it has a
// shared id already, it is a new row with no override attached, or it is a
// personal-only row that gained a shared value. Only a row with an override,
// no shared id, and an empty shared value stays personal-only.
func hasShared(row merge.MergedRow) bool {
	return row.ID != "" || row.ValueOverride == nil || row.Value != ""
}

func diffSecrets(initial, current []merge.MergedRow) Changes {
	initialByID := make(map[string]merge.MergedRow, len(initial))
	for _, row := range initial {
		if row.ID != "" {
			initialByID[row.ID] = row
		}
	}
	currentIDs := make(map[string]bool, len(current))

	var changes Changes
	for _, row := range current {
		if !hasShared(row) {
			continue
		}
		if row.ID == "" {
			changes.ToAdd = append(changes.ToAdd, row)
			continue
		}
		currentIDs[row.ID] = true

		before, ok := initialByID[row.ID]
		if !ok {
			changes.ToAdd = append(changes.ToAdd, row)
			continue
		}
		if before.Key != row.Key || before.Value != row.Value || before.Comment != row.Comment {
			changes.ToUpdate = append(changes.ToUpdate, row)
		}
	}

	for _, row := range initial {
		if row.ID != "" && !currentIDs[row.ID] {
			changes.ToDelete = append(changes.ToDelete, row.ID)
		}
	}

	return changes
}

func diffOverrides(initial, current []merge.MergedRow) Changes {
	initialByID := make(map[string]merge.MergedRow, len(initial))
	for _, row := range initial {
		if row.IDOverride != "" {
			initialByID[row.IDOverride] = row
		}
	}
	currentIDs := make(map[string]bool, len(current))

	var changes Changes
	for _, row := range current {
		if row.ValueOverride == nil {
			continue
		}
		if row.IDOverride == "" {
			changes.ToAdd = append(changes.ToAdd, row)
			continue
		}
		currentIDs[row.IDOverride] = true

		before, ok := initialByID[row.IDOverride]
		if !ok {
			changes.ToAdd = append(changes.ToAdd, row)
			continue
		}
		if before.Key != row.Key || before.ValueOverride == nil || *before.ValueOverride != *row.ValueOverride {
			changes.ToUpdate = append(changes.ToUpdate, row)
		}
	}

	for _, row := range initial {
		if row.IDOverride != "" && !currentIDs[row.IDOverride] {
			changes.ToDelete = append(changes.ToDelete, row.IDOverride)
		}
	}

	return changes
}
