package reconcile

import (
	"reflect"
	"testing"

	"github.com/korulabs/koru/internal/merge"
)

func strptr(s string) *string { return &s }

func TestDiffIdempotence(t *testing.T) {
	rows := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "1", ID: "s1"},
		{Pos: 1, Key: "B", Value: "2", ID: "s2", ValueOverride: strptr("mine"), IDOverride: "p1"},
	}

	plan := Diff(rows, rows)
	if !plan.Empty() {
		t.Fatalf("identical states must produce an empty plan, got %+v", plan)
	}
}

func TestDiffMinimality(t *testing.T) {
	initial := []merge.MergedRow{{Pos: 0, Key: "A", Value: "1", ID: "1"}}
	current := []merge.MergedRow{{Pos: 0, Key: "A", Value: "2", ID: "1"}}

	plan := Diff(initial, current)
	if len(plan.Secrets.ToUpdate) != 1 || plan.Secrets.ToUpdate[0].ID != "1" {
		t.Errorf("expected ToUpdate={1}, got %+v", plan.Secrets.ToUpdate)
	}
	if len(plan.Secrets.ToAdd) != 0 || len(plan.Secrets.ToDelete) != 0 {
		t.Errorf("expected no adds or deletes, got %+v", plan.Secrets)
	}
	if !plan.Overrides.Empty() {
		t.Errorf("override diff should be empty, got %+v", plan.Overrides)
	}
}

func TestDiffKeyAndValueChangeIsSingleUpdate(t *testing.T) {
	initial := []merge.MergedRow{{Pos: 0, Key: "OLD", Value: "1", ID: "1"}}
	current := []merge.MergedRow{{Pos: 0, Key: "NEW", Value: "2", ID: "1"}}

	plan := Diff(initial, current)
	if len(plan.Secrets.ToUpdate) != 1 {
		t.Fatalf("expected a single update, got %+v", plan.Secrets)
	}
	if len(plan.Secrets.ToDelete) != 0 || len(plan.Secrets.ToAdd) != 0 {
		t.Fatalf("rename must never become delete+add, got %+v", plan.Secrets)
	}
}

func TestDiffIsOrderIndependent(t *testing.T) {
	initial := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "1", ID: "s1"},
		{Pos: 1, Key: "B", Value: "2", ID: "s2"},
	}
	reordered := []merge.MergedRow{
		{Pos: 0, Key: "B", Value: "2", ID: "s2"},
		{Pos: 1, Key: "A", Value: "1", ID: "s1"},
	}

	if plan := Diff(initial, reordered); !plan.Empty() {
		t.Fatalf("reordering rows must not produce operations, got %+v", plan)
	}
}

func TestDiffClassifiesAllFourSets(t *testing.T) {
	initial := []merge.MergedRow{
		{Pos: 0, Key: "KEEP", Value: "same", ID: "s1"},
		{Pos: 1, Key: "EDIT", Value: "old", ID: "s2"},
		{Pos: 2, Key: "DROP", Value: "gone", ID: "s3"},
	}
	current := []merge.MergedRow{
		{Pos: 0, Key: "KEEP", Value: "same", ID: "s1"},
		{Pos: 1, Key: "EDIT", Value: "new", ID: "s2"},
		{Pos: 2, Key: "FRESH", Value: "added"},
	}

	plan := Diff(initial, current)
	if !reflect.DeepEqual(plan.Secrets.ToDelete, []string{"s3"}) {
		t.Errorf("unexpected deletes: %v", plan.Secrets.ToDelete)
	}
	if len(plan.Secrets.ToAdd) != 1 || plan.Secrets.ToAdd[0].Key != "FRESH" {
		t.Errorf("unexpected adds: %+v", plan.Secrets.ToAdd)
	}
	if len(plan.Secrets.ToUpdate) != 1 || plan.Secrets.ToUpdate[0].ID != "s2" {
		t.Errorf("unexpected updates: %+v", plan.Secrets.ToUpdate)
	}
}

func TestDiffOverridesAreIndependent(t *testing.T) {
	initial := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "shared", ID: "s1", ValueOverride: strptr("old"), IDOverride: "p1"},
	}
	current := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "shared", ID: "s1", ValueOverride: strptr("new"), IDOverride: "p1"},
	}

	plan := Diff(initial, current)
	if !plan.Secrets.Empty() {
		t.Errorf("shared diff must be empty when only the override changed, got %+v", plan.Secrets)
	}
	if len(plan.Overrides.ToUpdate) != 1 || plan.Overrides.ToUpdate[0].IDOverride != "p1" {
		t.Errorf("unexpected override updates: %+v", plan.Overrides)
	}
}

func TestDiffOverrideRemoval(t *testing.T) {
	initial := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "shared", ID: "s1", ValueOverride: strptr("mine"), IDOverride: "p1"},
	}
	current := []merge.MergedRow{
		{Pos: 0, Key: "A", Value: "shared", ID: "s1"},
	}

	plan := Diff(initial, current)
	if !plan.Secrets.Empty() {
		t.Errorf("shared record must be untouched, got %+v", plan.Secrets)
	}
	if !reflect.DeepEqual(plan.Overrides.ToDelete, []string{"p1"}) {
		t.Errorf("expected override delete, got %+v", plan.Overrides)
	}
}

func TestDiffPersonalOnlyRowIsNotASharedAdd(t *testing.T) {
	current := []merge.MergedRow{
		{Pos: 0, Key: "MY_TOKEN", ValueOverride: strptr("xyz")},
	}

	plan := Diff(nil, current)
	if len(plan.Secrets.ToAdd) != 0 {
		t.Errorf("personal-only row must not create a shared record, got %+v", plan.Secrets.ToAdd)
	}
	if len(plan.Overrides.ToAdd) != 1 {
		t.Errorf("expected one override add, got %+v", plan.Overrides.ToAdd)
	}
}

func TestDiffPersonalOnlyRowGainingSharedValueIsASharedAdd(t *testing.T) {
	initial := []merge.MergedRow{
		{Pos: 0, Key: "FOO", ValueOverride: strptr("personal"), IDOverride: "p1"},
	}
	current := []merge.MergedRow{
		{Pos: 0, Key: "FOO", Value: "shared-value", ValueOverride: strptr("personal"), IDOverride: "p1"},
	}

	plan := Diff(initial, current)
	if len(plan.Secrets.ToAdd) != 1 || plan.Secrets.ToAdd[0].Value != "shared-value" {
		t.Fatalf("setting a shared value on a personal-only row must add a shared record, got %+v", plan.Secrets)
	}
	if !plan.Overrides.Empty() {
		t.Errorf("the unchanged override must produce no operations, got %+v", plan.Overrides)
	}
}
