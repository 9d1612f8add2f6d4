package merge

import (
	"reflect"
	"testing"

	"github.com/korulabs/koru/internal/codec"
)

func TestMergeOverridePrecedence(t *testing.T) {
	shared := []codec.PlainSecret{
		{ID: "s1", Key: "DB_USER", Value: "prod_user", Type: codec.Shared},
	}
	personal := []codec.PlainSecret{
		{ID: "p1", Key: "DB_USER", Value: "me", Type: codec.Personal},
	}

	rows := Merge(shared, personal)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if !row.HasOverride() {
		t.Fatal("expected an override")
	}
	if row.EffectiveValue() != "me" {
		t.Errorf("editable value should be the override: got %q", row.EffectiveValue())
	}
	if row.Value != "prod_user" {
		t.Errorf("shared value must be retained underneath: got %q", row.Value)
	}
	if row.ID != "s1" || row.IDOverride != "p1" {
		t.Errorf("ids not carried: %+v", row)
	}

	// A teammate with no personal records sees the shared value.
	teammate := Merge(shared, nil)
	if teammate[0].HasOverride() {
		t.Error("teammate should not see an override")
	}
	if teammate[0].EffectiveValue() != "prod_user" {
		t.Errorf("teammate sees %q, want prod_user", teammate[0].EffectiveValue())
	}
}

func TestMergePersonalOnlyRow(t *testing.T) {
	personal := []codec.PlainSecret{
		{ID: "p1", Key: "MY_TOKEN", Value: "xyz", Comment: "local only", Type: codec.Personal},
	}

	rows := Merge(nil, personal)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if row.ID != "" {
		t.Errorf("personal-only row must have no shared id, got %q", row.ID)
	}
	if row.IDOverride != "p1" {
		t.Errorf("unexpected override id: %q", row.IDOverride)
	}
	if row.EffectiveValue() != "xyz" {
		t.Errorf("unexpected value: %q", row.EffectiveValue())
	}
	if row.Comment != "local only" {
		t.Errorf("unexpected comment: %q", row.Comment)
	}
}

func TestMergeOrderAndPositions(t *testing.T) {
	shared := []codec.PlainSecret{
		{ID: "s1", Key: "B"},
		{ID: "s2", Key: "A"},
	}
	personal := []codec.PlainSecret{
		{ID: "p1", Key: "Z"},
	}

	rows := Merge(shared, personal)
	keys := []string{rows[0].Key, rows[1].Key, rows[2].Key}
	if !reflect.DeepEqual(keys, []string{"B", "A", "Z"}) {
		t.Fatalf("unexpected order: %v", keys)
	}
	for i, row := range rows {
		if row.Pos != i {
			t.Errorf("row %d has pos %d", i, row.Pos)
		}
	}
}

func TestValidateDuplicates(t *testing.T) {
	rows := []MergedRow{
		{Key: "A", ID: "s1"},
		{Key: "A", ID: "s2"},
		{Key: "B", ID: "s3"},
	}

	problem := Validate(rows)
	if problem == nil {
		t.Fatal("expected a validation error")
	}
	if !reflect.DeepEqual(problem.Duplicates, []string{"A"}) {
		t.Errorf("unexpected duplicates: %v", problem.Duplicates)
	}
	if len(problem.LeadingDigit) != 0 {
		t.Errorf("unexpected leading-digit names: %v", problem.LeadingDigit)
	}
}

func TestValidateDuplicatesAreCaseInsensitive(t *testing.T) {
	rows := []MergedRow{
		{Key: "token", ID: "s1"},
		{Key: "TOKEN", ID: "s2"},
	}

	problem := Validate(rows)
	if problem == nil {
		t.Fatal("expected duplicate detection to normalize case")
	}
	if !reflect.DeepEqual(problem.Duplicates, []string{"TOKEN"}) {
		t.Errorf("unexpected duplicates: %v", problem.Duplicates)
	}
}

func TestValidateLeadingDigit(t *testing.T) {
	rows := []MergedRow{
		{Key: "1ABC", ID: "s1"},
		{Key: "GOOD", ID: "s2"},
	}

	problem := Validate(rows)
	if problem == nil {
		t.Fatal("expected a validation error")
	}
	if !reflect.DeepEqual(problem.LeadingDigit, []string{"1ABC"}) {
		t.Errorf("unexpected leading-digit names: %v", problem.LeadingDigit)
	}
}

func TestValidateCleanSet(t *testing.T) {
	rows := []MergedRow{
		{Key: "A", ID: "s1"},
		{Key: "B", ID: "s2"},
	}
	if problem := Validate(rows); problem != nil {
		t.Fatalf("expected no validation error, got %v", problem)
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("db_url"); got != "DB_URL" {
		t.Errorf("NormalizeKey = %q, want DB_URL", got)
	}
}

func TestSortIsStableAndTogglesDirection(t *testing.T) {
	rows := []MergedRow{
		{Pos: 0, Key: "B", ID: "first-b"},
		{Pos: 1, Key: "A"},
		{Pos: 2, Key: "B", ID: "second-b"},
	}

	Sort(rows, true)
	if rows[0].Key != "A" || rows[1].Key != "B" || rows[2].Key != "B" {
		t.Fatalf("unexpected ascending order: %v, %v, %v", rows[0].Key, rows[1].Key, rows[2].Key)
	}
	if rows[1].ID != "first-b" || rows[2].ID != "second-b" {
		t.Error("equal keys did not keep their relative order")
	}
	for i, row := range rows {
		if row.Pos != i {
			t.Errorf("row %d has pos %d after sort", i, row.Pos)
		}
	}

	Sort(rows, false)
	if rows[0].Key != "B" || rows[2].Key != "A" {
		t.Fatalf("unexpected descending order: %v, %v, %v", rows[0].Key, rows[1].Key, rows[2].Key)
	}
}
