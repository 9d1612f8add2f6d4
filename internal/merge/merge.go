package merge

import (
	"sort"
	"strings"
	"unicode"

	"github.com/korulabs/koru/internal/codec"
	koruerrors "github.com/korulabs/koru/internal/errors"
)

// MergedRow is one visual row of the working set: a shared record joined
// with the current user's personal override, if any. A row with no ID is a
// personal-only secret; a row with no IDOverride has no override.
type MergedRow struct {
	Pos           int
	Key           string
	Value         string
	ValueOverride *string
	Comment       string
	ID            string
	IDOverride    string
}

// HasOverride reports whether the current user's personal value shadows the
// shared one.
func (r MergedRow) HasOverride() bool {
	return r.ValueOverride != nil
}

// EffectiveValue is the value the current user sees and edits: the override
// when present, the shared value otherwise.
func (r MergedRow) EffectiveValue() string {
	if r.ValueOverride != nil {
		return *r.ValueOverride
	}
	return r.Value
}

// Merge joins shared records with the caller's personal records by key
// name. Each unique name yields one row: shared rows keep their value with
// any personal record attached as the override; a personal record with no
// shared counterpart becomes a personal-only row with an empty shared ID.
// Row order follows the shared input, with personal-only rows appended.
func Merge(shared, personal []codec.PlainSecret) []MergedRow {
	personalByKey := make(map[string]codec.PlainSecret, len(personal))
	for _, p := range personal {
		personalByKey[p.Key] = p
	}

	rows := make([]MergedRow, 0, len(shared)+len(personal))
	seen := make(map[string]bool, len(shared))

	for _, s := range shared {
		row := MergedRow{
			Pos:     len(rows),
			Key:     s.Key,
			Value:   s.Value,
			Comment: s.Comment,
			ID:      s.ID,
		}
		if p, ok := personalByKey[s.Key]; ok {
			override := p.Value
			row.ValueOverride = &override
			row.IDOverride = p.ID
		}
		seen[s.Key] = true
		rows = append(rows, row)
	}

	for _, p := range personal {
		if seen[p.Key] {
			continue
		}
		override := p.Value
		rows = append(rows, MergedRow{
			Pos:           len(rows),
			Key:           p.Key,
			ValueOverride: &override,
			Comment:       p.Comment,
			IDOverride:    p.ID,
		})
	}

	return rows
}

// NormalizeKey applies the write-time key name normalization: uppercase.
func NormalizeKey(key string) string {
	return strings.ToUpper(key)
}

// Validate checks the working set before any write is attempted. Duplicate
// key names and names beginning with a digit (reserved for interpolation
// syntax) are collected into one structured error; a nil return means the
// set is valid.
func Validate(rows []MergedRow) *koruerrors.ValidationError {
	problem := &koruerrors.ValidationError{}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[NormalizeKey(row.Key)]++
	}
	for key, count := range counts {
		if count > 1 {
			problem.Duplicates = append(problem.Duplicates, key)
		}
	}
	sort.Strings(problem.Duplicates)

	for _, row := range rows {
		if row.Key != "" && unicode.IsDigit(rune(row.Key[0])) {
			problem.LeadingDigit = append(problem.LeadingDigit, row.Key)
		}
	}

	if !problem.HasProblems() {
		return nil
	}
	return problem
}

// Sort orders rows alphabetically by key name and reassigns positions. The
// sort is stable, so rows with equal keys keep their relative order.
func Sort(rows []MergedRow, ascending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		if ascending {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Key > rows[j].Key
	})
	for i := range rows {
		rows[i].Pos = i
	}
}
