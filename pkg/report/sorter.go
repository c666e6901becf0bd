package report

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// sortKey is a column value normalized once per row before sorting.
type sortKey struct {
	null bool
	num  float64
	t    time.Time
	str  string
}

// Sort returns a new slice ordered by column c. rows is never modified.
//
// Absent values come first in ascending order and last in descending order,
// whatever the column kind. Numeric cells that do not parse and dates that
// do not parse count as absent. The sort is stable; Direction None keeps
// the input order.
func Sort[R Record](rows []R, c Column[R], dir Direction, lang language.Tag) []R {
	result := make([]R, len(rows))
	copy(result, rows)

	if dir == None || c.Get == nil || len(rows) < 2 {
		return result
	}

	keys := make([]sortKey, len(rows))
	for i, r := range rows {
		keys[i] = normalize(c.Get(r), c.Kind)
	}

	// Sort positions, not rows, so keys stay aligned with their rows.
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}

	coll := collate.New(lang)
	sort.SliceStable(order, func(i, j int) bool {
		cmp := compareKeys(keys[order[i]], keys[order[j]], c.Kind, coll)
		if dir == Desc {
			return cmp > 0
		}
		return cmp < 0
	})

	for i, idx := range order {
		result[i] = rows[idx]
	}
	return result
}

func normalize(v Value, kind Kind) sortKey {
	if v.IsNull() {
		return sortKey{null: true}
	}
	switch kind {
	case KindNumeric:
		f, ok := v.Float()
		if !ok {
			return sortKey{null: true}
		}
		return sortKey{num: f}
	case KindDate:
		t, ok := v.Time()
		if !ok {
			return sortKey{null: true}
		}
		return sortKey{t: t}
	default:
		return sortKey{str: v.String()}
	}
}

// compareKeys returns -1, 0 or 1. Absent sorts below every value.
func compareKeys(a, b sortKey, kind Kind, coll *collate.Collator) int {
	switch {
	case a.null && b.null:
		return 0
	case a.null:
		return -1
	case b.null:
		return 1
	}

	switch kind {
	case KindNumeric:
		if a.num < b.num {
			return -1
		} else if a.num > b.num {
			return 1
		}
		return 0
	case KindDate:
		if a.t.Before(b.t) {
			return -1
		} else if a.t.After(b.t) {
			return 1
		}
		return 0
	default:
		return coll.CompareString(a.str, b.str)
	}
}
