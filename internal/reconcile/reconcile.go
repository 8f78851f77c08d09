// Package reconcile computes the append-only merge of a freshly staged
// rate table into the historical record. Row identity is the full
// eight-field tuple; there is no surrogate key.
package reconcile

import "github.com/sells-group/ftc-sync/internal/model"

// Result holds the outcome of a diff: the genuinely new rows and the
// merged table (historical order preserved, new rows appended in staging
// order).
type Result struct {
	NewRows []model.RateRow
	Merged  []model.RateRow
}

// Diff returns the staging rows absent from historical and the merged
// table. The difference is a set difference: a staging row already in
// historical is excluded even when staging repeats it, and staging
// duplicates contribute a single new row.
func Diff(staging, historical []model.RateRow) Result {
	seen := make(map[string]struct{}, len(historical)+len(staging))
	for _, r := range historical {
		seen[r.Key()] = struct{}{}
	}

	merged := append(make([]model.RateRow, 0, len(historical)+len(staging)), historical...)
	var newRows []model.RateRow

	for _, r := range staging {
		key := r.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		newRows = append(newRows, r)
		merged = append(merged, r)
	}

	return Result{NewRows: newRows, Merged: merged}
}
