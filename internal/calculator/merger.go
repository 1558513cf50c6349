package calculator

import (
	"math"
	"sort"

	"LevelSentinel/internal/model"
)

// MergeLevels consolidates levels whose prices lie within tolerance of each other.
//
// Levels are stably sorted by price and folded left to right: an entry within tolerance of the
// last merged level replaces it with the mean of both prices, anchored at the incoming entry's
// time. Comparison is always against the last merged value, so a run of closely spaced levels
// can collapse into one even when its ends are further apart than tolerance.
// The input slice is not modified.
func MergeLevels(levels []model.Level, tolerance float64) ([]model.Level, error) {
	if err := model.ValidateTolerance(tolerance); err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return []model.Level{}, nil
	}

	sorted := make([]model.Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Price < sorted[j].Price })

	merged := []model.Level{sorted[0]}
	for _, cur := range sorted[1:] {
		last := merged[len(merged)-1]
		if math.Abs(cur.Price-last.Price) <= tolerance {
			merged[len(merged)-1] = model.Level{Time: cur.Time, Price: (cur.Price + last.Price) / 2}
			continue
		}
		merged = append(merged, cur)
	}
	return merged, nil
}
