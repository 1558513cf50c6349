package strategy

import (
	"fmt"

	"LevelSentinel/internal/calculator"
	"LevelSentinel/internal/model"
)

// Evaluate runs one detection pass over the series: raw levels are found on the trailing
// window, each role is merged on its own, and broken supports are then reclassified as
// resistances. The result is owned by the caller.
func Evaluate(series *model.Series, p model.Params) (*model.LevelSet, error) {
	// Step a: raw candidates
	rawSupports, rawResistances, err := calculator.FindLevels(series, p)
	if err != nil {
		return nil, err
	}

	// Step b: merge each role independently
	supports, err := calculator.MergeLevels(rawSupports, p.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("merge supports: %w", err)
	}
	resistances, err := calculator.MergeLevels(rawResistances, p.Tolerance)
	if err != nil {
		return nil, fmt.Errorf("merge resistances: %w", err)
	}

	// Step c: broken supports become resistances, no further merging
	supports, resistances = calculator.Reclassify(series, supports, resistances)

	return &model.LevelSet{Supports: supports, Resistances: resistances}, nil
}
