package calculator

import "LevelSentinel/internal/model"

// Reclassify moves broken supports to the resistance list. A support is broken when the two
// bars following its anchor both close strictly below its price. Supports whose anchor is not
// in the series, or that have fewer than two following bars, are kept as they are.
// Moved levels keep price and anchor and are appended after the existing resistances.
func Reclassify(series *model.Series, supports, resistances []model.Level) (finalSupports, finalResistances []model.Level) {
	finalSupports = make([]model.Level, 0, len(supports))
	finalResistances = make([]model.Level, len(resistances), len(resistances)+len(supports))
	copy(finalResistances, resistances)

	for _, s := range supports {
		if brokenSupport(series, s) {
			finalResistances = append(finalResistances, s)
			continue
		}
		finalSupports = append(finalSupports, s)
	}
	return finalSupports, finalResistances
}

func brokenSupport(series *model.Series, s model.Level) bool {
	idx, ok := series.IndexOf(s.Time)
	if !ok || idx+2 >= series.Len() {
		return false
	}
	return series.At(idx+1).Close < s.Price && series.At(idx+2).Close < s.Price
}
