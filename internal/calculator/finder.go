package calculator

import (
	"math"

	"LevelSentinel/internal/model"
)

// FindLevels scans the trailing LookbackPeriod bars and proposes raw support and resistance
// levels. For every position a sub-window of closes is formed; its minimum qualifies as a
// support when at least MinTouch closes sit within Tolerance of it, and its maximum likewise as
// a resistance. A proposal within Tolerance of an earlier proposal of the same role is dropped.
// Levels are returned in scan order and anchored at the scanned bar.
func FindLevels(series *model.Series, p model.Params) (supports, resistances []model.Level, err error) {
	if err := p.Validate(); err != nil {
		return nil, nil, err
	}
	if series.Len() == 0 {
		return nil, nil, nil
	}

	bars := series.Tail(p.LookbackPeriod)
	closes := model.Closes(bars)

	for i := range bars {
		start, end := windowBounds(i, len(closes))
		window := closes[start:end]
		localMin, localMax := windowRange(window)

		if countTouches(window, localMin, p.Tolerance) >= p.MinTouch && !nearAny(supports, localMin, p.Tolerance) {
			supports = append(supports, model.Level{Time: bars[i].Time, Price: localMin})
		}
		if countTouches(window, localMax, p.Tolerance) >= p.MinTouch && !nearAny(resistances, localMax, p.Tolerance) {
			resistances = append(resistances, model.Level{Time: bars[i].Time, Price: localMax})
		}
	}
	return supports, resistances, nil
}

func nearAny(levels []model.Level, price, tolerance float64) bool {
	for _, l := range levels {
		if math.Abs(price-l.Price) <= tolerance {
			return true
		}
	}
	return false
}
