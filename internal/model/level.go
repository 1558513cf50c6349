package model

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidParams labels every detection input-validation failure.
var ErrInvalidParams = errors.New("invalid detection parameters")

// Role is the part a level plays relative to price.
type Role int

const (
	Support Role = iota
	Resistance
)

// String stringifies the role.
func (r Role) String() string {
	switch r {
	case Support:
		return "support"
	case Resistance:
		return "resistance"
	default:
		return ""
	}
}

// Level is a candidate price level. Time is the timestamp of the bar at which the level was
// detected, not necessarily where the extreme price printed.
type Level struct {
	Time  time.Time
	Price float64
}

// LevelSet holds the disjoint support and resistance lists of one detection run.
type LevelSet struct {
	Supports    []Level
	Resistances []Level
}

// Params are the detection inputs.
type Params struct {
	LookbackPeriod int     // most recent bars considered
	MinTouch       int     // closes required near a local extreme
	Tolerance      float64 // max price distance treated as the same level
}

// Validate checks detection preconditions.
func (p Params) Validate() error {
	if p.LookbackPeriod <= 0 {
		return fmt.Errorf("%w: lookback_period must be positive, got %d", ErrInvalidParams, p.LookbackPeriod)
	}
	if p.MinTouch <= 0 {
		return fmt.Errorf("%w: min_touch must be positive, got %d", ErrInvalidParams, p.MinTouch)
	}
	if err := ValidateTolerance(p.Tolerance); err != nil {
		return err
	}
	return nil
}

// ValidateTolerance checks that tolerance is a non-negative number.
func ValidateTolerance(tolerance float64) error {
	if math.IsNaN(tolerance) || math.IsInf(tolerance, 0) {
		return fmt.Errorf("%w: tolerance must be a finite number, got %v", ErrInvalidParams, tolerance)
	}
	if tolerance < 0 {
		return fmt.Errorf("%w: tolerance must be non-negative, got %v", ErrInvalidParams, tolerance)
	}
	return nil
}

// Report is the outcome of one detection request, ready for presentation.
type Report struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
	Params   Params
	Series   *Series
	Levels   *LevelSet
}
