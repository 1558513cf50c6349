package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedBars is returned when bars are not strictly ascending by time.
var ErrUnorderedBars = errors.New("bars must be strictly ordered by time")

// Bar represents a single candlestick bar.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// BarRequest describes which bars a data source should return. Start and End are inclusive dates.
type BarRequest struct {
	Symbol   string
	Interval string
	Start    time.Time
	End      time.Time
}

// Series is an immutable, time-ordered sequence of bars.
type Series struct {
	bars  []Bar
	index map[int64]int
}

// NewSeries copies bars into a Series. Bars must be strictly ascending by time.
func NewSeries(bars []Bar) (*Series, error) {
	s := &Series{
		bars:  make([]Bar, len(bars)),
		index: make(map[int64]int, len(bars)),
	}
	copy(s.bars, bars)
	for i, b := range s.bars {
		if i > 0 && !b.Time.After(s.bars[i-1].Time) {
			return nil, fmt.Errorf("%w: bar %d at %s follows %s", ErrUnorderedBars,
				i, b.Time.Format(time.RFC3339), s.bars[i-1].Time.Format(time.RFC3339))
		}
		s.index[b.Time.UnixNano()] = i
	}
	return s, nil
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bars)
}

// At returns the bar at position i.
func (s *Series) At(i int) Bar { return s.bars[i] }

// IndexOf returns the position of the bar with timestamp t.
func (s *Series) IndexOf(t time.Time) (int, bool) {
	if s == nil {
		return 0, false
	}
	i, ok := s.index[t.UnixNano()]
	return i, ok
}

// Tail returns the trailing n bars. The whole series is returned when n exceeds its length.
func (s *Series) Tail(n int) []Bar {
	start := len(s.bars) - n
	if start < 0 {
		start = 0
	}
	out := make([]Bar, len(s.bars)-start)
	copy(out, s.bars[start:])
	return out
}

// Bars returns a copy of all bars.
func (s *Series) Bars() []Bar {
	return s.Tail(len(s.bars))
}

// First returns the earliest bar. The series must not be empty.
func (s *Series) First() Bar { return s.bars[0] }

// Last returns the latest bar. The series must not be empty.
func (s *Series) Last() Bar { return s.bars[len(s.bars)-1] }

// Closes extracts close prices from bars.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
