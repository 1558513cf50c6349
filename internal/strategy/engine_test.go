package strategy

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"LevelSentinel/internal/model"
)

// rangeBound builds a 30-minute series oscillating between roughly 3800 and 3900.
func rangeBound(t *testing.T, n int) *model.Series {
	t.Helper()
	start := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, n)
	for i := 0; i < n; i++ {
		c := 3850 + 50*math.Sin(float64(i)/4) + float64(i%3)
		bars[i] = model.Bar{
			Time:  start.Add(time.Duration(i) * 30 * time.Minute),
			Open:  c - 2,
			High:  c + 5,
			Low:   c - 5,
			Close: c,
		}
	}
	s, err := model.NewSeries(bars)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	return s
}

func TestEvaluate_Deterministic(t *testing.T) {
	s := rangeBound(t, 120)
	p := model.Params{LookbackPeriod: 48, MinTouch: 3, Tolerance: 10}

	first, err := Evaluate(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Evaluate(s, p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestEvaluate_RangeBoundMarket(t *testing.T) {
	s := rangeBound(t, 120)
	set, err := Evaluate(s, model.Params{LookbackPeriod: 48, MinTouch: 3, Tolerance: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Supports) == 0 {
		t.Error("expected at least one support in a range-bound market")
	}
	if len(set.Resistances) == 0 {
		t.Error("expected at least one resistance in a range-bound market")
	}

	first := s.Tail(48)[0].Time
	for _, l := range append(append([]model.Level{}, set.Supports...), set.Resistances...) {
		if l.Time.Before(first) {
			t.Errorf("level %v anchored before the lookback window", l)
		}
		if _, ok := s.IndexOf(l.Time); !ok {
			t.Errorf("level %v anchored at an unknown bar", l)
		}
	}
}

func TestEvaluate_MergedLevelsStayApart(t *testing.T) {
	s := rangeBound(t, 200)
	set, err := Evaluate(s, model.Params{LookbackPeriod: 200, MinTouch: 2, Tolerance: 15})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(set.Supports); i++ {
		if set.Supports[i].Price-set.Supports[i-1].Price <= 15 {
			t.Errorf("supports %v and %v within tolerance after merge", set.Supports[i-1], set.Supports[i])
		}
	}
}

func TestEvaluate_InvalidParams(t *testing.T) {
	s := rangeBound(t, 10)
	_, err := Evaluate(s, model.Params{LookbackPeriod: 0, MinTouch: 3, Tolerance: 10})
	if !errors.Is(err, model.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestEvaluate_EmptySeries(t *testing.T) {
	s, err := model.NewSeries(nil)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	set, err := Evaluate(s, model.Params{LookbackPeriod: 48, MinTouch: 3, Tolerance: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(set.Supports) != 0 || len(set.Resistances) != 0 {
		t.Errorf("expected no levels, got %+v", set)
	}
}
