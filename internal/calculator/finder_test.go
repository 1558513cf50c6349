package calculator

import (
	"errors"
	"math"
	"testing"

	"LevelSentinel/internal/model"
)

func TestWindowBounds(t *testing.T) {
	tests := []struct {
		i, n       int
		start, end int
	}{
		{0, 25, 0, 10},
		{3, 25, 0, 13},
		{9, 25, 0, 19},
		{10, 25, 0, 20},
		{15, 25, 5, 25},
		{24, 25, 14, 25},
		{2, 5, 0, 5},
	}
	for _, tt := range tests {
		start, end := windowBounds(tt.i, tt.n)
		if start != tt.start || end != tt.end {
			t.Errorf("windowBounds(%d, %d) = [%d, %d), want [%d, %d)", tt.i, tt.n, start, end, tt.start, tt.end)
		}
	}
}

func TestFindLevels_TouchCountBoundary(t *testing.T) {
	s := mkSeries(t, 100, 100, 100, 120, 130)

	sup, res, err := FindLevels(s, model.Params{LookbackPeriod: 5, MinTouch: 3, Tolerance: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(sup, []model.Level{lvl(0, 100)}) {
		t.Errorf("exactly min_touch closes should qualify, got supports %v", sup)
	}
	if len(res) != 0 {
		t.Errorf("expected no resistances, got %v", res)
	}

	sup, _, err = FindLevels(s, model.Params{LookbackPeriod: 5, MinTouch: 4, Tolerance: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sup) != 0 {
		t.Errorf("min_touch-1 closes should not qualify, got supports %v", sup)
	}
}

func TestFindLevels_WindowClipping(t *testing.T) {
	s := mkSeries(t, ascending(25)...)

	sup, res, err := FindLevels(s, model.Params{LookbackPeriod: 25, MinTouch: 1, Tolerance: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Windows for i <= 10 start at 0, later windows start at i-10.
	wantSup := []model.Level{lvl(0, 1)}
	for k := 11; k <= 24; k++ {
		wantSup = append(wantSup, lvl(k, float64(k-9)))
	}
	if !equalLevels(sup, wantSup) {
		t.Errorf("supports = %v, want %v", sup, wantSup)
	}

	// Windows end at i+10 until clipped by the slice end at i = 15.
	var wantRes []model.Level
	for k := 0; k <= 15; k++ {
		wantRes = append(wantRes, lvl(k, float64(k+10)))
	}
	if !equalLevels(res, wantRes) {
		t.Errorf("resistances = %v, want %v", res, wantRes)
	}
}

func TestFindLevels_FirstFoundWins(t *testing.T) {
	s := mkSeries(t, ascending(25)...)

	sup, _, err := FindLevels(s, model.Params{LookbackPeriod: 25, MinTouch: 1, Tolerance: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Level{
		lvl(0, 1), lvl(12, 3), lvl(14, 5), lvl(16, 7),
		lvl(18, 9), lvl(20, 11), lvl(22, 13), lvl(24, 15),
	}
	if !equalLevels(sup, want) {
		t.Errorf("supports = %v, want %v", sup, want)
	}
}

func TestFindLevels_TrailingWindow(t *testing.T) {
	s := mkSeries(t, ascending(25)...)

	sup, res, err := FindLevels(s, model.Params{LookbackPeriod: 5, MinTouch: 1, Tolerance: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(sup, []model.Level{lvl(20, 21)}) {
		t.Errorf("supports = %v, want anchor at first trailing bar", sup)
	}
	if !equalLevels(res, []model.Level{lvl(20, 25)}) {
		t.Errorf("resistances = %v, want anchor at first trailing bar", res)
	}
}

func TestFindLevels_LookbackLongerThanSeries(t *testing.T) {
	s := mkSeries(t, ascending(25)...)
	p := model.Params{LookbackPeriod: 25, MinTouch: 1, Tolerance: 0}

	wantSup, wantRes, err := FindLevels(s, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.LookbackPeriod = 500
	sup, res, err := FindLevels(s, p)
	if err != nil {
		t.Fatalf("lookback beyond series length should not fail: %v", err)
	}
	if !equalLevels(sup, wantSup) || !equalLevels(res, wantRes) {
		t.Error("lookback beyond series length should use the full series")
	}
}

func TestFindLevels_SingleBar(t *testing.T) {
	s := mkSeries(t, 42)
	sup, res, err := FindLevels(s, model.Params{LookbackPeriod: 10, MinTouch: 1, Tolerance: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(sup, []model.Level{lvl(0, 42)}) || !equalLevels(res, []model.Level{lvl(0, 42)}) {
		t.Errorf("single bar window should count itself, got %v / %v", sup, res)
	}
}

func TestFindLevels_EmptySeries(t *testing.T) {
	s := mkSeries(t)
	sup, res, err := FindLevels(s, model.Params{LookbackPeriod: 10, MinTouch: 1, Tolerance: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sup) != 0 || len(res) != 0 {
		t.Errorf("expected no levels, got %v / %v", sup, res)
	}
}

func TestFindLevels_InvalidParams(t *testing.T) {
	s := mkSeries(t, 1, 2, 3)
	tests := []struct {
		name string
		p    model.Params
	}{
		{"zero lookback", model.Params{LookbackPeriod: 0, MinTouch: 1, Tolerance: 1}},
		{"negative lookback", model.Params{LookbackPeriod: -5, MinTouch: 1, Tolerance: 1}},
		{"zero min touch", model.Params{LookbackPeriod: 10, MinTouch: 0, Tolerance: 1}},
		{"negative tolerance", model.Params{LookbackPeriod: 10, MinTouch: 1, Tolerance: -0.1}},
		{"NaN tolerance", model.Params{LookbackPeriod: 10, MinTouch: 1, Tolerance: math.NaN()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FindLevels(s, tt.p)
			if !errors.Is(err, model.ErrInvalidParams) {
				t.Errorf("expected ErrInvalidParams, got %v", err)
			}
		})
	}
}
