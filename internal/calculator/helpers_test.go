package calculator

import (
	"testing"
	"time"

	"LevelSentinel/internal/model"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func barTime(i int) time.Time { return t0.Add(time.Duration(i) * 30 * time.Minute) }

func mkSeries(t *testing.T, closes ...float64) *model.Series {
	t.Helper()
	bars := make([]model.Bar, len(closes))
	for i, c := range closes {
		bars[i] = model.Bar{Time: barTime(i), Open: c, High: c, Low: c, Close: c}
	}
	s, err := model.NewSeries(bars)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	return s
}

func ascending(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	return closes
}

func lvl(i int, price float64) model.Level { return model.Level{Time: barTime(i), Price: price} }

func equalLevels(a, b []model.Level) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Time.Equal(b[i].Time) || a[i].Price != b[i].Price {
			return false
		}
	}
	return true
}
