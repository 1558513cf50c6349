package calculator

import (
	"errors"
	"testing"

	"LevelSentinel/internal/model"
)

func TestMergeLevels_Empty(t *testing.T) {
	merged, err := MergeLevels(nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged == nil || len(merged) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", merged)
	}
}

func TestMergeLevels_DisjointUntouched(t *testing.T) {
	in := []model.Level{lvl(0, 100), lvl(1, 200)}
	merged, err := MergeLevels(in, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(merged, in) {
		t.Errorf("merged = %v, want %v", merged, in)
	}
}

func TestMergeLevels_SequentialComparison(t *testing.T) {
	// 100 and 105 merge to 102.5; 110 is 7.5 away from the merged value and stays apart.
	merged, err := MergeLevels([]model.Level{lvl(0, 100), lvl(1, 105), lvl(2, 110)}, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Level{lvl(1, 102.5), lvl(2, 110)}
	if !equalLevels(merged, want) {
		t.Errorf("merged = %v, want %v", merged, want)
	}
}

func TestMergeLevels_ChainedTolerance(t *testing.T) {
	// 100 -> 105 merges to 102.5; 108 is within 6 of 102.5 (not of 100) and joins the chain.
	merged, err := MergeLevels([]model.Level{lvl(0, 100), lvl(1, 105), lvl(2, 108)}, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Level{lvl(2, 105.25)}
	if !equalLevels(merged, want) {
		t.Errorf("merged = %v, want %v", merged, want)
	}
	if 108-100 <= 6.0 {
		t.Fatal("chain ends must be further apart than tolerance for this case")
	}
}

func TestMergeLevels_LongChainCollapses(t *testing.T) {
	var in []model.Level
	for i := 0; i < 10; i++ {
		in = append(in, lvl(i, 100+float64(i)*2))
	}
	merged, err := MergeLevels(in, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(merged) != 1 {
		t.Fatalf("expected the whole chain to collapse, got %v", merged)
	}
	if !merged[0].Time.Equal(barTime(9)) {
		t.Errorf("merged level should carry the last incoming anchor, got %v", merged[0].Time)
	}
}

func TestMergeLevels_SortsByPriceAndKeepsInput(t *testing.T) {
	in := []model.Level{lvl(0, 110), lvl(1, 100), lvl(2, 105)}
	orig := append([]model.Level(nil), in...)

	merged, err := MergeLevels(in, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []model.Level{lvl(2, 102.5), lvl(0, 110)}
	if !equalLevels(merged, want) {
		t.Errorf("merged = %v, want %v", merged, want)
	}
	if !equalLevels(in, orig) {
		t.Errorf("input was modified: %v", in)
	}
}

func TestMergeLevels_StableOnEqualPrices(t *testing.T) {
	merged, err := MergeLevels([]model.Level{lvl(0, 100), lvl(1, 100)}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(merged, []model.Level{lvl(1, 100)}) {
		t.Errorf("later entry should win after a stable sort, got %v", merged)
	}
}

func TestMergeLevels_Idempotent(t *testing.T) {
	in := []model.Level{
		lvl(0, 3900), lvl(1, 3712.4), lvl(2, 3905.5), lvl(3, 3800),
		lvl(4, 3720), lvl(5, 3950), lvl(6, 3809.9), lvl(7, 3640),
	}
	once, err := MergeLevels(in, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := MergeLevels(once, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalLevels(once, twice) {
		t.Errorf("second merge changed output: %v -> %v", once, twice)
	}
	for i := 1; i < len(once); i++ {
		if once[i].Price-once[i-1].Price <= 10 {
			t.Errorf("levels %v and %v survived within tolerance", once[i-1], once[i])
		}
	}
}

func TestMergeLevels_NegativeTolerance(t *testing.T) {
	_, err := MergeLevels([]model.Level{lvl(0, 1)}, -1)
	if !errors.Is(err, model.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}
