package calculator

import "math"

// halfWindow is the number of closes taken on each side of a scan position.
const halfWindow = 10

// windowBounds returns the [start, end) bounds of the sub-window around position i in a slice
// of length n. The start is clipped at 0 and the end at n.
func windowBounds(i, n int) (start, end int) {
	start = i - halfWindow
	if start < 0 {
		start = 0
	}
	end = i + halfWindow
	if end > n {
		end = n
	}
	return start, end
}

// windowRange scans the closes and returns their lowest and highest value.
func windowRange(closes []float64) (low, high float64) {
	low = math.Inf(1)
	high = math.Inf(-1)
	for _, c := range closes {
		if c < low {
			low = c
		}
		if c > high {
			high = c
		}
	}
	return low, high
}

// countTouches returns how many closes lie within tolerance of level.
func countTouches(closes []float64, level, tolerance float64) int {
	n := 0
	for _, c := range closes {
		if math.Abs(c-level) <= tolerance {
			n++
		}
	}
	return n
}
