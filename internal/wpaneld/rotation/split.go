package rotation

import "math"

// Split is the width of the two dual-layout panes in percent
type Split struct {
	Left  float64
	Right float64
}

// EvenSplit is used whenever an aspect ratio is unknown
var EvenSplit = Split{Left: 50, Right: 50}

// SplitPanes divides 100% between two panes in proportion to their aspect
// ratios (width/height). A non-positive, NaN or infinite ratio is unknown
// and yields EvenSplit.
func SplitPanes(left, right float64) Split {
	if !knownAspect(left) || !knownAspect(right) {
		return EvenSplit
	}
	l := 100 * (left / (left + right))
	if !(l >= 0 && l <= 100) {
		return EvenSplit
	}
	return Split{Left: l, Right: 100 - l}
}

func knownAspect(a float64) bool {
	return a > 0 && !math.IsInf(a, 0) && !math.IsNaN(a)
}
