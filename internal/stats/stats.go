// Package stats holds the aggregation math used to reduce noisy samples to a
// single trustworthy figure.
package stats

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

type Number interface {
	constraints.Float | constraints.Integer
}

// Average returns the arithmetic mean. Zero for an empty set.
func Average[T Number](elements []T) float64 {
	if len(elements) == 0 {
		return 0
	}
	total := T(0)
	for _, e := range elements {
		total += e
	}
	return float64(total) / float64(len(elements))
}

// Bounds returns the smallest and largest element.
func Bounds[T Number](elements []T) (min T, max T) {
	if len(elements) == 0 {
		return 0, 0
	}
	min, max = elements[0], elements[0]
	for _, e := range elements[1:] {
		if e < min {
			min = e
		}
		if e > max {
			max = e
		}
	}
	return min, max
}

// Range returns max - min, the sample range. Zero for fewer than two elements.
func Range[T Number](elements []T) float64 {
	if len(elements) < 2 {
		return 0
	}
	min, max := Bounds(elements)
	return float64(max - min)
}

// FixedTrimmedMean averages the sample set after discarding exactly one
// smallest and one largest element. Sets of one or two elements are averaged
// as-is.
//
// The trim is fixed at one sample per side regardless of set size. It is not
// proportional, so large sets keep more of their tail than a percentage trim
// would remove. Callers rely on exactly this behavior.
func FixedTrimmedMean[T Number](elements []T) float64 {
	if len(elements) == 0 {
		return 0
	}
	if len(elements) < 3 {
		return Average(elements)
	}
	sorted := make([]T, len(elements))
	copy(sorted, elements)
	slices.Sort(sorted)
	return Average(sorted[1 : len(sorted)-1])
}
