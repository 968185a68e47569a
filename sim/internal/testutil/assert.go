// Package testutil provides shared assertion helpers for the wafer-sim test
// packages. It has no dependency on sim/ so every package can import it.
package testutil

import (
	"cmp"
	"math"
	"sort"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// AssertIntervalsDisjoint checks that [start, end) intervals, sorted by start,
// satisfy curr.start >= prev.end for every consecutive pair.
func AssertIntervalsDisjoint(t *testing.T, name string, intervals [][2]float64) {
	t.Helper()
	sorted := append([][2]float64(nil), intervals...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i][0] < sorted[j][0] })
	for i := 1; i < len(sorted); i++ {
		if sorted[i][0] < sorted[i-1][1] {
			t.Errorf("%s: interval %v overlaps %v", name, sorted[i], sorted[i-1])
		}
	}
}

// AssertStrictlyIncreasing checks that every value is greater than its predecessor.
func AssertStrictlyIncreasing[T cmp.Ordered](t *testing.T, name string, values []T) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			t.Errorf("%s: value %v at %d does not exceed %v", name, values[i], i, values[i-1])
			return
		}
	}
}
