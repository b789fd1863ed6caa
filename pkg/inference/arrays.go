/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: arrays.go
Description: Row and array helpers used for duplicate detection and for merging
independent-variable columns from different sources. All helpers are pure and
return new slices instead of growing their inputs in place.
*/

package inference

import "math"

// FindFirstIndex returns the first index holding exactly value, skipping
// ignoreIndex, or -1 when absent
func FindFirstIndex(value float64, values []float64, ignoreIndex int) int {
	for i, v := range values {
		if i == ignoreIndex {
			continue
		}
		if v == value {
			return i
		}
	}
	return -1
}

// ContainsDuplicatesOrNaN reports NaN entries or exactly equal pairs
func ContainsDuplicatesOrNaN(values []float64) bool {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		if math.IsNaN(v) {
			return true
		}
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}

// InsertSorted returns a copy of values with value inserted. A positive trend
// inserts before the first larger element, a negative trend before the first
// smaller element, and zero appends.
func InsertSorted(value float64, values []float64, trend int) []float64 {
	return insertAt(values, insertPosition(value, values, trend), value)
}

func insertPosition(value float64, values []float64, trend int) int {
	for i, v := range values {
		if (trend > 0 && v > value) || (trend < 0 && v < value) {
			return i
		}
	}
	return len(values)
}

// insertAt returns a new slice with value at index i
func insertAt(values []float64, i int, value float64) []float64 {
	out := make([]float64, 0, len(values)+1)
	out = append(out, values[:i]...)
	out = append(out, value)
	return append(out, values[i:]...)
}

// Trend is +1 for strictly ascending values, -1 for strictly descending
// values and 0 otherwise. Fewer than two values count as ascending.
func Trend(values []float64) int {
	if len(values) < 2 {
		return 1
	}
	asc, desc := true, true
	for i := 1; i < len(values); i++ {
		if !(values[i] > values[i-1]) {
			asc = false
		}
		if !(values[i] < values[i-1]) {
			desc = false
		}
	}
	switch {
	case asc:
		return 1
	case desc:
		return -1
	}
	return 0
}
