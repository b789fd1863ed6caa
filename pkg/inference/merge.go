/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: merge.go
Description: Merging rows from one dataset into another keyed on a shared independent
variable. Matching key values update the existing row, new key values are inserted in
key order, and unknown columns are appended padded with NaN.
*/

package inference

import (
	"fmt"
	"math"
	"slices"
)

// MergeRows returns a new dataset holding dst with the rows of src merged in
// on the named key column. The key column of dst must be free of duplicates
// and NaN values.
func MergeRows(dst, src *Dataset, key string) (*Dataset, error) {
	dstKey, ok := dataColumn(dst, key)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownColumn, key, dst.Name)
	}
	srcKey, ok := dataColumn(src, key)
	if !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnknownColumn, key, src.Name)
	}
	if ContainsDuplicatesOrNaN(dstKey.Values) {
		return nil, fmt.Errorf("%w: %q in %s", ErrUnsafeMergeKey, key, dst.Name)
	}
	trend := Trend(dstKey.Values)

	names := dst.ColumnNames()
	cols := make([][]float64, len(names))
	for i, c := range dst.DataColumns() {
		cols[i] = slices.Clone(c.Values)
	}
	for _, c := range src.DataColumns() {
		if !slices.Contains(names, c.Name) {
			names = append(names, c.Name)
			cols = append(cols, nanValues(dst.Rows()))
		}
	}
	k := slices.Index(names, key)

	for r, x := range srcKey.Values {
		if math.IsNaN(x) {
			continue
		}
		row := FindFirstIndex(x, cols[k], -1)
		if row < 0 {
			row = insertPosition(x, cols[k], trend)
			for j := range cols {
				if j == k {
					cols[j] = InsertSorted(x, cols[j], trend)
				} else {
					cols[j] = insertAt(cols[j], row, math.NaN())
				}
			}
		}
		for _, c := range src.DataColumns() {
			if c.Name == key || r >= len(c.Values) || math.IsNaN(c.Values[r]) {
				continue
			}
			cols[slices.Index(names, c.Name)][row] = c.Values[r]
		}
	}

	merged := &Dataset{Name: dst.Name}
	merged.Columns = append(merged.Columns, rowIndex(len(cols[k])))
	for j, name := range names {
		merged.Columns = append(merged.Columns, Column{Name: name, Values: cols[j]})
	}
	return merged, nil
}

func dataColumn(ds *Dataset, name string) (Column, bool) {
	for _, c := range ds.DataColumns() {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func nanValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = math.NaN()
	}
	return values
}
