/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: assemble.go
Description: Column assembly for a finished scan. Transposes the accepted rows into
NaN-padded columns and wraps them into one dataset, or into one dataset per track when
the text declared several interleaved tracks.
*/

package inference

import (
	"math"
	"slices"
)

// assemble turns the accepted rows into datasets; nil means the trial failed
func (s *scanState) assemble(source string, preferSingle bool) []*Dataset {
	if len(s.rows) == 0 || s.width == 0 {
		return nil
	}
	if s.multi && !preferSingle && len(s.tracks) > 1 {
		return s.assembleTracks()
	}
	if ds := s.assembleSingle(source); ds != nil {
		return []*Dataset{ds}
	}
	return nil
}

// transpose converts row-major values to ncols columns padded with NaN
func (s *scanState) transpose(ncols int) [][]float64 {
	cols := make([][]float64, ncols)
	for j := range cols {
		col := make([]float64, len(s.rows))
		for i, row := range s.rows {
			if j < len(row) {
				col[i] = row[j]
			} else {
				col[i] = math.NaN()
			}
		}
		cols[j] = col
	}
	return cols
}

func (s *scanState) assembleSingle(source string) *Dataset {
	ncols := max(s.width, len(s.header))
	ds := &Dataset{Name: s.datasetName(source)}
	ds.Columns = append(ds.Columns, rowIndex(len(s.rows)))
	for j, values := range s.transpose(ncols) {
		name := s.columnName(j, ncols)
		// blank columns left over from ragged headers
		if name == UnnamedColumn && allNaN(values) {
			continue
		}
		ds.Columns = append(ds.Columns, Column{Name: name, Values: values})
	}
	if !hasData(ds) {
		return nil
	}
	return ds
}

// assembleTracks splits the columns into one dataset per track. Empty "?"
// columns are kept here, unlike the single dataset case.
func (s *scanState) assembleTracks() []*Dataset {
	ncols := max(s.width, len(s.header))
	cols := s.transpose(ncols)
	dropPrimary := s.unnamedPrimaries(ncols)
	var out []*Dataset
	for _, track := range s.tracks {
		first := track.index
		if first >= ncols {
			break
		}
		last := min(first+s.stride, ncols)
		lo, hi, ok := valueRange(cols[first])
		if !ok {
			continue
		}
		ds := &Dataset{Name: track.name}
		ds.Columns = append(ds.Columns, rowIndex(hi-lo))
		for j := first; j < last; j++ {
			if j == first && dropPrimary {
				continue
			}
			values := slices.Clone(cols[j][lo:hi])
			ds.Columns = append(ds.Columns, Column{Name: s.columnName(j, ncols), Values: values})
		}
		if hasData(ds) {
			out = append(out, ds)
		}
	}
	return out
}

// unnamedPrimaries reports whether the first column of every track only
// carries the track title. That holds when the track names came from the
// column line itself, or when the header leaves every primary column blank.
// Header-named primary columns are always data.
func (s *scanState) unnamedPrimaries(ncols int) bool {
	if s.header == nil {
		return true
	}
	for _, track := range s.tracks {
		if track.index < ncols && s.columnName(track.index, ncols) != UnnamedColumn {
			return false
		}
	}
	return true
}

func (s *scanState) datasetName(source string) string {
	switch {
	case s.title != "":
		return s.title
	case source != "":
		return source
	default:
		return PlaceholderName
	}
}

func (s *scanState) columnName(j, ncols int) string {
	if j < len(s.header) {
		return s.header[j]
	}
	if s.header == nil {
		if name, ok := s.candidateAt(j); ok {
			return name
		}
	}
	if ncols == 1 && s.title != "" {
		return s.title
	}
	return UnnamedColumn
}

// rowIndex builds the synthetic 0..n-1 axis
func rowIndex(n int) Column {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	return Column{Name: RowIndexName, Values: values, Synthetic: true}
}

// valueRange returns the half-open range between the first and last non-NaN value
func valueRange(values []float64) (int, int, bool) {
	lo := slices.IndexFunc(values, func(v float64) bool { return !math.IsNaN(v) })
	if lo < 0 {
		return 0, 0, false
	}
	hi := len(values)
	for hi > lo && math.IsNaN(values[hi-1]) {
		hi--
	}
	return lo, hi, true
}

// hasData reports whether any data column holds a number
func hasData(ds *Dataset) bool {
	for _, c := range ds.DataColumns() {
		if !allNaN(c.Values) {
			return true
		}
	}
	return false
}
