/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: serialize.go
Description: Text serialization of datasets. Writes a name directive, a header row and
delimited data rows in a form the inference engine reads back to the same values.
*/

package inference

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteText writes ds as delimited text: a "#name:" directive, the data
// column names, then one line per row. The row index is not written.
// Names that would read back as numbers or split into several fields
// return ErrNotWritable before anything is written.
func WriteText(w io.Writer, ds *Dataset, d Delimiter) error {
	if d == Space {
		return fmt.Errorf("cannot write %s-delimited text: empty fields would collapse", d.Name())
	}
	if err := checkWritable(ds, d); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "#%s %s\n", nameMarker, ds.Name); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = []rune(string(d))[0]
	cols := ds.DataColumns()
	if err := cw.Write(ds.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, len(cols))
	for r := 0; r < ds.Rows(); r++ {
		for j, c := range cols {
			record[j] = formatValue(c.Values[r])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// checkWritable rejects names that would not read back as a title and header
func checkWritable(ds *Dataset, d Delimiter) error {
	if ds.Name == "" || cutAtMarker(ds.Name) != ds.Name || strings.ContainsAny(ds.Name, "\r\n") {
		return fmt.Errorf("%w: dataset name %q", ErrNotWritable, ds.Name)
	}
	for _, name := range ds.ColumnNames() {
		if !headerName(name, d) {
			return fmt.Errorf("%w: column name %q in %s", ErrNotWritable, name, ds.Name)
		}
	}
	return nil
}

// headerName reports whether name survives as a header field under d
func headerName(name string, d Delimiter) bool {
	switch {
	case name == "" || name != strings.TrimSpace(name):
		return false
	case isNumeric(name, d) || containsSeparator(name) || strings.ContainsAny(name, "\"\r\n"):
		return false
	case strings.HasPrefix(name, "#") || strings.HasPrefix(name, "//"):
		return false
	}
	for _, bad := range knownBadLines {
		if strings.Contains(name, bad) {
			return false
		}
	}
	return true
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
