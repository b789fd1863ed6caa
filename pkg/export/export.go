/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: export.go
Description: Export of parsed datasets. Builds Arrow records from dataset columns and writes
them as snappy-compressed Parquet, and writes whole parse results as JSON, YAML or delimited
text.
*/

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/kleascm/datatool/pkg/inference"
	"gopkg.in/yaml.v3"
)

// Format names an export format
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatYAML, FormatParquet:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s", s)
	}
}

// Extension returns the file extension for the format
func (f Format) Extension() string {
	if f == FormatYAML {
		return ".yaml"
	}
	return "." + string(f)
}

// syntheticKey marks the row-index field in Arrow metadata
const syntheticKey = "datatool.synthetic"

// Schema builds a nullable float64 schema with one field per column
func Schema(ds *inference.Dataset) *arrow.Schema {
	names := uniqueNames(ds.Columns)
	fields := make([]arrow.Field, len(ds.Columns))
	for i, c := range ds.Columns {
		fields[i] = arrow.Field{Name: names[i], Type: arrow.PrimitiveTypes.Float64, Nullable: true}
		if c.Synthetic {
			fields[i].Metadata = arrow.NewMetadata([]string{syntheticKey}, []string{"true"})
		}
	}
	md := arrow.NewMetadata([]string{"name"}, []string{ds.Name})
	return arrow.NewSchema(fields, &md)
}

// ToRecord converts a dataset to an Arrow record. NaN values become nulls.
// The caller must Release the record.
func ToRecord(ds *inference.Dataset, mem memory.Allocator) (arrow.Record, error) {
	if len(ds.Columns) == 0 {
		return nil, fmt.Errorf("dataset %s has no columns", ds.Name)
	}
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	rows := ds.Rows()
	b := array.NewRecordBuilder(mem, Schema(ds))
	defer b.Release()
	for i, c := range ds.Columns {
		if c.Len() != rows {
			return nil, fmt.Errorf("column %s has %d values, want %d", c.Name, c.Len(), rows)
		}
		valid := make([]bool, rows)
		for r, v := range c.Values {
			valid[r] = !math.IsNaN(v)
		}
		b.Field(i).(*array.Float64Builder).AppendValues(c.Values, valid)
	}
	return b.NewRecord(), nil
}

// WriteParquet writes one dataset as a snappy-compressed Parquet file
func WriteParquet(w io.Writer, ds *inference.Dataset) error {
	rec, err := ToRecord(ds, memory.NewGoAllocator())
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write record to parquet: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteJSON writes a parse result as indented JSON, NaN as null
func WriteJSON(w io.Writer, result *inference.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newResultView(result)); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteYAML writes a parse result as YAML, NaN as null
func WriteYAML(w io.Writer, result *inference.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newResultView(result)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// WriteCSV writes a dataset as delimited text that parses back to the same values
func WriteCSV(w io.Writer, ds *inference.Dataset, d inference.Delimiter) error {
	if d == "" {
		d = inference.Comma
	}
	return inference.WriteText(w, ds, d)
}

// resultView is the serialized shape of a result
type resultView struct {
	ID         string        `json:"id" yaml:"id"`
	Source     string        `json:"source,omitempty" yaml:"source,omitempty"`
	Delimiter  string        `json:"delimiter" yaml:"delimiter"`
	MultiTrack bool          `json:"multi_track" yaml:"multi_track"`
	Datasets   []datasetView `json:"datasets" yaml:"datasets"`
}

type datasetView struct {
	Name    string       `json:"name" yaml:"name"`
	Rows    int          `json:"rows" yaml:"rows"`
	Columns []columnView `json:"columns" yaml:"columns"`
}

type columnView struct {
	Name      string     `json:"name" yaml:"name"`
	Synthetic bool       `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Values    []*float64 `json:"values" yaml:"values,flow"`
}

func newResultView(result *inference.Result) resultView {
	view := resultView{
		ID:         result.ID,
		Source:     result.Source,
		Delimiter:  result.Delimiter.Name(),
		MultiTrack: result.MultiTrack,
	}
	for _, ds := range result.Datasets {
		dv := datasetView{Name: ds.Name, Rows: ds.Rows()}
		for _, c := range ds.Columns {
			values := make([]*float64, len(c.Values))
			for i := range c.Values {
				if !math.IsNaN(c.Values[i]) {
					values[i] = &c.Values[i]
				}
			}
			dv.Columns = append(dv.Columns, columnView{Name: c.Name, Synthetic: c.Synthetic, Values: values})
		}
		view.Datasets = append(view.Datasets, dv)
	}
	return view
}

// uniqueNames suffixes repeated column names, Parquet needs distinct field names
func uniqueNames(cols []inference.Column) []string {
	seen := make(map[string]int, len(cols))
	names := make([]string, len(cols))
	for i, c := range cols {
		seen[c.Name]++
		if n := seen[c.Name]; n > 1 {
			names[i] = c.Name + "_" + strconv.Itoa(n)
			continue
		}
		names[i] = c.Name
	}
	return names
}
