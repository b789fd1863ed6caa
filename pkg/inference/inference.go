/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: inference.go
Description: Main entry point for tabular structure inference. Provides the Engine
interface, the parse options, and the result types produced when raw text of unknown
delimiter and header layout is turned into named numeric columns.
*/

package inference

import (
	"errors"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

var (
	// ErrNotDelimitedText is returned when the input is a filesystem path or XML markup.
	ErrNotDelimitedText = errors.New("input is not delimited text")
	// ErrNoValidData is returned when no delimiter trial produced a usable column.
	ErrNoValidData = errors.New("no valid tabular data found")
	// ErrUnsafeMergeKey is returned when a merge key column has duplicates or NaN values.
	ErrUnsafeMergeKey = errors.New("merge key contains duplicates or NaN")
	// ErrUnknownColumn is returned when a named column does not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNotWritable is returned by WriteText for names that would not parse back.
	ErrNotWritable = errors.New("dataset cannot be written as delimited text")
)

const (
	// DefaultMaxAttemptsWithoutData is the number of data lines a trial may reject
	// before it gives up on its delimiter.
	DefaultMaxAttemptsWithoutData = 10

	// RowIndexName names the synthetic row-index column.
	RowIndexName = "row"

	// PlaceholderName is used when neither a title nor a source id is known.
	PlaceholderName = "data"

	// UnnamedColumn is the name given to columns without a header.
	UnnamedColumn = "?"
)

// RawText is unparsed input plus an optional source identifier
type RawText struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"` // file name, URL, ... used only as a fallback title
}

// Column is a named numeric series
type Column struct {
	Name      string    `json:"name" yaml:"name"`
	Values    []float64 `json:"values" yaml:"values"`
	Synthetic bool      `json:"synthetic,omitempty" yaml:"synthetic,omitempty"` // row-index axis, not plotted
}

// Len returns the number of values in the column
func (c Column) Len() int { return len(c.Values) }

// Dataset is a named group of equal-length columns. Columns[0] is always the
// synthetic row index.
type Dataset struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Rows returns the row count shared by all columns
func (d *Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return d.Columns[0].Len()
}

// DataColumns returns every column except the row index
func (d *Dataset) DataColumns() []Column {
	if len(d.Columns) <= 1 {
		return nil
	}
	return d.Columns[1:]
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the names of the data columns in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.DataColumns() {
		names = append(names, c.Name)
	}
	return names
}

// Result is the ordered, non-empty output of a successful parse
type Result struct {
	ID         string     `json:"id" yaml:"id"`
	Source     string     `json:"source,omitempty" yaml:"source,omitempty"`
	Delimiter  Delimiter  `json:"delimiter" yaml:"delimiter"`
	MultiTrack bool       `json:"multi_track" yaml:"multi_track"`
	Datasets   []*Dataset `json:"datasets" yaml:"datasets"`
}

// Options controls a parse. Every policy that used to be process-wide lives here.
type Options struct {
	// PreferSingleTabForMultiTrack collapses multi-track input into one dataset.
	PreferSingleTabForMultiTrack bool
	// Delimiters are tried in order; nil means DefaultDelimiters.
	Delimiters []Delimiter
	// MaxAttemptsWithoutData bounds a trial that never accepts a row.
	MaxAttemptsWithoutData int
	// Fs is consulted to reject input that names an existing file.
	Fs afero.Fs
	// Logger receives per-trial debug output.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the options used by the interactive tool
func DefaultOptions() Options {
	return Options{
		Delimiters:             DefaultDelimiters(),
		MaxAttemptsWithoutData: DefaultMaxAttemptsWithoutData,
		Fs:                     afero.NewOsFs(),
		Logger:                 discardLogger(),
	}
}

func (o Options) withDefaults() Options {
	if len(o.Delimiters) == 0 {
		o.Delimiters = DefaultDelimiters()
	}
	if o.MaxAttemptsWithoutData <= 0 {
		o.MaxAttemptsWithoutData = DefaultMaxAttemptsWithoutData
	}
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Logger == nil {
		o.Logger = discardLogger()
	}
	return o
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Engine defines the interface for structure inference engines
type Engine interface {
	Infer(raw RawText) (*Result, error)
	Format() string
}

// NewEngine returns an inference engine for the given format, or nil
func NewEngine(format string, opts Options) Engine {
	switch format {
	case "delimited", "text", "auto":
		return NewDelimitedEngine(opts)
	default:
		return nil
	}
}

// DelimitedEngine infers columns from delimited text
type DelimitedEngine struct {
	opts Options
}

// NewDelimitedEngine creates a new delimited-text engine
func NewDelimitedEngine(opts Options) *DelimitedEngine {
	return &DelimitedEngine{opts: opts.withDefaults()}
}

// Infer parses raw text into datasets
func (e *DelimitedEngine) Infer(raw RawText) (*Result, error) {
	return Parse(raw, e.opts)
}

// Format returns the format handled by this engine
func (e *DelimitedEngine) Format() string {
	return "delimited"
}

func allNaN(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) {
			return false
		}
	}
	return true
}
