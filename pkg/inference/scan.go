/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: scan.go
Description: Per-delimiter line scan. Holds the explicit scan state of one delimiter trial
and classifies each line as comment, directive, title, header or data, preserving the
fall-through from directives into header and title inference on the same line.
*/

package inference

import (
	"bufio"
	"bytes"
	"fmt"
	"math"
	"strings"
)

const (
	nameMarker        = "name:"
	columnNamesMarker = "columnNames:"
	multiMarker       = "multi:"

	maxLineLength = 4 * 1024 * 1024
)

// knownBadLines are vendor export artifacts that never carry data
var knownBadLines = []string{"Vernier Format", ".cmbl"}

// step tells dispatch where a directive line continues
type step int

const (
	stepSkip step = iota
	stepHeader
	stepContinue
)

// candidate is a non-numeric field seen while looking for a title
type candidate struct {
	index int
	name  string
}

// scanState is the mutable state of a single delimiter trial
type scanState struct {
	delim Delimiter

	title    string
	header   []string
	expected int // width implied by a header line that embedded another separator

	rows  [][]float64
	width int
	// blank lines after the title but before the first row; they become NaN
	// rows unless a header line follows
	leadingBlanks int

	multi      bool
	candidates []candidate
	tracks     []candidate
	stride     int

	attempts int
}

func newScanState(d Delimiter) *scanState {
	return &scanState{delim: d}
}

// scan runs one delimiter trial over the whole text
func scan(text string, d Delimiter, maxAttempts int) (*scanState, error) {
	s := newScanState(d)
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	sc.Split(scanLines)
	for sc.Scan() {
		s.dispatch(sc.Text())
		if len(s.rows) == 0 && s.attempts >= maxAttempts {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return s, nil
}

// scanLines splits on \n, \r\n or a lone \r
func scanLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if !atEOF {
			return 0, nil, nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// dispatch classifies one physical line
func (s *scanState) dispatch(line string) {
	if strings.HasPrefix(line, "//") {
		return
	}
	if strings.HasPrefix(line, "#") {
		rest, next := s.directive(line)
		switch next {
		case stepSkip:
			return
		case stepHeader:
			s.headerOrData(rest)
			return
		}
		line = rest
	}
	for _, bad := range knownBadLines {
		if strings.Contains(line, bad) {
			return
		}
	}
	if len(s.rows) == 0 && s.title == "" && s.inferTitle(line) {
		return
	}
	s.headerOrData(line)
}

// directive handles a line starting with '#'
func (s *scanState) directive(line string) (string, step) {
	if k := strings.Index(line, nameMarker); k >= 0 && s.title == "" {
		s.title = cutAtMarker(line[k+len(nameMarker):])
	}
	if k := strings.Index(line, columnNamesMarker); k >= 0 {
		return strings.TrimSpace(line[k+len(columnNamesMarker):]), stepHeader
	}
	if k := strings.Index(line, multiMarker); k >= 0 {
		s.multi = true
		rest := strings.TrimSpace(line[k+len(multiMarker):])
		if rest == "" {
			return "", stepSkip
		}
		return rest, stepContinue
	}
	return "", stepSkip
}

// cutAtMarker trims a directive value, stopping at any following marker
func cutAtMarker(s string) string {
	for _, m := range []string{columnNamesMarker, multiMarker} {
		if k := strings.Index(s, m); k >= 0 {
			s = s[:k]
		}
	}
	return strings.TrimSpace(s)
}

// inferTitle consumes the line when it names the dataset (or the tracks of a multi file)
func (s *scanState) inferTitle(line string) bool {
	fields := SplitFields(line, s.delim)
	var cands []candidate
	for i, f := range fields {
		if f == "" || isNumeric(f, s.delim) {
			continue
		}
		if containsSeparator(f) {
			return false
		}
		cands = append(cands, candidate{index: i, name: f})
	}
	switch {
	case len(cands) == 1:
		s.title = cands[0].name
		return true
	case len(cands) > 1 && s.multi:
		stride, tracks := trackLayout(cands)
		if stride == 0 {
			return false
		}
		s.candidates = cands
		s.stride = stride
		s.tracks = tracks
		s.title = fmt.Sprintf("%s+%d", cands[0].name, len(tracks)-1)
		return true
	}
	return false
}

// trackLayout finds the column period between tracks. The stride is the
// distance to the first later candidate sharing the first candidate's stem,
// or the gap to the second candidate when the names are spread out.
func trackLayout(cands []candidate) (int, []candidate) {
	first := cands[0]
	stride := 0
	for _, c := range cands[1:] {
		if stem(c.name) == stem(first.name) {
			stride = c.index - first.index
			break
		}
	}
	if stride == 0 {
		if gap := cands[1].index - first.index; gap > 1 {
			stride = gap
		}
	}
	if stride <= 0 {
		return 0, nil
	}
	var tracks []candidate
	for _, c := range cands {
		if (c.index-first.index)%stride == 0 {
			tracks = append(tracks, c)
		}
	}
	return stride, tracks
}

// stem drops a trailing run number, so "Run 2" and "t2" compare as "Run" and "t"
func stem(name string) string {
	if st := strings.TrimRight(name, "0123456789 _-.#"); st != "" {
		return st
	}
	return name
}

func (s *scanState) headerOrData(line string) {
	fields := SplitFields(line, s.delim)
	if len(s.rows) == 0 && s.header == nil && s.inferHeader(fields) {
		return
	}
	s.addRow(fields)
}

// inferHeader accepts a line of names as the column header
func (s *scanState) inferHeader(fields []string) bool {
	named := false
	for _, f := range fields {
		if f == "" {
			continue
		}
		if isNumeric(f, s.delim) {
			return false
		}
		named = true
	}
	if !named {
		return false
	}
	for _, f := range fields {
		if containsSeparator(f) {
			if w := impliedWidth(fields); w > s.expected {
				s.expected = w
			}
			return false
		}
	}
	header := make([]string, len(fields))
	for i, f := range fields {
		if f == "" {
			f = UnnamedColumn
		}
		header[i] = f
	}
	s.header = header
	s.leadingBlanks = 0
	return true
}

// impliedWidth counts the fields a line would have if its embedded separators split it
func impliedWidth(fields []string) int {
	w := 0
	for _, f := range fields {
		n := 0
		for _, sep := range fieldSeparators {
			if c := strings.Count(f, string(sep)); c > n {
				n = c
			}
		}
		w += n + 1
	}
	return w
}

// addRow validates and stores a data line
func (s *scanState) addRow(fields []string) {
	values := make([]float64, len(fields))
	blank := true
	numeric := 0
	comma := false
	valid := true
	for i, f := range fields {
		v, ok := ParseNumber(f, s.delim)
		values[i] = v
		if f == "" {
			continue
		}
		blank = false
		if !ok {
			valid = false
			break
		}
		numeric++
		if strings.Contains(f, ",") {
			comma = true
		}
	}
	if blank && len(s.rows) == 0 && s.header == nil {
		if s.title != "" {
			s.leadingBlanks++
		} else {
			s.attempts++
		}
		return
	}
	s.attempts++
	if !valid {
		return
	}
	if numeric == 1 && comma && s.expectedColumns() > 1 {
		return
	}
	for ; s.leadingBlanks > 0; s.leadingBlanks-- {
		s.appendRow([]float64{math.NaN()})
	}
	s.appendRow(values)
}

func (s *scanState) appendRow(values []float64) {
	s.rows = append(s.rows, values)
	if len(values) > s.width {
		s.width = len(values)
	}
}

func (s *scanState) expectedColumns() int {
	if len(s.header) > s.expected {
		return len(s.header)
	}
	return s.expected
}

// candidateAt returns the multi-track name recorded for a field index
func (s *scanState) candidateAt(index int) (string, bool) {
	for _, c := range s.candidates {
		if c.index == index {
			return c.name, true
		}
	}
	return "", false
}
