/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: tokenizer.go
Description: Tokenizer for delimited text. Splits lines into fields, strips quotes and
coerces tokens to float64, including the decimal-comma fallback used by European exports.
Unparsable tokens degrade to NaN and never produce an error.
*/

package inference

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Delimiter is a candidate field separator
type Delimiter string

const (
	Tab       Delimiter = "\t"
	Comma     Delimiter = ","
	Semicolon Delimiter = ";"
	// Space separates on runs of spaces and tabs
	Space Delimiter = " "
)

// DefaultDelimiters returns the trial order: tab, comma, semicolon, space
func DefaultDelimiters() []Delimiter {
	return []Delimiter{Tab, Comma, Semicolon, Space}
}

// Name returns the human readable delimiter name
func (d Delimiter) Name() string {
	switch d {
	case Tab:
		return "tab"
	case Comma:
		return "comma"
	case Semicolon:
		return "semicolon"
	case Space:
		return "space"
	}
	return strconv.Quote(string(d))
}

// ParseDelimiter accepts a delimiter name or the literal character
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "tab", "\t", `\t`:
		return Tab, nil
	case "comma", ",":
		return Comma, nil
	case "semicolon", ";":
		return Semicolon, nil
	case "space", " ":
		return Space, nil
	}
	return "", fmt.Errorf("unsupported delimiter: %q", s)
}

// fieldSeparators are the characters that must not appear inside a title or header field
const fieldSeparators = "\t,;"

// SplitFields splits a line into trimmed, unquoted fields
func SplitFields(line string, d Delimiter) []string {
	var parts []string
	if d == Space {
		parts = strings.FieldsFunc(line, func(r rune) bool { return r == ' ' || r == '\t' })
		if len(parts) == 0 {
			parts = []string{""}
		}
	} else {
		parts = strings.Split(line, string(d))
	}
	for i, p := range parts {
		parts[i] = unquote(strings.TrimSpace(p))
	}
	return parts
}

// unquote strips one pair of double quotes wrapping the whole token
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2 {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseNumber parses a token as float64. When the plain parse fails and the
// delimiter is not a comma, commas are retried as decimal points. Values out
// of float64 range become ±Inf; the only non-digit spellings accepted are
// NaN and Infinity with an optional sign.
func ParseNumber(tok string, d Delimiter) (float64, bool) {
	if tok == "" || strings.Contains(tok, "\t") {
		return math.NaN(), false
	}
	tok = strings.TrimSpace(tok)
	if v, ok := parseFloat(tok); ok {
		return v, true
	}
	if d != Comma && strings.Contains(tok, ",") {
		if v, ok := parseFloat(strings.ReplaceAll(tok, ",", ".")); ok {
			return v, true
		}
	}
	return math.NaN(), false
}

func parseFloat(tok string) (float64, bool) {
	if !strings.ContainsAny(tok, "0123456789") {
		switch tok {
		case "NaN", "+NaN", "-NaN":
			return math.NaN(), true
		case "Infinity", "+Infinity":
			return math.Inf(1), true
		case "-Infinity":
			return math.Inf(-1), true
		}
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN(), false
	}
	return v, true
}

// CoerceNumeric converts tokens to floats, mapping failures to NaN
func CoerceNumeric(tokens []string, d Delimiter) []float64 {
	values := make([]float64, len(tokens))
	for i, tok := range tokens {
		values[i], _ = ParseNumber(tok, d)
	}
	return values
}

// isNumeric reports whether tok parses as a number under d
func isNumeric(tok string, d Delimiter) bool {
	_, ok := ParseNumber(tok, d)
	return ok
}

func containsSeparator(s string) bool {
	return strings.ContainsAny(s, fieldSeparators)
}
