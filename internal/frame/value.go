package frame

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds
type Kind uint8

const (
	Missing Kind = iota
	Number
	Text
)

// Value is a single table cell. The zero value is Missing.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Num returns a numeric value. NaN is stored as Missing.
func Num(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{kind: Number, num: f}
}

// Str returns a text value
func Str(s string) Value {
	return Value{kind: Text, text: s}
}

// NA returns a missing value
func NA() Value {
	return Value{}
}

// Kind reports what the value holds
func (v Value) Kind() Kind {
	return v.kind
}

// IsMissing reports whether the value is missing
func (v Value) IsMissing() bool {
	return v.kind == Missing
}

// Float returns the numeric payload and whether the value is a number
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == Number
}

// Text returns the text payload and whether the value is text
func (v Value) Text() (string, bool) {
	return v.text, v.kind == Text
}

// String renders the value for tabular output. Numbers use the shortest
// representation that round-trips, missing values render as "".
func (v Value) String() string {
	switch v.kind {
	case Number:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case Text:
		return v.text
	default:
		return ""
	}
}

// Coerce converts v to a number. Text is trimmed and a leading '+' is
// dropped before parsing; anything that still fails to parse is Missing.
func Coerce(v Value) Value {
	switch v.kind {
	case Number:
		return v
	case Text:
		return Parse(v.text)
	default:
		return v
	}
}

// Parse coerces raw cell text to a number, or Missing when it is not one
func Parse(s string) Value {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return NA()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NA()
	}
	return Num(f)
}

// Equal reports whether two values hold the same kind and payload
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Number:
		return v.num == o.num
	case Text:
		return v.text == o.text
	default:
		return true
	}
}
