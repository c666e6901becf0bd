package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Number is a nullable numeric cell as it travels over the wire.
// Accepts a JSON number, a numeric string (NUMERIC columns often arrive
// quoted) or null.
type Number struct {
	Float float64
	Valid bool
}

// NewNumber returns a present Number.
func NewNumber(f float64) Number {
	return Number{Float: f, Valid: true}
}

// Value converts the number into a sortable cell value.
func (n Number) Value() Value {
	if !n.Valid {
		return Null()
	}
	return Num(n.Float)
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid || math.IsNaN(n.Float) || math.IsInf(n.Float, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Float, 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("report: number: %w", err)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*n = Number{}
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("report: number %q: %w", s, err)
		}
		*n = NewNumber(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("report: number: %w", err)
	}
	*n = NewNumber(f)
	return nil
}

// Text is a nullable string cell.
type Text struct {
	String string
	Valid  bool
}

// NewText returns a present Text.
func NewText(s string) Text {
	return Text{String: s, Valid: true}
}

// Value converts the text into a sortable cell value.
func (t Text) Value() Value {
	if !t.Valid {
		return Null()
	}
	return Str(t.String)
}

// MarshalJSON implements json.Marshaler.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String)
}

// UnmarshalJSON implements json.Unmarshaler. Non-string scalars are kept
// in their JSON text form (an EAN stored as a number stays readable).
func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = Text{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("report: text: %w", err)
		}
		*t = NewText(s)
		return nil
	}
	*t = NewText(string(data))
	return nil
}

type valueKind uint8

const (
	valueNull valueKind = iota
	valueNumber
	valueText
)

// Value is one cell: null, number or text.
type Value struct {
	kind valueKind
	num  float64
	str  string
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Num wraps a number.
func Num(f float64) Value { return Value{kind: valueNumber, num: f} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: valueText, str: s} }

// IsNull reports whether the cell is absent.
func (v Value) IsNull() bool { return v.kind == valueNull }

// Float coerces the cell to a number. Text is parsed; NaN and unparsable
// text report false.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case valueNumber:
		if math.IsNaN(v.num) {
			return 0, false
		}
		return v.num, true
	case valueText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Time parses the cell as a timestamp. Values without a zone are UTC.
func (v Value) Time() (time.Time, bool) {
	if v.kind != valueText {
		return time.Time{}, false
	}
	s := strings.TrimSpace(v.str)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// String renders the raw cell. Numbers use the shortest representation,
// the way a browser prints them.
func (v Value) String() string {
	switch v.kind {
	case valueNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case valueText:
		return v.str
	}
	return ""
}
