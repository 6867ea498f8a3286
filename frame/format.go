package frame

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Text conversion between cells and their delimited-text representation.
//
// kind    → text written             → accepted on read
//
//	String  → verbatim                 → verbatim
//	Int     → base 10                  → base 10, surrounding blanks ignored
//	Float   → shortest round-trip      → any strconv float, "inf", "nan"
//	Bool    → True / False             → strconv.ParseBool
//	Time    → 2006-01-02 15:04:05      → the same layout only
//	Decimal → canonical decimal text   → decimal.NewFromString
//
// An empty field is a null cell for every kind. NaN floats are written empty.

// DateTimeLayout is the fixed layout of date/time cells.
const DateTimeLayout = "2006-01-02 15:04:05"

var (
	// ErrInvalidDateTime is returned when a date/time cell does not match DateTimeLayout.
	ErrInvalidDateTime = errors.New("invalid date/time")
	// ErrInvalidValue is returned when a cell cannot be parsed as its column's kind.
	ErrInvalidValue = errors.New("invalid value")
	// ErrSubSecond is returned when formatting a time that DateTimeLayout cannot represent.
	ErrSubSecond = errors.New("date/time has sub-second precision")
)

// Format returns the text representation of a cell.
func Format(v Value) (string, error) {
	if v.IsNull() {
		return "", nil
	}
	switch v.kind {
	case KindString:
		return v.s, nil
	case KindInt:
		return strconv.FormatInt(v.i, 10), nil
	case KindFloat:
		return formatFloat(v.f), nil
	case KindBool:
		if v.b {
			return "True", nil
		}
		return "False", nil
	case KindTime:
		if v.t.Nanosecond() != 0 {
			return "", fmt.Errorf("%w: %s", ErrSubSecond, v.t.Format(time.RFC3339Nano))
		}
		return v.t.Format(DateTimeLayout), nil
	case KindDecimal:
		return v.d.String(), nil
	default:
		return "", fmt.Errorf("unknown kind %s", v.kind)
	}
}

// formatFloat formats like Python's repr so that whole floats keep a
// fractional part and stay floats when the type is inferred on read.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return ""
	}
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, err := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return e
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Parse converts the text of one field to a cell of the given kind.
func Parse(raw string, k Kind) (Value, error) {
	if k == KindString {
		if raw == "" {
			return Null(), nil
		}
		return Str(raw), nil
	}
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null(), nil
	}
	switch k {
	case KindInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: %q is outside the int64 range [%d, %d]", ErrInvalidValue, s, int64(math.MinInt64), int64(math.MaxInt64))
		}
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, s)
		}
		return Int(i), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrInvalidValue, s)
		}
		return Float(f), nil
	case KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, s)
		}
		return Bool(b), nil
	case KindTime:
		// time.Parse accepts a fractional second the layout does not have.
		t, err := time.Parse(DateTimeLayout, s)
		if err != nil || len(s) != len(DateTimeLayout) || t.Format(DateTimeLayout) != s {
			return Value{}, fmt.Errorf("%w: %q does not match %q", ErrInvalidDateTime, s, DateTimeLayout)
		}
		return Time(t), nil
	case KindDecimal:
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a decimal", ErrInvalidValue, s)
		}
		return Decimal(d), nil
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %s", ErrInvalidValue, k)
	}
}

// ParseColumn parses the raw fields of one column according to its dtype.
func ParseColumn(name string, dtype DType, raws []string) (Column, error) {
	k := dtype.Kind()
	values := make([]Value, len(raws))
	for i, raw := range raws {
		v, err := Parse(raw, k)
		if err != nil {
			return Column{}, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		values[i] = v
	}
	return Column{Name: name, DType: dtype, Values: values}, nil
}

// Infer guesses the dtype of a column from its raw fields and parses them.
//
// Candidates are tried from the most to the least specific: int64, float64,
// bool, object. Integers beyond the int64 range are decimal rather than
// float64 so no digit is lost. A column with no value at all is float64, as
// a column of missing numbers.
func Infer(name string, raws []string) Column {
	candidates := []DType{DTypeInt64, DTypeFloat64}
	switch {
	case allBlank(raws):
		candidates = candidates[1:]
	case allIntegerLiterals(raws):
		candidates = []DType{DTypeInt64, DTypeDecimal}
	}
	for _, dtype := range candidates {
		if c, err := ParseColumn(name, dtype, raws); err == nil {
			return c
		}
	}
	if allBoolLiterals(raws) {
		if c, err := ParseColumn(name, DTypeBool, raws); err == nil {
			return c
		}
	}
	c, _ := ParseColumn(name, DTypeObject, raws)
	return c
}

func allBlank(raws []string) bool {
	for _, raw := range raws {
		if strings.TrimSpace(raw) != "" {
			return false
		}
	}
	return true
}

func allIntegerLiterals(raws []string) bool {
	for _, raw := range raws {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		s = strings.TrimLeft(s[:1], "+-") + s[1:]
		if s == "" {
			return false
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// allBoolLiterals only accepts spelled-out booleans; "0" and "1" are numbers.
func allBoolLiterals(raws []string) bool {
	for _, raw := range raws {
		switch strings.TrimSpace(raw) {
		case "", "True", "False", "true", "false", "TRUE", "FALSE":
		default:
			return false
		}
	}
	return true
}
