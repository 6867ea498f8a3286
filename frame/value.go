package frame

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Value is one cell of a Data Table.
//
// It is a tagged variant: exactly one of the payload fields is meaningful,
// selected by Kind. The zero Value is null.
type Value struct {
	kind  Kind
	valid bool
	s     string
	i     int64
	f     float64
	b     bool
	t     time.Time
	d     decimal.Decimal
}

// Null returns the null cell.
func Null() Value {
	return Value{}
}

// Str returns a string cell.
func Str(s string) Value {
	return Value{kind: KindString, valid: true, s: s}
}

// Int returns an integer cell.
func Int(i int64) Value {
	return Value{kind: KindInt, valid: true, i: i}
}

// Float returns a floating point cell. NaN is null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: KindFloat, valid: true, f: f}
}

// Bool returns a boolean cell.
func Bool(b bool) Value {
	return Value{kind: KindBool, valid: true, b: b}
}

// Time returns a date/time cell.
//
// Cells carry no time zone: the wall clock of t is kept and its location
// dropped, so 13:45 CET is stored as 13:45 UTC.
func Time(t time.Time) Value {
	y, mo, d := t.Date()
	h, mi, sec := t.Clock()
	return Value{kind: KindTime, valid: true, t: time.Date(y, mo, d, h, mi, sec, t.Nanosecond(), time.UTC)}
}

// Decimal returns an exact decimal cell.
func Decimal(d decimal.Decimal) Value {
	return Value{kind: KindDecimal, valid: true, d: d}
}

// ValueOf converts a Go value to a cell. nil is null.
func ValueOf(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case string:
		return Str(v), nil
	case bool:
		return Bool(v), nil
	case int:
		return Int(int64(v)), nil
	case int8:
		return Int(int64(v)), nil
	case int16:
		return Int(int64(v)), nil
	case int32:
		return Int(int64(v)), nil
	case int64:
		return Int(v), nil
	case uint:
		return ValueOf(uint64(v))
	case uint8:
		return Int(int64(v)), nil
	case uint16:
		return Int(int64(v)), nil
	case uint32:
		return Int(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("%d overflows int64", v)
		}
		return Int(int64(v)), nil
	case float32:
		return Float(float64(v)), nil
	case float64:
		return Float(v), nil
	case time.Time:
		return Time(v), nil
	case decimal.Decimal:
		return Decimal(v), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell type %T", x)
	}
}

// IsNull reports whether the cell is null.
func (v Value) IsNull() bool {
	return !v.valid
}

// Kind returns the kind of the payload. It is meaningless for null cells.
func (v Value) Kind() Kind {
	return v.kind
}

// AsString returns the string payload.
func (v Value) AsString() string {
	return v.s
}

// AsInt returns the integer payload.
func (v Value) AsInt() int64 {
	return v.i
}

// AsFloat returns the floating point payload, NaN for null cells.
func (v Value) AsFloat() float64 {
	if !v.valid {
		return math.NaN()
	}
	return v.f
}

// AsBool returns the boolean payload.
func (v Value) AsBool() bool {
	return v.b
}

// AsTime returns the date/time payload.
func (v Value) AsTime() time.Time {
	return v.t
}

// AsDecimal returns the decimal payload.
func (v Value) AsDecimal() decimal.Decimal {
	return v.d
}

// Any returns the payload as a plain Go value, nil for null cells.
func (v Value) Any() any {
	if !v.valid {
		return nil
	}
	switch v.kind {
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindBool:
		return v.b
	case KindTime:
		return v.t
	case KindDecimal:
		return v.d
	default:
		return nil
	}
}

// Equal reports whether both cells hold the same kind and payload.
//
// Times compare as instants and decimals by numeric value.
func (v Value) Equal(o Value) bool {
	if v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	case KindDecimal:
		return v.d.Equal(o.d)
	default:
		return false
	}
}

// String implements fmt.Stringer for debugging.
func (v Value) String() string {
	if !v.valid {
		return "<null>"
	}
	s, err := Format(v)
	if err != nil {
		return fmt.Sprintf("<%v>", err)
	}
	return s
}
