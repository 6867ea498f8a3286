// Handles column types: the closed Kind enum and the dtype strings stored in files.

package frame

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the in-memory representation held by a column's cells.
type Kind int

const (
	// KindString holds free text. It is the fallback for unknown dtypes.
	KindString Kind = iota
	// KindInt holds 64 bits signed integers.
	KindInt
	// KindFloat holds 64 bits floating point numbers.
	KindFloat
	// KindBool holds booleans.
	KindBool
	// KindTime holds date/time values with one second resolution.
	KindTime
	// KindDecimal holds exact fixed point numbers.
	KindDecimal
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindInt:
		return "Int"
	case KindFloat:
		return "Float"
	case KindBool:
		return "Bool"
	case KindTime:
		return "Time"
	case KindDecimal:
		return "Decimal"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// DType returns the default dtype string for the kind.
func (k Kind) DType() DType {
	switch k {
	case KindInt:
		return DTypeInt64
	case KindFloat:
		return DTypeFloat64
	case KindBool:
		return DTypeBool
	case KindTime:
		return DTypeDateTime
	case KindDecimal:
		return DTypeDecimal
	case KindString:
		return DTypeObject
	default:
		return DTypeObject
	}
}

// DType is the textual type tag of a column, as recorded in the schema table.
//
// The names follow the conventions of the tools that produce these files
// (e.g. "float64", "datetime64[ns]"), so a file written elsewhere keeps its
// type tags verbatim through a read/write cycle.
type DType string

const (
	DTypeObject   DType = "object"
	DTypeInt64    DType = "int64"
	DTypeFloat64  DType = "float64"
	DTypeBool     DType = "bool"
	DTypeDateTime DType = "datetime64[ns]"
	DTypeDecimal  DType = "decimal"
)

// DateTimePrefix is the reserved dtype prefix of date/time columns.
const DateTimePrefix = "datetime"

var intDTypes = map[string]bool{
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"Int8": true, "Int16": true, "Int32": true, "Int64": true,
	"UInt8": true, "UInt16": true, "UInt32": true, "UInt64": true,
}

var floatDTypes = map[string]bool{
	"float": true, "float16": true, "float32": true, "float64": true,
	"Float32": true, "Float64": true,
}

// IsDateTime reports whether the dtype starts with the reserved date/time prefix.
func (d DType) IsDateTime() bool {
	return strings.HasPrefix(string(d), DateTimePrefix)
}

// Kind maps the dtype onto the representation used in memory.
//
// Unknown dtypes map to KindString so their values pass through untouched.
func (d DType) Kind() Kind {
	s := string(d)
	switch {
	case d.IsDateTime():
		return KindTime
	case s == "bool" || s == "boolean":
		return KindBool
	case intDTypes[s]:
		return KindInt
	case floatDTypes[s]:
		return KindFloat
	case s == string(DTypeDecimal):
		return KindDecimal
	default:
		return KindString
	}
}

// KindOf maps a Go type to the column kind that can hold it.
func KindOf(t reflect.Type) Kind {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == reflect.TypeFor[time.Time]() {
		return KindTime
	}
	if t == reflect.TypeFor[decimal.Decimal]() {
		return KindDecimal
	}
	switch t.Kind() { //nolint:exhaustive // Other kinds default to text
	case reflect.Bool:
		return KindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	default:
		return KindString
	}
}
