// Package frame implements the Data Table: named, typed columns sharing a
// designated index column.
//
// Column order is significant. Type information lives in each column's DType
// string; cells are tagged Values whose Kind matches DType.Kind().
package frame

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
)

// DefaultIndexName is the label of an unnamed index column.
const DefaultIndexName = "index"

var (
	errDuplicateColumn = errors.New("duplicate column name")
	errLengthMismatch  = errors.New("column length does not match index length")
	errKindMismatch    = errors.New("cell kind does not match column dtype")
)

// Column is a named sequence of cells with a dtype.
type Column struct {
	Name   string
	DType  DType
	Values []Value
}

// NewColumn returns a column of the default dtype of kind k.
func NewColumn(name string, k Kind, values ...Value) Column {
	return Column{Name: name, DType: k.DType(), Values: values}
}

// ColumnOf builds a column from Go values, deriving the kind from T.
func ColumnOf[T any](name string, xs ...T) (Column, error) {
	c := Column{Name: name, DType: KindOf(reflect.TypeFor[T]()).DType(), Values: make([]Value, len(xs))}
	for i, x := range xs {
		v, err := ValueOf(x)
		if err != nil {
			return Column{}, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		c.Values[i] = v
	}
	return c, nil
}

// Len returns the number of cells.
func (c *Column) Len() int {
	return len(c.Values)
}

// Validate checks that every non-null cell has the kind of the column's dtype.
func (c *Column) Validate() error {
	k := c.DType.Kind()
	for i, v := range c.Values {
		if !v.IsNull() && v.Kind() != k {
			return fmt.Errorf("column %q row %d: %w: %s in %s column", c.Name, i, errKindMismatch, v.Kind(), c.DType)
		}
	}
	return nil
}

// Clone returns a copy that shares nothing with c.
func (c *Column) Clone() Column {
	return Column{Name: c.Name, DType: c.DType, Values: slices.Clone(c.Values)}
}

// Equal reports whether both columns have the same name, dtype and cells.
func (c *Column) Equal(o *Column) bool {
	return c.Name == o.Name && c.DType == o.DType && slices.EqualFunc(c.Values, o.Values, Value.Equal)
}

// Frame is a Data Table: an index column followed by data columns.
type Frame struct {
	Index   Column
	Columns []Column
}

// New returns a validated Frame.
func New(index Column, columns ...Column) (*Frame, error) {
	f := &Frame{Index: index, Columns: columns}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks column lengths, name uniqueness and cell kinds.
func (f *Frame) Validate() error {
	seen := make(map[string]bool, len(f.Columns)+1)
	for _, label := range f.Labels() {
		if seen[label] {
			return fmt.Errorf("%w: %q", errDuplicateColumn, label)
		}
		seen[label] = true
	}
	if err := f.Index.Validate(); err != nil {
		return err
	}
	n := f.Index.Len()
	for i := range f.Columns {
		c := &f.Columns[i]
		if c.Len() != n {
			return fmt.Errorf("column %q: %w: %d != %d", c.Name, errLengthMismatch, c.Len(), n)
		}
		if err := c.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return f.Index.Len()
}

// IndexLabel returns the index name, or DefaultIndexName when it is unset.
func (f *Frame) IndexLabel() string {
	if f.Index.Name == "" {
		return DefaultIndexName
	}
	return f.Index.Name
}

// Labels returns the index label followed by the column names.
func (f *Frame) Labels() []string {
	out := make([]string, 0, len(f.Columns)+1)
	out = append(out, f.IndexLabel())
	for i := range f.Columns {
		out = append(out, f.Columns[i].Name)
	}
	return out
}

// DTypes returns the dtype of the index followed by those of the columns.
func (f *Frame) DTypes() []DType {
	out := make([]DType, 0, len(f.Columns)+1)
	out = append(out, f.Index.DType)
	for i := range f.Columns {
		out = append(out, f.Columns[i].DType)
	}
	return out
}

// Column returns the column with the given name, including the index.
func (f *Frame) Column(name string) (*Column, bool) {
	if name == f.IndexLabel() {
		return &f.Index, true
	}
	for i := range f.Columns {
		if f.Columns[i].Name == name {
			return &f.Columns[i], true
		}
	}
	return nil, false
}

// Row returns the cells of row i, index first.
func (f *Frame) Row(i int) []Value {
	out := make([]Value, 0, len(f.Columns)+1)
	out = append(out, f.Index.Values[i])
	for j := range f.Columns {
		out = append(out, f.Columns[j].Values[i])
	}
	return out
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	out := &Frame{Index: f.Index.Clone(), Columns: make([]Column, len(f.Columns))}
	for i := range f.Columns {
		out.Columns[i] = f.Columns[i].Clone()
	}
	return out
}

// Equal reports whether both frames hold the same columns in the same order.
func (f *Frame) Equal(o *Frame) bool {
	if f == nil || o == nil {
		return f == o
	}
	if !f.Index.Equal(&o.Index) || len(f.Columns) != len(o.Columns) {
		return false
	}
	for i := range f.Columns {
		if !f.Columns[i].Equal(&o.Columns[i]) {
			return false
		}
	}
	return true
}
