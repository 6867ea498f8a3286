// Package schema implements the Schema Table and the consistency rules that
// tie it to a Data Table.
//
// A Schema Table has one row per data column, the index column first. Rows
// are keyed by a label and carry free-form descriptor fields. The "dtype"
// field is the only one with a meaning: it names the type of the column and
// drives how data is parsed on read.
package schema

import (
	"errors"
	"fmt"
	"slices"

	"github.com/maruel/dataplusmeta/frame"
)

const (
	// DTypeField is the descriptor field holding each column's dtype.
	DTypeField = "dtype"
	// DefaultName is the header of the label column when none is set.
	DefaultName = "column"
)

var (
	errEmptyLabel     = errors.New("empty label")
	errDuplicateLabel = errors.New("duplicate label")
	errDuplicateField = errors.New("duplicate field")
	errRowWidth       = errors.New("row width does not match field count")
)

// Row describes one data column.
type Row struct {
	Label  string
	Values []string
}

// Table is a Schema Table.
//
// Values are kept as the raw text read from the file; only the DTypeField
// column is interpreted.
type Table struct {
	// Name is the header of the label column.
	Name string
	// Fields are the descriptor field names, in order.
	Fields []string
	// Rows are aligned with the Data Table labels, index first.
	Rows []Row
}

// FromFrame derives a Schema Table with a single dtype field from f.
func FromFrame(f *frame.Frame) *Table {
	if f == nil {
		return nil
	}
	labels := f.Labels()
	dtypes := f.DTypes()
	t := &Table{Name: DefaultName, Fields: []string{DTypeField}, Rows: make([]Row, len(labels))}
	for i, l := range labels {
		t.Rows[i] = Row{Label: l, Values: []string{string(dtypes[i])}}
	}
	return t
}

// Validate checks that labels are unique and non-empty and that every row
// has one value per field.
func (t *Table) Validate() error {
	fields := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if fields[f] {
			return fmt.Errorf("%w: %q", errDuplicateField, f)
		}
		fields[f] = true
	}
	labels := make(map[string]bool, len(t.Rows))
	for i, r := range t.Rows {
		if r.Label == "" {
			return fmt.Errorf("row %d: %w", i, errEmptyLabel)
		}
		if labels[r.Label] {
			return fmt.Errorf("%w: %q", errDuplicateLabel, r.Label)
		}
		labels[r.Label] = true
		if len(r.Values) != len(t.Fields) {
			return fmt.Errorf("row %q: %w: %d != %d", r.Label, errRowWidth, len(r.Values), len(t.Fields))
		}
	}
	return nil
}

// Labels returns the row labels in order.
func (t *Table) Labels() []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Label
	}
	return out
}

// FieldIndex returns the position of a descriptor field, or -1.
func (t *Table) FieldIndex(name string) int {
	return slices.Index(t.Fields, name)
}

// HasDTypes reports whether the table carries a dtype field.
func (t *Table) HasDTypes() bool {
	return t.FieldIndex(DTypeField) >= 0
}

// Get returns the value of field for the row with the given label.
func (t *Table) Get(label, field string) (string, bool) {
	j := t.FieldIndex(field)
	if j < 0 {
		return "", false
	}
	for _, r := range t.Rows {
		if r.Label == label {
			if j >= len(r.Values) {
				return "", false
			}
			return r.Values[j], true
		}
	}
	return "", false
}

// DType returns the dtype recorded for label. It reports false when the
// table has no dtype field, no such row, or an empty dtype.
func (t *Table) DType(label string) (frame.DType, bool) {
	v, ok := t.Get(label, DTypeField)
	if !ok || v == "" {
		return "", false
	}
	return frame.DType(v), true
}

// DTypes returns the dtype of every row, in order. Missing values are empty.
func (t *Table) DTypes() []frame.DType {
	j := t.FieldIndex(DTypeField)
	out := make([]frame.DType, len(t.Rows))
	if j < 0 {
		return out
	}
	for i, r := range t.Rows {
		if j < len(r.Values) {
			out[i] = frame.DType(r.Values[j])
		}
	}
	return out
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{Name: t.Name, Fields: slices.Clone(t.Fields), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		out.Rows[i] = Row{Label: r.Label, Values: slices.Clone(r.Values)}
	}
	return out
}

// Equal reports whether both tables hold the same name, fields and rows.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Name == o.Name && slices.Equal(t.Fields, o.Fields) &&
		slices.EqualFunc(t.Rows, o.Rows, func(a, b Row) bool {
			return a.Label == b.Label && slices.Equal(a.Values, b.Values)
		})
}
