// Handles consistency between a Schema Table and a Data Table.

package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/maruel/dataplusmeta/frame"
)

// Mode selects how an inconsistency is reported.
type Mode int

const (
	// Advisory logs a warning and reports false.
	Advisory Mode = iota
	// Strict returns a *ConsistencyError.
	Strict
)

func (m Mode) String() string {
	switch m {
	case Advisory:
		return "advisory"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Reasons for an inconsistency, in the order they are checked.
var (
	ErrMissing       = errors.New("either schema or data is missing")
	ErrLabelMismatch = errors.New("labels in schema do not match labels in data")
	ErrNoDTypes      = errors.New("no dtypes in schema")
	ErrDTypeMismatch = errors.New("dtypes in schema do not match dtypes in data")
)

// ConsistencyError reports why a schema does not describe its data.
type ConsistencyError struct {
	// Err is one of ErrMissing, ErrLabelMismatch, ErrNoDTypes or ErrDTypeMismatch.
	Err error
	// Label is the first offending row, when there is one.
	Label string
}

func (e *ConsistencyError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s (column %q)", e.Err, e.Label)
	}
	return e.Err.Error()
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Check reports whether s describes f: same labels in the same order, and a
// dtype field whose values equal the data column dtypes. Both absent is
// consistent. Neither argument is modified.
func Check(s *Table, f *frame.Frame, mode Mode) (bool, error) {
	err := inconsistency(s, f)
	if err == nil {
		return true, nil
	}
	if mode == Strict {
		return false, err
	}
	slog.Warn("Schema and data are inconsistent", "reason", err.Error())
	return false, nil
}

func inconsistency(s *Table, f *frame.Frame) *ConsistencyError {
	if s == nil && f == nil {
		return nil
	}
	if s == nil || f == nil {
		return &ConsistencyError{Err: ErrMissing}
	}
	if label, ok := firstLabelDiff(s.Labels(), f.Labels()); !ok {
		return &ConsistencyError{Err: ErrLabelMismatch, Label: label}
	}
	if !s.HasDTypes() {
		return &ConsistencyError{Err: ErrNoDTypes}
	}
	want := f.DTypes()
	for i, got := range s.DTypes() {
		if got != want[i] {
			return &ConsistencyError{Err: ErrDTypeMismatch, Label: s.Rows[i].Label}
		}
	}
	return nil
}

// firstLabelDiff returns the first label that differs, or "" when only the
// lengths differ.
func firstLabelDiff(a, b []string) (string, bool) {
	if slices.Equal(a, b) {
		return "", true
	}
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return a[i], false
		}
	}
	return "", false
}

// Update returns a schema whose dtype field reflects f.
//
// With no data it returns nil. With no schema it derives one from f. When
// the labels match it returns a copy of s with the dtype of every row
// overwritten, appending the dtype field when missing; other fields are
// kept. When the labels differ, Strict returns a *ConsistencyError and
// Advisory logs a warning and returns s unchanged.
//
// s is never modified, and Update(Update(s, f), f) equals Update(s, f).
func Update(s *Table, f *frame.Frame, mode Mode) (*Table, error) {
	if f == nil {
		return nil, nil
	}
	if s == nil {
		return FromFrame(f), nil
	}
	if label, ok := firstLabelDiff(s.Labels(), f.Labels()); !ok {
		err := &ConsistencyError{Err: ErrLabelMismatch, Label: label}
		if mode == Strict {
			return nil, err
		}
		slog.Warn("Schema not updated", "reason", err.Error())
		return s, nil
	}
	out := s.Clone()
	j := out.FieldIndex(DTypeField)
	if j < 0 {
		out.Fields = append(out.Fields, DTypeField)
		j = len(out.Fields) - 1
	}
	for i, dtype := range f.DTypes() {
		r := &out.Rows[i]
		for len(r.Values) <= j {
			r.Values = append(r.Values, "")
		}
		r.Values[j] = string(dtype)
	}
	return out, nil
}
