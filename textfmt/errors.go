// Handles decode and encode errors.

package textfmt

import (
	"errors"
	"fmt"
)

// Section identifies the part of a file an error relates to.
type Section int

const (
	// SectionFile is the file as a whole.
	SectionFile Section = iota
	SectionMetadata
	SectionSchema
	SectionData
)

func (s Section) String() string {
	switch s {
	case SectionFile:
		return "file"
	case SectionMetadata:
		return "metadata"
	case SectionSchema:
		return "schema"
	case SectionData:
		return "data"
	default:
		return fmt.Sprintf("Section(%d)", int(s))
	}
}

// Decode failures. A *FormatError wraps exactly one of these.
var (
	ErrSectionCount   = errors.New("wrong section count")
	ErrMetadata       = errors.New("malformed metadata")
	ErrRows           = errors.New("malformed rows")
	ErrDuplicateLabel = errors.New("duplicate label")
	ErrDateTime       = errors.New("malformed date/time value")
	ErrValue          = errors.New("malformed value")
)

// Encode failures.
var (
	ErrNoData             = errors.New("no data")
	ErrSeparatorInContent = errors.New("content contains the section separator")
)

// FormatError reports malformed input, naming the offending section.
type FormatError struct {
	Section Section
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s section: %v", e.Section, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// formatErr wraps cause under the sentinel kind. cause may be nil.
func formatErr(s Section, kind, cause error) *FormatError {
	if cause == nil {
		return &FormatError{Section: s, Err: kind}
	}
	return &FormatError{Section: s, Err: fmt.Errorf("%w: %w", kind, cause)}
}
