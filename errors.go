package dataplusmeta

import (
	"fmt"

	"github.com/maruel/dataplusmeta/textfmt"
)

// ErrNoData is reported when an operation needs a Data Table and the
// container has none.
var ErrNoData = textfmt.ErrNoData

// StateError reports an operation attempted on a container missing required
// content.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}
