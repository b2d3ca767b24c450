package importer

// errors.go defines the error taxonomy of the engine.
//
// Row-level errors (parse and validation failures, unresolved references)
// are recoverable when the skip-errors flag is set: they are recorded on the
// report and the loop continues. Integrity errors (duplicate codes in a
// prepared batch, post-insert count mismatches) are never downgraded and
// always abort the run.

import (
	"errors"
	"fmt"
)

// ValidationError is a row-level failure: a missing required field, an
// invalid value, or an unresolved required reference.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Value != "":
		return fmt.Sprintf("%s: %s (%q)", e.Field, e.Message, e.Value)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// IntegrityError is a batch-level failure that must abort the run
// regardless of the skip-errors flag.
type IntegrityError struct {
	Message string
}

func (e *IntegrityError) Error() string { return e.Message }

// ErrDuplicateCode marks a business-code collision under conflict mode
// "error".
var ErrDuplicateCode = errors.New("code already exists")

// IsIntegrity reports whether err carries a batch-level integrity failure.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// RowError ties a failure to its 1-based source line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }
