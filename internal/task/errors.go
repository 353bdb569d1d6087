package task

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField   = errors.New("missing required field")
	ErrInvalidDueDate = errors.New("due date must be dd/mm/yyyy and not in the past")
	ErrInvalidField   = errors.New("invalid value")
)

// ValidationError reports which field was rejected and why. Reason is one
// of ErrMissingField, ErrInvalidDueDate or ErrInvalidField.
type ValidationError struct {
	Field  string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Reason
}
