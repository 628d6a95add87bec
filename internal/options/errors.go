package options

import (
	"errors"
	"fmt"
)

var ErrInvalidContract = errors.New("invalid options contract")

// ValidationError describes the field that failed contract validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %q %s", ErrInvalidContract, e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidContract
}
