package quote

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when the caller hands the calculators an
// incomplete or malformed set of answers. It is never transient.
var ErrInvalidInput = errors.New("invalid input")

// InputError names the answer that made a quotation impossible to compute.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
