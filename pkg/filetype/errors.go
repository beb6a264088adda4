package filetype

import (
	"errors"
	"fmt"
)

// ErrArgumentEmpty is matched by every ArgumentEmptyError via errors.Is
var ErrArgumentEmpty = errors.New("argument must not be empty")

// ArgumentEmptyError is returned when a lookup key is empty
type ArgumentEmptyError struct {
	Argument string
}

func (e *ArgumentEmptyError) Error() string {
	return fmt.Sprintf("argument %q must not be empty", e.Argument)
}

// Is reports whether target is ErrArgumentEmpty
func (e *ArgumentEmptyError) Is(target error) bool {
	return target == ErrArgumentEmpty
}

// NewArgumentEmptyError creates an ArgumentEmptyError for the named argument
func NewArgumentEmptyError(argument string) error {
	return &ArgumentEmptyError{Argument: argument}
}

// InvalidFileTypeError is returned by New when a descriptor violates its invariants
type InvalidFileTypeError struct {
	MimeType string
	Reason   string
}

func (e *InvalidFileTypeError) Error() string {
	if e.MimeType == "" {
		return "invalid file type: " + e.Reason
	}
	return fmt.Sprintf("invalid file type %s: %s", e.MimeType, e.Reason)
}
