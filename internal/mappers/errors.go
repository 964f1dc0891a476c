package mappers

import (
	"errors"
	"strings"
)

// ValidationError is returned when a lead is missing required fields.
// Fields lists the missing application field names in declaration order.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
