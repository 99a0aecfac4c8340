package model

import (
	"fmt"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("not found")

// ValidationError rejects input before any state is mutated.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func Invalid(field, format string, v ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, v...)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
