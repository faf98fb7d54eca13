package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewConfigValidationError returns a config validation error occurring at a given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns a config validation error for a field missing
// at a given path.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, FieldRequiredError{Field: field})
}

// FieldRequiredError reports a required config field that was left empty.
type FieldRequiredError struct {
	Field string
}

func (e FieldRequiredError) Error() string {
	return fmt.Sprintf("%q is required", e.Field)
}

// GetFieldFromFieldRequiredError returns the name of the missing field, or the empty string if
// err is not a field-required error.
func GetFieldFromFieldRequiredError(err error) string {
	var fre FieldRequiredError
	if errors.As(err, &fre) {
		return fre.Field
	}
	return ""
}
