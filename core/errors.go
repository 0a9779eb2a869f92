package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// IsValidationError reports whether err (or its cause) is a ValidationError.
func IsValidationError(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// ValidationMessage extracts a user-presentable message from a validation
// error: the first field error when present, the wrapped message otherwise.
func ValidationMessage(err error) string {
	verr, ok := errors.Cause(err).(*ValidationError)
	if !ok {
		return err.Error()
	}
	if len(verr.Fields) > 0 {
		return verr.Fields[0].Error
	}
	return verr.Error()
}
