package shared

import "errors"

// Errors returned by the in-process services. Callers wrap them with context
// and the gateway maps them to HTTP status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("already exists")
)

// InputError carries field-level validation failures and matches
// ErrInvalidInput with errors.Is.
type InputError struct {
	Fields []ValidationError
}

func (e *InputError) Error() string {
	return ErrInvalidInput.Error() + ": " + ValidationErrorsString(e.Fields)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

// ValidateInput validates s and wraps any failures in an InputError
func ValidateInput(s interface{}) error {
	if errs := Validate(s); len(errs) > 0 {
		return &InputError{Fields: errs}
	}
	return nil
}
