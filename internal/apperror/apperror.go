// Package apperror defines the error taxonomy shared by the repository,
// service and handler layers.
//
// Every error a service returns either wraps one of the sentinels below
// (so handlers can branch with errors.Is) or is an unexpected failure that
// handlers turn into a generic error page.
package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("Validation Error")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)

type AppError struct {
	Err     error             // actual error
	Message string            // Human-readable error message
	Field   string            // Optional: field causing the error
	Fields  map[string]string // Optional: one message per invalid form field
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// FieldMessage returns the message attached to a form field, or "".
func (e *AppError) FieldMessage(field string) string {
	if msg, ok := e.Fields[field]; ok {
		return msg
	}
	if e.Field == field {
		return e.Message
	}
	return ""
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
		Fields:  map[string]string{field: message},
	}
}

// Invalid reports several field errors at once. The Message lists them in
// field order so it is stable across runs.
func Invalid(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+fields[name])
	}

	return &AppError{
		Err:     ErrValidation,
		Message: strings.Join(parts, "; "),
		Fields:  fields,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Unauthenticated returns an AppError for operations that need a principal.
// HTML handlers answer it with the landing page rather than an error page.
func Unauthenticated(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthenticated,
		Message: message,
	}
}

// Fields extracts the per-field messages from err, if it is a validation error.
func Fields(err error) map[string]string {
	var appErr *AppError
	if errors.As(err, &appErr) && errors.Is(err, ErrValidation) {
		return appErr.Fields
	}
	return nil
}
