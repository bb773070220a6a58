// Package errs defines the error kinds shared by all service modules.
// Handlers map these to HTTP status codes; anything else is treated as
// an internal error and never leaks to the client.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrPermissionDenied is returned when the actor may not touch the resource.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrUnauthorized is returned on credential failures (login, refresh, token).
	ErrUnauthorized = errors.New("unauthorized")
)

// NotFound wraps ErrNotFound with a resource name for log readability.
func NotFound(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// ValidationError collects per-field validation messages.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidation returns an empty ValidationError ready to collect messages.
func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add records a validation message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Err returns the error itself, or nil when no messages were recorded.
func (e *ValidationError) Err() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString("validation failed: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}
