package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Expected, reportable conditions. Anything else coming out of a
// repository is a storage failure.
var (
	// ErrNotFound is returned when no contact exists for an identifier.
	ErrNotFound = errors.New("contact not found")

	// ErrDuplicateEmail is returned when a write would collide with
	// another contact's email, case-insensitively.
	ErrDuplicateEmail = errors.New("contact with this email already exists")

	// ErrValidation marks field-level validation failures. Match with
	// errors.Is; the concrete *ValidationError carries the fields.
	ErrValidation = errors.New("validation failed")

	// ErrStorageUnavailable wraps lower-level storage failures
	// (connectivity, corrupt documents) so callers can distinguish them
	// from the expected conditions above.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrMalformedImport is returned for import files that cannot be
	// parsed at all.
	ErrMalformedImport = errors.New("malformed import file")
)

// FieldError attributes one validation failure to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates every rule violation found in a candidate;
// rules are not short-circuited, so all offending fields are reported
// together.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// StorageError wraps err as an ErrStorageUnavailable while keeping the
// cause in the message.
func StorageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
