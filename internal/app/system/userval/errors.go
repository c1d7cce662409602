package userval

import (
	"errors"
	"strings"
)

// Kind classifies a field-level violation.
type Kind string

const (
	MissingRequiredField Kind = "missing_required_field"
	InvalidFormat        Kind = "invalid_format"
	OutOfRange           Kind = "out_of_range"

	// DuplicateValue and HashingFailure are detected at write time by the
	// store, never by Validate.
	DuplicateValue Kind = "duplicate_value"
	HashingFailure Kind = "hashing_failure"
)

// FieldError is one violation on one field. Field is the stored document
// path (e.g. "identity.first_name").
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is the batch of violations found by a single validation pass.
type Errors []FieldError

func (es Errors) Error() string {
	msgs := make([]string, 0, len(es))
	for _, e := range es {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether the batch contains a violation of kind on field.
func (es Errors) Has(field string, kind Kind) bool {
	for _, e := range es {
		if e.Field == field && e.Kind == kind {
			return true
		}
	}
	return false
}

// Fields returns the offending field paths in report order.
func (es Errors) Fields() []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Field)
	}
	return out
}

// AsErrors extracts a validation batch from err, if there is one.
func AsErrors(err error) (Errors, bool) {
	var es Errors
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}
