// Package validation holds the pure, side-effect-free form validators for
// petitions, signatures and accounts. Every validator reports all field
// problems at once instead of stopping at the first one.
package validation

import (
	"strings"
)

// Kind classifies a field error
type Kind string

const (
	Required       Kind = "required"
	TooShort       Kind = "too_short"
	TooLong        Kind = "too_long"
	BelowMinimum   Kind = "below_minimum"
	InvalidFormat  Kind = "invalid_format"
	MustBeFuture   Kind = "must_be_future"
	DivisionByZero Kind = "division_by_zero"
)

// FieldError describes a single problem with one field
type FieldError struct {
	Field   string `json:"field"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is the complete set of field errors for one submission
type Errors []*FieldError

func (e Errors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether field failed with kind
func (e Errors) Has(field string, kind Kind) bool {
	for _, fe := range e {
		if fe.Field == field && fe.Kind == kind {
			return true
		}
	}
	return false
}

// Fields returns the names of the failing fields in report order
func (e Errors) Fields() []string {
	fields := make([]string, 0, len(e))
	for _, fe := range e {
		fields = append(fields, fe.Field)
	}
	return fields
}

func (e *Errors) add(field string, kind Kind, message string) {
	*e = append(*e, &FieldError{Field: field, Kind: kind, Message: message})
}

// err returns nil for an empty set so callers never get a typed nil
func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
