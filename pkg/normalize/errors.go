package normalize

import (
	"fmt"
	"strings"
)

// Error codes carried by FieldError.
const (
	CodeRequired = "required"
	CodeInvalid  = "invalid"
	CodeRange    = "out_of_range"
)

// FieldError describes one problem with one request field.
type FieldError struct {
	// Field is the canonical field name (e.g. "hourlyRate").
	Field string `json:"field"`

	// Code is one of CodeRequired, CodeInvalid or CodeRange.
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError lists every problem found in a request. Normalize returns
// it instead of stopping at the first bad field.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all field errors.
func (e *ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "invalid input"
	case 1:
		return "invalid input: " + e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return fmt.Sprintf("invalid input (%d errors): %s", len(e.Errors), strings.Join(parts, "; "))
}

// Fields returns the names of all fields with errors, in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		out = append(out, fe.Field)
	}
	return out
}

type errorList []FieldError

func (l errorList) has(field string) bool {
	for _, fe := range l {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (l *errorList) add(field, code, format string, args ...any) {
	*l = append(*l, FieldError{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}
