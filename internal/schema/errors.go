package schema

import (
	"fmt"
	"strings"
)

// FieldError is a single field-level violation found during validation.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// ValidationError carries every field-level violation found in a candidate,
// not just the first, so a failed extraction can be diagnosed in one round
// trip. It is terminal: the same candidate deterministically fails again, so
// callers must never retry it.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return fmt.Sprintf("schema validation failed (%d violations): %s",
		len(e.Fields), strings.Join(msgs, "; "))
}
