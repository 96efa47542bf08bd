package validation

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotArray is reported when the project document is not a list
var ErrNotArray = errors.New("projects data is not an array")

// FieldError explains why a record was rejected
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func rejectField(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

// RejectedField returns the offending field of a rejection, or "unknown"
// for errors that did not come from a field check.
func RejectedField(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	return "unknown"
}
