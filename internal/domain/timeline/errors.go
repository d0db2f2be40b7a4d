package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownField is returned when an update names a field outside the
// canonical timeline field set.
var ErrUnknownField = errors.New("unknown timeline field")

// FieldViolation describes one ordering constraint broken by an update batch.
type FieldViolation struct {
	Field  Field  `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError rejects an entire update batch: no field in the batch is
// persisted when any ordering constraint is violated.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = fmt.Sprintf("%s: %s", v.Field, v.Reason)
	}
	return "timeline validation failed: " + strings.Join(parts, "; ")
}
