package checklist

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPhase is returned when a phase key is not one of the three
	// recognized WHO checklist phases.
	ErrUnknownPhase = errors.New("unknown checklist phase")

	// ErrUnknownItem is returned when a submitted item key does not exist in
	// the phase's template.
	ErrUnknownItem = errors.New("unknown checklist item")

	// ErrPhaseFinalized is returned on any write to a finalized phase.
	// Finalized phases are immutable.
	ErrPhaseFinalized = errors.New("checklist phase already finalized")
)

// IncompleteChecklistError is returned by Finalize when one or more template
// items are not confirmed. Missing carries the unconfirmed item labels.
type IncompleteChecklistError struct {
	Phase   Phase
	Missing []string
}

func (e *IncompleteChecklistError) Error() string {
	return fmt.Sprintf("checklist phase %s incomplete: %s", e.Phase, strings.Join(e.Missing, "; "))
}
