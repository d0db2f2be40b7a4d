package surgery

import (
	"errors"
	"fmt"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/readiness"
)

// ErrNotFound is returned when the referenced surgical case does not exist.
var ErrNotFound = errors.New("surgical case not found")

// ErrConcurrentModification is returned when a status mutation loses the race
// against another writer. The caller should refetch and retry.
var ErrConcurrentModification = errors.New("surgical case modified concurrently")

// InvalidTransitionError rejects an action that does not match the case's
// current state. The pipeline is linear: no skipping, no going backward.
type InvalidTransitionError struct {
	From   casestate.Status
	Action casestate.Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot move from %s to %s", e.From, e.Action)
}

// TransitionBlockedError rejects a transition whose readiness verdict is
// BLOCKED. It carries the full reasons list so the caller can surface the
// missing items.
type TransitionBlockedError struct {
	Action  casestate.Status
	Reasons []readiness.Reason
}

func (e *TransitionBlockedError) Error() string {
	return fmt.Sprintf("transition to %s blocked by %d readiness reason(s)", e.Action, len(e.Reasons))
}
