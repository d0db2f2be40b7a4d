package checklist

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists per-case checklist phase state.
type Repository interface {
	// Get returns the phase state, or (nil, nil) when the phase has never
	// been touched for this case.
	Get(ctx context.Context, caseID uuid.UUID, phase Phase) (*PhaseState, error)
	GetAll(ctx context.Context, caseID uuid.UUID) ([]*PhaseState, error)
	// SaveDraft upserts the phase state. Fails with ErrPhaseFinalized when
	// the stored row is already completed.
	SaveDraft(ctx context.Context, s *PhaseState) error
	// Finalize marks the phase completed. The write is conditional on
	// completed=false so that two concurrent finalize calls produce exactly
	// one success and one ErrPhaseFinalized.
	Finalize(ctx context.Context, s *PhaseState) error
}
