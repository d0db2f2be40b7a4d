package surgery

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// CaseRepository persists surgical cases.
type CaseRepository interface {
	Create(ctx context.Context, sc *SurgicalCase) error
	// GetByID returns (nil, nil) when the case does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*SurgicalCase, error)
	// ListByDate returns the cases scheduled on a date, optionally filtered
	// to one theater, ordered by scheduled start.
	ListByDate(ctx context.Context, date time.Time, theaterID *uuid.UUID) ([]*SurgicalCase, error)
	// UpdateStatus is the compare-and-swap status write: the row moves from
	// `from` to `to` only if it is still in `from`. Returns false when the
	// conditional write matched no row. actualStart, when non-nil, is
	// stamped in the same write.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to casestate.Status, actualStart *time.Time) (bool, error)
}

// AuditSink receives one entry per successful transition.
type AuditSink interface {
	Record(ctx context.Context, e *TransitionAuditEntry) error
}

// AuditRepository reads back the append-only transition trail.
type AuditRepository interface {
	AuditSink
	// ListByCase returns one page of entries in chronological order plus the
	// total count for the case.
	ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*TransitionAuditEntry, int, error)
}
