package timeline

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists one operative timeline row per case.
type Repository interface {
	// Get returns the record, or (nil, nil) when no timestamp has been
	// recorded for the case yet.
	Get(ctx context.Context, caseID uuid.UUID) (*Record, error)
	// Save upserts the whole row. The row is the unit of atomicity, which
	// gives update batches their all-or-nothing property.
	Save(ctx context.Context, r *Record) error
}
