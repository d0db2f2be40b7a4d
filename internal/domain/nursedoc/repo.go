package nursedoc

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists nursing documents and the operative note.
type Repository interface {
	// GetDoc returns (nil, nil) when the phase has never been touched.
	GetDoc(ctx context.Context, caseID uuid.UUID, phase Phase) (*NursingDoc, error)
	ListDocs(ctx context.Context, caseID uuid.UUID) ([]*NursingDoc, error)
	UpsertDoc(ctx context.Context, d *NursingDoc) error
	// GetNote returns (nil, nil) when no note has been recorded.
	GetNote(ctx context.Context, caseID uuid.UUID) (*OperativeNote, error)
	UpsertNote(ctx context.Context, n *OperativeNote) error
}
