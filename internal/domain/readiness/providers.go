package readiness

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// PlanStatus is the doctor-planning completeness signal.
type PlanStatus struct {
	Ready        bool `json:"ready"`
	MissingCount int  `json:"missing_count"`
}

// DoctorPlanProvider reports whether the surgeon's pre-operative plan is
// complete for a case.
type DoctorPlanProvider interface {
	PlanStatus(ctx context.Context, caseID uuid.UUID) (PlanStatus, error)
}

// ConsentCounts is the consent signature tally for a case.
type ConsentCounts struct {
	Signed int `json:"signed"`
	Total  int `json:"total"`
}

// ConsentProvider reports consent signature counts for a case.
type ConsentProvider interface {
	ConsentCounts(ctx context.Context, caseID uuid.UUID) (ConsentCounts, error)
}

// DocPhase identifies one nursing documentation phase.
type DocPhase string

const (
	DocPreOp    DocPhase = "PRE_OP"
	DocIntraOp  DocPhase = "INTRA_OP"
	DocRecovery DocPhase = "RECOVERY"
)

// DocStatus is the lifecycle state of a nursing document or operative note.
type DocStatus string

const (
	DocNone  DocStatus = "NONE"
	DocDraft DocStatus = "DRAFT"
	DocFinal DocStatus = "FINAL"
)

// NurseDoc is the per-phase nursing documentation signal.
type NurseDoc struct {
	Status         DocStatus `json:"status"`
	Discrepancy    bool      `json:"discrepancy,omitempty"`
	DischargeReady bool      `json:"discharge_ready,omitempty"`
	PhotoCount     int       `json:"photo_count,omitempty"`
}

// NurseDocProvider reports nursing documentation status per phase.
type NurseDocProvider interface {
	DocStatus(ctx context.Context, caseID uuid.UUID, phase DocPhase) (NurseDoc, error)
}

// OperativeNoteProvider reports the surgeon's operative note status.
type OperativeNoteProvider interface {
	NoteStatus(ctx context.Context, caseID uuid.UUID) (DocStatus, error)
}

// ChecklistFlags is the narrow completion view of the WHO checklist the
// aggregator needs: one flag per phase.
type ChecklistFlags struct {
	SignInDone  bool
	TimeOutDone bool
	SignOutDone bool
}

// ChecklistProvider reports WHO checklist phase completion for a case.
type ChecklistProvider interface {
	ChecklistFlags(ctx context.Context, caseID uuid.UUID) (ChecklistFlags, error)
}

// TimelineProvider reports the timeline fields expected for a status that
// have not been recorded yet.
type TimelineProvider interface {
	MissingFields(ctx context.Context, caseID uuid.UUID, status casestate.Status) ([]string, error)
}
