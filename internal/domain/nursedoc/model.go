package nursedoc

import (
	"time"

	"github.com/google/uuid"
)

// Phase identifies one nursing documentation phase around a surgical case.
type Phase string

const (
	PreOp    Phase = "PRE_OP"
	IntraOp  Phase = "INTRA_OP"
	Recovery Phase = "RECOVERY"
)

var validPhases = map[Phase]bool{PreOp: true, IntraOp: true, Recovery: true}

// Status is the lifecycle state of a nursing document or operative note.
type Status string

const (
	StatusNone  Status = "NONE"
	StatusDraft Status = "DRAFT"
	StatusFinal Status = "FINAL"
)

var validStatuses = map[Status]bool{StatusNone: true, StatusDraft: true, StatusFinal: true}

// NursingDoc maps to the nursing_doc table: one row per case per phase.
// Discrepancy only applies intra-op (count mismatch); DischargeReady and
// PhotoCount only apply in their respective phases and stay false/zero
// elsewhere.
type NursingDoc struct {
	CaseID         uuid.UUID `db:"case_id" json:"case_id"`
	Phase          Phase     `db:"phase" json:"phase"`
	Status         Status    `db:"status" json:"status"`
	Discrepancy    bool      `db:"discrepancy" json:"discrepancy"`
	DischargeReady bool      `db:"discharge_ready" json:"discharge_ready"`
	PhotoCount     int       `db:"photo_count" json:"photo_count"`
	UpdatedBy      string    `db:"updated_by" json:"updated_by"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// OperativeNote maps to the operative_note table: the surgeon's narrative
// record, tracked here only by status.
type OperativeNote struct {
	CaseID    uuid.UUID `db:"case_id" json:"case_id"`
	Status    Status    `db:"status" json:"status"`
	UpdatedBy string    `db:"updated_by" json:"updated_by"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
