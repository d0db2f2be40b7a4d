package planning

import (
	"time"

	"github.com/google/uuid"
)

// DoctorPlan maps to the doctor_plan table: the surgeon's pre-operative
// planning completeness signal, one row per case.
type DoctorPlan struct {
	CaseID       uuid.UUID `db:"case_id" json:"case_id"`
	Ready        bool      `db:"ready" json:"ready"`
	MissingCount int       `db:"missing_count" json:"missing_count"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	UpdatedBy    string    `db:"updated_by" json:"updated_by"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Consent maps to the consent table. A case usually carries several consent
// documents (surgical, anesthesia, blood products); each is signed
// independently.
type Consent struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	CaseID      uuid.UUID  `db:"case_id" json:"case_id"`
	ConsentType string     `db:"consent_type" json:"consent_type"`
	Signed      bool       `db:"signed" json:"signed"`
	SignerName  *string    `db:"signer_name" json:"signer_name,omitempty"`
	SignedAt    *time.Time `db:"signed_at" json:"signed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// ConsentCounts is the signed/total tally for a case.
type ConsentCounts struct {
	Signed int `json:"signed"`
	Total  int `json:"total"`
}
