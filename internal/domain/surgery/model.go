package surgery

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// Urgency classifies how soon a case must run.
type Urgency string

const (
	Elective  Urgency = "ELECTIVE"
	Urgent    Urgency = "URGENT"
	Emergency Urgency = "EMERGENCY"
)

var validUrgencies = map[Urgency]bool{Elective: true, Urgent: true, Emergency: true}

// SurgicalCase maps to the surgical_case table. This is the main pipeline
// resource; Status only ever moves forward through the case pipeline.
type SurgicalCase struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	PatientID        uuid.UUID        `db:"patient_id" json:"patient_id"`
	PrimarySurgeonID uuid.UUID        `db:"primary_surgeon_id" json:"primary_surgeon_id"`
	TheaterID        *uuid.UUID       `db:"theater_id" json:"theater_id,omitempty"`
	ProcedureName    string           `db:"procedure_name" json:"procedure_name"`
	Laterality       *string          `db:"laterality" json:"laterality,omitempty"`
	Urgency          Urgency          `db:"urgency" json:"urgency"`
	Status           casestate.Status `db:"status" json:"status"`
	ScheduledDate    time.Time        `db:"scheduled_date" json:"scheduled_date"`
	ScheduledStart   *time.Time       `db:"scheduled_start" json:"scheduled_start,omitempty"`
	ActualStart      *time.Time       `db:"actual_start" json:"actual_start,omitempty"`
	Note             *string          `db:"note" json:"note,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at"`
}

// TransitionAuditEntry maps to the transition_audit table. Append-only: one
// row per successful status transition, never mutated.
type TransitionAuditEntry struct {
	ID             uuid.UUID        `db:"id" json:"id"`
	CaseID         uuid.UUID        `db:"case_id" json:"case_id"`
	PreviousStatus casestate.Status `db:"previous_status" json:"previous_status"`
	NewStatus      casestate.Status `db:"new_status" json:"new_status"`
	Actor          string           `db:"actor" json:"actor"`
	Reason         *string          `db:"reason" json:"reason,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// TransitionResult is the success payload of a transition.
type TransitionResult struct {
	PreviousStatus casestate.Status `json:"previous_status"`
	NewStatus      casestate.Status `json:"new_status"`
}
