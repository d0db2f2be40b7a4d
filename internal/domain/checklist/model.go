package checklist

import (
	"time"

	"github.com/google/uuid"
)

// Phase identifies one of the three WHO Surgical Safety Checklist phases.
type Phase string

const (
	SignIn  Phase = "SIGN_IN"
	TimeOut Phase = "TIME_OUT"
	SignOut Phase = "SIGN_OUT"
)

// Phases lists the checklist phases in protocol order.
var Phases = []Phase{SignIn, TimeOut, SignOut}

// Valid reports whether p is a recognized phase key.
func (p Phase) Valid() bool {
	return p == SignIn || p == TimeOut || p == SignOut
}

// TemplateItem is one canonical checklist line for a phase.
type TemplateItem struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// templates holds the canonical item set per phase. Finalization requires
// every template item for the phase to be confirmed.
var templates = map[Phase][]TemplateItem{
	SignIn: {
		{Key: "identity_confirmed", Label: "Patient has confirmed identity, site, procedure and consent"},
		{Key: "site_marked", Label: "Surgical site marked"},
		{Key: "anaesthesia_check", Label: "Anaesthesia machine and medication check complete"},
		{Key: "pulse_oximeter", Label: "Pulse oximeter on patient and functioning"},
		{Key: "known_allergy", Label: "Known allergies reviewed"},
		{Key: "difficult_airway", Label: "Difficult airway or aspiration risk assessed"},
		{Key: "blood_loss_risk", Label: "Risk of >500ml blood loss assessed"},
		{Key: "iv_access", Label: "Adequate IV access and fluids planned"},
	},
	TimeOut: {
		{Key: "team_introductions", Label: "All team members introduced by name and role"},
		{Key: "patient_confirmed", Label: "Patient identity, site and procedure confirmed aloud"},
		{Key: "antibiotic_prophylaxis", Label: "Antibiotic prophylaxis given within the last 60 minutes"},
		{Key: "critical_steps", Label: "Surgeon reviewed critical or non-routine steps"},
		{Key: "case_duration", Label: "Anticipated case duration stated"},
		{Key: "blood_loss", Label: "Anticipated blood loss stated"},
		{Key: "anaesthesia_concerns", Label: "Anaesthesia team reviewed patient-specific concerns"},
		{Key: "sterility_confirmed", Label: "Nursing team confirmed sterility indicators"},
		{Key: "equipment_concerns", Label: "Equipment issues or concerns addressed"},
		{Key: "imaging_displayed", Label: "Essential imaging displayed"},
	},
	SignOut: {
		{Key: "procedure_recorded", Label: "Name of procedure recorded"},
		{Key: "counts_complete", Label: "Instrument, sponge and needle counts complete"},
		{Key: "specimen_labelled", Label: "Specimens labelled with patient name"},
		{Key: "equipment_problems", Label: "Equipment problems identified and addressed"},
		{Key: "recovery_concerns", Label: "Key concerns for recovery and management reviewed"},
		{Key: "disposition_confirmed", Label: "Patient disposition and handoff plan confirmed"},
	},
}

// Template returns the canonical item set for a phase.
func Template(p Phase) []TemplateItem {
	return templates[p]
}

// Item is the per-case state of one checklist line.
type Item struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Confirmed bool    `json:"confirmed"`
	Note      *string `json:"note,omitempty"`
}

// PhaseState maps to the checklist_phase table. One row per case per phase.
type PhaseState struct {
	CaseID          uuid.UUID  `db:"case_id" json:"case_id"`
	Phase           Phase      `db:"phase" json:"phase"`
	Items           []Item     `db:"items" json:"items"`
	Completed       bool       `db:"completed" json:"completed"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CompletedByRole *string    `db:"completed_by_role" json:"completed_by_role,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// NewPhaseState builds the unstarted shape for a phase: every template item
// present and unconfirmed.
func NewPhaseState(caseID uuid.UUID, phase Phase) *PhaseState {
	tpl := templates[phase]
	items := make([]Item, len(tpl))
	for i, t := range tpl {
		items[i] = Item{Key: t.Key, Label: t.Label}
	}
	return &PhaseState{CaseID: caseID, Phase: phase, Items: items}
}

// Unconfirmed returns the labels of template items not yet confirmed.
func (s *PhaseState) Unconfirmed() []string {
	confirmed := make(map[string]bool, len(s.Items))
	for _, it := range s.Items {
		if it.Confirmed {
			confirmed[it.Key] = true
		}
	}
	var missing []string
	for _, t := range templates[s.Phase] {
		if !confirmed[t.Key] {
			missing = append(missing, t.Label)
		}
	}
	return missing
}

// CaseStatus is the aggregate checklist view for one case. A phase that has
// never been touched is reported in its unstarted shape with Started=false.
type CaseStatus struct {
	CaseID  uuid.UUID   `json:"case_id"`
	SignIn  PhaseStatus `json:"sign_in"`
	TimeOut PhaseStatus `json:"time_out"`
	SignOut PhaseStatus `json:"sign_out"`
}

// PhaseStatus is the per-phase slice of CaseStatus.
type PhaseStatus struct {
	Started         bool       `json:"started"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CompletedByRole *string    `json:"completed_by_role,omitempty"`
	Items           []Item     `json:"items"`
}

// PhaseStatus returns the status slice for the given phase key.
func (cs *CaseStatus) PhaseStatus(p Phase) PhaseStatus {
	switch p {
	case SignIn:
		return cs.SignIn
	case TimeOut:
		return cs.TimeOut
	case SignOut:
		return cs.SignOut
	}
	return PhaseStatus{}
}
