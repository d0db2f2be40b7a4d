package readiness

import (
	"github.com/clinops/clinops/internal/domain/casestate"
)

// condition identifies one gating finding the aggregator can raise.
type condition string

const (
	condPlanIncomplete    condition = "plan_incomplete"
	condConsentsUnsigned  condition = "consents_unsigned"
	condPreOpNotFinal     condition = "preop_not_final"
	condIntraOpDiscrep    condition = "intraop_discrepancy"
	condDischargeNotReady condition = "discharge_not_ready"
	condSignInOpen        condition = "sign_in_open"
	condTimeOutOpen       condition = "time_out_open"
	condSignOutOpen       condition = "sign_out_open"
	condOpNoteNotFinal    condition = "op_note_not_final"
	condTimelineGaps      condition = "timeline_gaps"
)

// severityByTarget is the gate definition, keyed by the status a case is
// trying to enter. The shape is soft-then-hard: a category hard-blocks only
// the transition where it is structurally required to exist, and degrades to
// advisory for later transitions so paperwork gaps never freeze an
// in-progress case. A condition absent from a target's row is not evaluated
// for that transition at all.
var severityByTarget = map[casestate.Status]map[condition]Level{
	casestate.InPrep: {
		condPlanIncomplete:   Blocked,
		condConsentsUnsigned: Blocked,
		condPreOpNotFinal:    Warning,
	},
	casestate.InTheater: {
		condPlanIncomplete:   Blocked,
		condConsentsUnsigned: Blocked,
		condPreOpNotFinal:    Blocked,
		condSignInOpen:       Blocked,
	},
	casestate.Recovery: {
		condPlanIncomplete:   Warning,
		condConsentsUnsigned: Warning,
		condPreOpNotFinal:    Warning,
		condIntraOpDiscrep:   Blocked,
		condSignInOpen:       Warning,
		condTimeOutOpen:      Blocked,
		condTimelineGaps:     Warning,
	},
	casestate.Completed: {
		condPlanIncomplete:    Warning,
		condConsentsUnsigned:  Warning,
		condPreOpNotFinal:     Warning,
		condIntraOpDiscrep:    Blocked,
		condDischargeNotReady: Blocked,
		condSignInOpen:        Warning,
		condTimeOutOpen:       Warning,
		condSignOutOpen:       Blocked,
		condOpNoteNotFinal:    Blocked,
		condTimelineGaps:      Warning,
	},
}
