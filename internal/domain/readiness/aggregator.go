package readiness

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// Aggregator computes a per-case readiness verdict by pulling signals from
// the planning, consent, nursing, checklist and timeline collaborators and
// scoring them against the gate table for the requested transition.
type Aggregator struct {
	plans      DoctorPlanProvider
	consents   ConsentProvider
	nursing    NurseDocProvider
	notes      OperativeNoteProvider
	checklists ChecklistProvider
	timelines  TimelineProvider
	log        zerolog.Logger
}

func NewAggregator(
	plans DoctorPlanProvider,
	consents ConsentProvider,
	nursing NurseDocProvider,
	notes OperativeNoteProvider,
	checklists ChecklistProvider,
	timelines TimelineProvider,
	log zerolog.Logger,
) *Aggregator {
	return &Aggregator{
		plans:      plans,
		consents:   consents,
		nursing:    nursing,
		notes:      notes,
		checklists: checklists,
		timelines:  timelines,
		log:        log,
	}
}

// Evaluate scores a case against the gate table for entering target. A
// collaborator failure degrades its category to WARNING with an
// "unavailable" reason; unresolved information is never treated as CLEAR.
func (a *Aggregator) Evaluate(ctx context.Context, caseID uuid.UUID, target casestate.Status) (*Verdict, error) {
	rules, ok := severityByTarget[target]
	if !ok {
		return &Verdict{Level: Clear}, nil
	}

	v := &Verdict{Level: Clear}
	add := func(sev Level, cat Category, msg string) {
		v.Reasons = append(v.Reasons, Reason{Category: cat, Severity: sev, Message: msg})
		v.Level = v.Level.Max(sev)
	}
	degrade := func(cat Category, what string, err error) {
		a.log.Warn().Err(err).Str("case_id", caseID.String()).Str("category", string(cat)).
			Msg("readiness collaborator unavailable, degrading to WARNING")
		add(Warning, cat, what+" status unavailable")
	}

	if sev, need := rules[condPlanIncomplete]; need {
		plan, err := a.plans.PlanStatus(ctx, caseID)
		switch {
		case err != nil:
			degrade(CategoryPlanning, "doctor planning", err)
		case !plan.Ready:
			add(sev, CategoryPlanning, fmt.Sprintf("Doctor planning: %d item(s) missing", plan.MissingCount))
		}
	}

	if sev, need := rules[condConsentsUnsigned]; need {
		counts, err := a.consents.ConsentCounts(ctx, caseID)
		switch {
		case err != nil:
			degrade(CategoryConsent, "consent", err)
		case counts.Signed < counts.Total:
			add(sev, CategoryConsent, fmt.Sprintf("Consents signed: %d of %d", counts.Signed, counts.Total))
		}
	}

	if sev, need := rules[condPreOpNotFinal]; need {
		doc, err := a.nursing.DocStatus(ctx, caseID, DocPreOp)
		switch {
		case err != nil:
			degrade(CategoryNursing, "nurse pre-op documentation", err)
		case doc.Status != DocFinal:
			add(sev, CategoryNursing, "Nurse pre-op documentation not finalized")
		}
	}

	if sev, need := rules[condIntraOpDiscrep]; need {
		doc, err := a.nursing.DocStatus(ctx, caseID, DocIntraOp)
		switch {
		case err != nil:
			degrade(CategoryNursing, "nurse intra-op documentation", err)
		case doc.Discrepancy:
			add(sev, CategoryNursing, "Intra-operative count discrepancy flagged")
		}
	}

	if sev, need := rules[condDischargeNotReady]; need {
		doc, err := a.nursing.DocStatus(ctx, caseID, DocRecovery)
		switch {
		case err != nil:
			degrade(CategoryNursing, "nurse recovery documentation", err)
		case doc.Status != DocFinal:
			add(sev, CategoryNursing, "Nurse recovery documentation not finalized")
		case !doc.DischargeReady:
			add(sev, CategoryNursing, "discharge criteria not met")
		}
	}

	a.evalChecklist(ctx, caseID, rules, add, degrade)

	if sev, need := rules[condOpNoteNotFinal]; need {
		status, err := a.notes.NoteStatus(ctx, caseID)
		switch {
		case err != nil:
			degrade(CategoryNursing, "operative note", err)
		case status != DocFinal:
			add(sev, CategoryNursing, "Operative note not finalized")
		}
	}

	if sev, need := rules[condTimelineGaps]; need {
		missing, err := a.timelines.MissingFields(ctx, caseID, target)
		switch {
		case err != nil:
			degrade(CategoryTimeline, "timeline", err)
		case len(missing) > 0:
			add(sev, CategoryTimeline, "Timeline missing: "+strings.Join(missing, ", "))
		}
	}

	return v, nil
}

func (a *Aggregator) evalChecklist(
	ctx context.Context,
	caseID uuid.UUID,
	rules map[condition]Level,
	add func(Level, Category, string),
	degrade func(Category, string, error),
) {
	_, needSignIn := rules[condSignInOpen]
	_, needTimeOut := rules[condTimeOutOpen]
	_, needSignOut := rules[condSignOutOpen]
	if !needSignIn && !needTimeOut && !needSignOut {
		return
	}

	flags, err := a.checklists.ChecklistFlags(ctx, caseID)
	if err != nil {
		degrade(CategoryChecklist, "WHO checklist", err)
		return
	}
	if sev := rules[condSignInOpen]; needSignIn && !flags.SignInDone {
		add(sev, CategoryChecklist, "WHO Sign-In checklist not finalized")
	}
	if sev := rules[condTimeOutOpen]; needTimeOut && !flags.TimeOutDone {
		add(sev, CategoryChecklist, "WHO Time-Out checklist not finalized")
	}
	if sev := rules[condSignOutOpen]; needSignOut && !flags.SignOutDone {
		add(sev, CategoryChecklist, "WHO Sign-Out checklist not finalized")
	}
}
