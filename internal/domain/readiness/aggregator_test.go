package readiness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// stubProviders implements every collaborator interface from one struct so
// each test can dial individual signals up or down.
type stubProviders struct {
	plan       PlanStatus
	planErr    error
	consents   ConsentCounts
	consentErr error
	docs       map[DocPhase]NurseDoc
	docErr     error
	note       DocStatus
	noteErr    error
	flags      ChecklistFlags
	flagsErr   error
	missing    []string
	missingErr error
}

func (s *stubProviders) PlanStatus(context.Context, uuid.UUID) (PlanStatus, error) {
	return s.plan, s.planErr
}

func (s *stubProviders) ConsentCounts(context.Context, uuid.UUID) (ConsentCounts, error) {
	return s.consents, s.consentErr
}

func (s *stubProviders) DocStatus(_ context.Context, _ uuid.UUID, phase DocPhase) (NurseDoc, error) {
	return s.docs[phase], s.docErr
}

func (s *stubProviders) NoteStatus(context.Context, uuid.UUID) (DocStatus, error) {
	return s.note, s.noteErr
}

func (s *stubProviders) ChecklistFlags(context.Context, uuid.UUID) (ChecklistFlags, error) {
	return s.flags, s.flagsErr
}

func (s *stubProviders) MissingFields(context.Context, uuid.UUID, casestate.Status) ([]string, error) {
	return s.missing, s.missingErr
}

// readyStub returns a stub where every signal says the case is fully ready.
func readyStub() *stubProviders {
	return &stubProviders{
		plan:     PlanStatus{Ready: true},
		consents: ConsentCounts{Signed: 2, Total: 2},
		docs: map[DocPhase]NurseDoc{
			DocPreOp:    {Status: DocFinal},
			DocIntraOp:  {Status: DocFinal},
			DocRecovery: {Status: DocFinal, DischargeReady: true},
		},
		note:  DocFinal,
		flags: ChecklistFlags{SignInDone: true, TimeOutDone: true, SignOutDone: true},
	}
}

func newAggregator(s *stubProviders) *Aggregator {
	return NewAggregator(s, s, s, s, s, s, zerolog.Nop())
}

func hasMessage(reasons []Reason, substr string) bool {
	for _, r := range reasons {
		if strings.Contains(r.Message, substr) {
			return true
		}
	}
	return false
}

func TestEvaluate_FullyReadyCaseIsClear(t *testing.T) {
	agg := newAggregator(readyStub())
	for _, target := range []casestate.Status{
		casestate.InPrep, casestate.InTheater, casestate.Recovery, casestate.Completed,
	} {
		v, err := agg.Evaluate(context.Background(), uuid.New(), target)
		if err != nil {
			t.Fatalf("Evaluate(%s): %v", target, err)
		}
		if v.Level != Clear || len(v.Reasons) != 0 {
			t.Fatalf("target %s: verdict = %s %v, want CLEAR with no reasons", target, v.Level, v.Reasons)
		}
	}
}

func TestEvaluate_PlanAndConsentsBlockPrep(t *testing.T) {
	stub := readyStub()
	stub.plan = PlanStatus{Ready: false, MissingCount: 2}
	stub.consents = ConsentCounts{Signed: 0, Total: 2}

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.InPrep)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Blocked {
		t.Fatalf("level = %s, want BLOCKED", v.Level)
	}
	if !hasMessage(v.Reasons, "Doctor planning: 2 item(s) missing") {
		t.Fatalf("reasons %v missing planning message", v.Reasons)
	}
	if !hasMessage(v.Reasons, "Consents signed: 0 of 2") {
		t.Fatalf("reasons %v missing consent message", v.Reasons)
	}
}

func TestEvaluate_OpenSignInBlocksTheater(t *testing.T) {
	stub := readyStub()
	stub.flags.SignInDone = false

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.InTheater)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Blocked || !hasMessage(v.Reasons, "Sign-In") {
		t.Fatalf("verdict = %s %v, want BLOCKED referencing Sign-In", v.Level, v.Reasons)
	}
}

func TestEvaluate_DischargeNotReadyBlocksCompletion(t *testing.T) {
	stub := readyStub()
	stub.docs[DocRecovery] = NurseDoc{Status: DocFinal, DischargeReady: false}

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.Completed)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Blocked || !hasMessage(v.Reasons, "discharge criteria not met") {
		t.Fatalf("verdict = %s %v, want BLOCKED with discharge reason", v.Level, v.Reasons)
	}
}

func TestEvaluate_IntraOpDiscrepancyBlocksRecovery(t *testing.T) {
	stub := readyStub()
	stub.docs[DocIntraOp] = NurseDoc{Status: DocFinal, Discrepancy: true}

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.Recovery)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Blocked || !hasMessage(v.Reasons, "discrepancy") {
		t.Fatalf("verdict = %s %v, want BLOCKED with discrepancy reason", v.Level, v.Reasons)
	}
}

// A category that hard-blocked an earlier stage becomes advisory once the
// case has moved past the stage that required it.
func TestEvaluate_UnsignedConsentsOnlyWarnAfterTheater(t *testing.T) {
	stub := readyStub()
	stub.consents = ConsentCounts{Signed: 1, Total: 2}

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.Recovery)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Warning {
		t.Fatalf("level = %s, want WARNING", v.Level)
	}
	if !hasMessage(v.Reasons, "Consents signed: 1 of 2") {
		t.Fatalf("reasons %v missing consent message", v.Reasons)
	}
}

func TestEvaluate_ProviderFailureDegradesToWarning(t *testing.T) {
	stub := readyStub()
	stub.planErr = errors.New("planning service down")

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.InPrep)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Warning {
		t.Fatalf("level = %s, want WARNING on collaborator failure", v.Level)
	}
	if !hasMessage(v.Reasons, "status unavailable") {
		t.Fatalf("reasons %v missing unavailable message", v.Reasons)
	}
}

func TestEvaluate_MixedSeveritiesYieldMax(t *testing.T) {
	stub := readyStub()
	stub.consents = ConsentCounts{Signed: 0, Total: 1} // warn for recovery
	stub.docs[DocIntraOp] = NurseDoc{Status: DocFinal, Discrepancy: true}

	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.Recovery)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Blocked {
		t.Fatalf("level = %s, want BLOCKED as max severity", v.Level)
	}
	if len(v.Reasons) != 2 {
		t.Fatalf("reasons = %v, want both findings listed", v.Reasons)
	}
	if blocking := v.BlockingReasons(); len(blocking) != 1 {
		t.Fatalf("blocking reasons = %v, want just the discrepancy", blocking)
	}
}

func TestEvaluate_NoGateForInitialStatus(t *testing.T) {
	stub := &stubProviders{} // nothing ready at all
	v, err := newAggregator(stub).Evaluate(context.Background(), uuid.New(), casestate.Scheduled)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Level != Clear || len(v.Reasons) != 0 {
		t.Fatalf("verdict = %s %v, want CLEAR for ungated target", v.Level, v.Reasons)
	}
}
