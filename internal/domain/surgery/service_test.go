package surgery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/readiness"
)

type mockCaseRepo struct {
	mu    sync.Mutex
	cases map[uuid.UUID]*SurgicalCase
}

func newMockCaseRepo() *mockCaseRepo {
	return &mockCaseRepo{cases: make(map[uuid.UUID]*SurgicalCase)}
}

func (m *mockCaseRepo) Create(_ context.Context, sc *SurgicalCase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *sc
	m.cases[sc.ID] = &clone
	return nil
}

func (m *mockCaseRepo) GetByID(_ context.Context, id uuid.UUID) (*SurgicalCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.cases[id]
	if !ok {
		return nil, nil
	}
	clone := *sc
	return &clone, nil
}

func (m *mockCaseRepo) ListByDate(_ context.Context, date time.Time, theaterID *uuid.UUID) ([]*SurgicalCase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*SurgicalCase
	for _, sc := range m.cases {
		if !sc.ScheduledDate.Equal(date) {
			continue
		}
		if theaterID != nil && (sc.TheaterID == nil || *sc.TheaterID != *theaterID) {
			continue
		}
		clone := *sc
		out = append(out, &clone)
	}
	return out, nil
}

// UpdateStatus mirrors the conditional UPDATE: the swap succeeds only while
// the stored status still matches `from`.
func (m *mockCaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to casestate.Status, actualStart *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc, ok := m.cases[id]
	if !ok || sc.Status != from {
		return false, nil
	}
	sc.Status = to
	if actualStart != nil {
		sc.ActualStart = actualStart
	}
	return true, nil
}

type mockAudit struct {
	mu      sync.Mutex
	entries []*TransitionAuditEntry
}

func (m *mockAudit) Record(_ context.Context, e *TransitionAuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.entries = append(m.entries, &clone)
	return nil
}

func (m *mockAudit) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

type stubEvaluator struct {
	verdict *readiness.Verdict
	err     error
}

func (s *stubEvaluator) Evaluate(context.Context, uuid.UUID, casestate.Status) (*readiness.Verdict, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.verdict, nil
}

func clearEvaluator() *stubEvaluator {
	return &stubEvaluator{verdict: &readiness.Verdict{Level: readiness.Clear}}
}

func seedCase(t *testing.T, svc *Service, status casestate.Status) uuid.UUID {
	t.Helper()
	sc := &SurgicalCase{
		PatientID:        uuid.New(),
		PrimarySurgeonID: uuid.New(),
		ProcedureName:    "Laparoscopic cholecystectomy",
		ScheduledDate:    time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}
	if err := svc.Create(context.Background(), sc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Walk the case forward without gating to reach the wanted start state.
	repo := svc.cases.(*mockCaseRepo)
	repo.mu.Lock()
	repo.cases[sc.ID].Status = status
	repo.mu.Unlock()
	return sc.ID
}

func TestCreate_DefaultsAndValidation(t *testing.T) {
	svc := NewService(newMockCaseRepo(), &mockAudit{}, clearEvaluator())

	sc := &SurgicalCase{
		PatientID:        uuid.New(),
		PrimarySurgeonID: uuid.New(),
		ProcedureName:    "Total knee replacement",
		ScheduledDate:    time.Now(),
	}
	if err := svc.Create(context.Background(), sc); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sc.Status != casestate.Scheduled {
		t.Fatalf("status = %s, want SCHEDULED", sc.Status)
	}
	if sc.Urgency != Elective {
		t.Fatalf("urgency = %s, want ELECTIVE default", sc.Urgency)
	}

	if err := svc.Create(context.Background(), &SurgicalCase{PrimarySurgeonID: uuid.New()}); err == nil {
		t.Fatal("expected error for missing patient_id")
	}
	if err := svc.Create(context.Background(), &SurgicalCase{
		PatientID:        uuid.New(),
		PrimarySurgeonID: uuid.New(),
		ProcedureName:    "x",
		ScheduledDate:    time.Now(),
		Urgency:          "ROUTINE",
	}); err == nil {
		t.Fatal("expected error for invalid urgency")
	}
}

func TestTransition_HappyPathWritesAudit(t *testing.T) {
	audit := &mockAudit{}
	svc := NewService(newMockCaseRepo(), audit, clearEvaluator())
	id := seedCase(t, svc, casestate.Scheduled)

	res, err := svc.Transition(context.Background(), id, casestate.InPrep, "tech-1", nil)
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if res.PreviousStatus != casestate.Scheduled || res.NewStatus != casestate.InPrep {
		t.Fatalf("result = %+v, want SCHEDULED -> IN_PREP", res)
	}
	if audit.count() != 1 {
		t.Fatalf("audit entries = %d, want 1", audit.count())
	}
	e := audit.entries[0]
	if e.PreviousStatus != casestate.Scheduled || e.NewStatus != casestate.InPrep || e.Actor != "tech-1" {
		t.Fatalf("audit entry = %+v", e)
	}
}

func TestTransition_UnknownCase(t *testing.T) {
	svc := NewService(newMockCaseRepo(), &mockAudit{}, clearEvaluator())

	_, err := svc.Transition(context.Background(), uuid.New(), casestate.InPrep, "tech-1", nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestTransition_NoSkippingNoBackward(t *testing.T) {
	svc := NewService(newMockCaseRepo(), &mockAudit{}, clearEvaluator())
	id := seedCase(t, svc, casestate.InPrep)

	var invalid *InvalidTransitionError
	if _, err := svc.Transition(context.Background(), id, casestate.Recovery, "n", nil); !errors.As(err, &invalid) {
		t.Fatalf("skip ahead: err = %v, want InvalidTransitionError", err)
	}
	if _, err := svc.Transition(context.Background(), id, casestate.Scheduled, "n", nil); !errors.As(err, &invalid) {
		t.Fatalf("go backward: err = %v, want InvalidTransitionError", err)
	}
	if _, err := svc.Transition(context.Background(), seedCase(t, svc, casestate.Completed), casestate.Completed, "n", nil); !errors.As(err, &invalid) {
		t.Fatalf("terminal state: err = %v, want InvalidTransitionError", err)
	}
}

// A BLOCKED verdict must reject without any state change or audit entry, and
// repeating the call must yield the same rejection with no drift.
func TestTransition_BlockedIsIdempotentRejection(t *testing.T) {
	audit := &mockAudit{}
	eval := &stubEvaluator{verdict: &readiness.Verdict{
		Level: readiness.Blocked,
		Reasons: []readiness.Reason{
			{Category: readiness.CategoryPlanning, Severity: readiness.Blocked, Message: "Doctor planning: 2 item(s) missing"},
			{Category: readiness.CategoryConsent, Severity: readiness.Blocked, Message: "Consents signed: 0 of 2"},
		},
	}}
	svc := NewService(newMockCaseRepo(), audit, eval)
	id := seedCase(t, svc, casestate.Scheduled)

	for i := 0; i < 2; i++ {
		_, err := svc.Transition(context.Background(), id, casestate.InPrep, "tech-1", nil)
		var blocked *TransitionBlockedError
		if !errors.As(err, &blocked) {
			t.Fatalf("attempt %d: err = %v, want TransitionBlockedError", i, err)
		}
		if len(blocked.Reasons) != 2 {
			t.Fatalf("reasons = %v, want both carried through", blocked.Reasons)
		}
	}

	status, err := svc.Status(context.Background(), id)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if status != casestate.Scheduled {
		t.Fatalf("status = %s, blocked transition must not change state", status)
	}
	if audit.count() != 0 {
		t.Fatalf("audit entries = %d, blocked transition must not write audit", audit.count())
	}
}

func TestTransition_WarningProceeds(t *testing.T) {
	eval := &stubEvaluator{verdict: &readiness.Verdict{
		Level: readiness.Warning,
		Reasons: []readiness.Reason{
			{Category: readiness.CategoryConsent, Severity: readiness.Warning, Message: "Consents signed: 1 of 2"},
		},
	}}
	svc := NewService(newMockCaseRepo(), &mockAudit{}, eval)
	id := seedCase(t, svc, casestate.InTheater)

	res, err := svc.Transition(context.Background(), id, casestate.Recovery, "nurse-2", nil)
	if err != nil {
		t.Fatalf("WARNING must not block: %v", err)
	}
	if res.NewStatus != casestate.Recovery {
		t.Fatalf("new status = %s, want RECOVERY", res.NewStatus)
	}
}

func TestTransition_StampsActualStartEnteringTheater(t *testing.T) {
	svc := NewService(newMockCaseRepo(), &mockAudit{}, clearEvaluator())
	id := seedCase(t, svc, casestate.InPrep)

	if _, err := svc.Transition(context.Background(), id, casestate.InTheater, "tech-1", nil); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	sc, err := svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if sc.ActualStart == nil {
		t.Fatal("actual_start should be stamped on entering IN_THEATER")
	}
}

func TestTransition_ConcurrentCallsOneWinner(t *testing.T) {
	audit := &mockAudit{}
	svc := NewService(newMockCaseRepo(), audit, clearEvaluator())
	id := seedCase(t, svc, casestate.Scheduled)

	results := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Transition(context.Background(), id, casestate.InPrep, "tech-1", nil)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConcurrentModification):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Fatalf("successes = %d, conflicts = %d, want exactly one of each", successes, conflicts)
	}

	status, _ := svc.Status(context.Background(), id)
	if status != casestate.InPrep {
		t.Fatalf("status = %s, want IN_PREP exactly once", status)
	}
	if audit.count() != 1 {
		t.Fatalf("audit entries = %d, want 1", audit.count())
	}
}

func TestReadiness_DefaultsToNextStep(t *testing.T) {
	eval := &stubEvaluator{verdict: &readiness.Verdict{Level: readiness.Warning}}
	svc := NewService(newMockCaseRepo(), &mockAudit{}, eval)
	id := seedCase(t, svc, casestate.Scheduled)

	v, err := svc.Readiness(context.Background(), id, "")
	if err != nil {
		t.Fatalf("Readiness: %v", err)
	}
	if v.Level != readiness.Warning {
		t.Fatalf("level = %s, want evaluator verdict", v.Level)
	}

	// Terminal cases have no next step to gate.
	done := seedCase(t, svc, casestate.Completed)
	v, err = svc.Readiness(context.Background(), done, "")
	if err != nil {
		t.Fatalf("Readiness terminal: %v", err)
	}
	if v.Level != readiness.Clear {
		t.Fatalf("terminal level = %s, want CLEAR", v.Level)
	}
}
