package surgery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/readiness"
)

// ReadinessEvaluator is the aggregator surface the state machine consults
// before committing a transition.
type ReadinessEvaluator interface {
	Evaluate(ctx context.Context, caseID uuid.UUID, target casestate.Status) (*readiness.Verdict, error)
}

type Service struct {
	cases     CaseRepository
	audit     AuditSink
	readiness ReadinessEvaluator
	now       func() time.Time
}

func NewService(cases CaseRepository, audit AuditSink, readiness ReadinessEvaluator) *Service {
	return &Service{cases: cases, audit: audit, readiness: readiness, now: time.Now}
}

func (s *Service) Create(ctx context.Context, sc *SurgicalCase) error {
	if sc.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if sc.PrimarySurgeonID == uuid.Nil {
		return fmt.Errorf("primary_surgeon_id is required")
	}
	if sc.ProcedureName == "" {
		return fmt.Errorf("procedure_name is required")
	}
	if sc.ScheduledDate.IsZero() {
		return fmt.Errorf("scheduled_date is required")
	}
	if sc.Urgency == "" {
		sc.Urgency = Elective
	}
	if !validUrgencies[sc.Urgency] {
		return fmt.Errorf("invalid urgency: %s", sc.Urgency)
	}
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	sc.Status = casestate.Scheduled
	return s.cases.Create(ctx, sc)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SurgicalCase, error) {
	sc, err := s.cases.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		return nil, ErrNotFound
	}
	return sc, nil
}

func (s *Service) ListByDate(ctx context.Context, date time.Time, theaterID *uuid.UUID) ([]*SurgicalCase, error) {
	return s.cases.ListByDate(ctx, date, theaterID)
}

// Status returns just the case's current pipeline status.
func (s *Service) Status(ctx context.Context, id uuid.UUID) (casestate.Status, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return sc.Status, nil
}

// Readiness evaluates the case against a target action, or against its next
// pipeline step when target is empty. A terminal case evaluates CLEAR.
func (s *Service) Readiness(ctx context.Context, id uuid.UUID, target casestate.Status) (*readiness.Verdict, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target == "" {
		next, ok := sc.Status.Next()
		if !ok {
			return &readiness.Verdict{Level: readiness.Clear}, nil
		}
		target = next
	}
	return s.readiness.Evaluate(ctx, id, target)
}

// Transition moves a case one step forward through the pipeline. The status
// write is a compare-and-swap on the previous status, so concurrent callers
// for the same case resolve to exactly one winner.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, action casestate.Status, actor string, reason *string) (*TransitionResult, error) {
	sc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	next, ok := sc.Status.Next()
	if !ok || next != action {
		return nil, &InvalidTransitionError{From: sc.Status, Action: action}
	}

	verdict, err := s.readiness.Evaluate(ctx, id, action)
	if err != nil {
		return nil, err
	}
	if verdict.Level == readiness.Blocked {
		return nil, &TransitionBlockedError{Action: action, Reasons: verdict.Reasons}
	}

	var actualStart *time.Time
	if action == casestate.InTheater && sc.ActualStart == nil {
		t := s.now()
		actualStart = &t
	}

	updated, err := s.cases.UpdateStatus(ctx, id, sc.Status, action, actualStart)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Conditional write matched nothing: either the case vanished or a
		// concurrent transition won the race.
		current, err := s.cases.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, ErrNotFound
		}
		return nil, ErrConcurrentModification
	}

	entry := &TransitionAuditEntry{
		ID:             uuid.New(),
		CaseID:         id,
		PreviousStatus: sc.Status,
		NewStatus:      action,
		Actor:          actor,
		Reason:         reason,
		CreatedAt:      s.now(),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		return nil, fmt.Errorf("transition committed but audit write failed: %w", err)
	}

	return &TransitionResult{PreviousStatus: sc.Status, NewStatus: action}, nil
}
