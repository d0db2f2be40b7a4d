package checklist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service implements the checklist store: draft saves are free-form partial
// writes, finalize validates against the phase template and freezes the phase.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Status returns the aggregate checklist view for a case. It never fails for
// an unknown case: untouched phases come back in their unstarted shape.
func (s *Service) Status(ctx context.Context, caseID uuid.UUID) (*CaseStatus, error) {
	states, err := s.repo.GetAll(ctx, caseID)
	if err != nil {
		return nil, err
	}
	byPhase := make(map[Phase]*PhaseState, len(states))
	for _, st := range states {
		byPhase[st.Phase] = st
	}

	cs := &CaseStatus{CaseID: caseID}
	for _, p := range Phases {
		ps := PhaseStatus{Items: NewPhaseState(caseID, p).Items}
		if st, ok := byPhase[p]; ok {
			ps = PhaseStatus{
				Started:         true,
				Completed:       st.Completed,
				CompletedAt:     st.CompletedAt,
				CompletedByRole: st.CompletedByRole,
				Items:           st.Items,
			}
		}
		switch p {
		case SignIn:
			cs.SignIn = ps
		case TimeOut:
			cs.TimeOut = ps
		case SignOut:
			cs.SignOut = ps
		}
	}
	return cs, nil
}

// SaveDraft merges a partial item set into the phase state. Any subset and
// ordering of template items is accepted; completeness is not required.
func (s *Service) SaveDraft(ctx context.Context, caseID uuid.UUID, phase Phase, items []Item) (*PhaseState, error) {
	state, err := s.loadMutable(ctx, caseID, phase, items)
	if err != nil {
		return nil, err
	}
	state.UpdatedAt = s.now()
	if err := s.repo.SaveDraft(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Finalize merges items, verifies every template item is confirmed, and
// freezes the phase. The phase is immutable afterwards.
func (s *Service) Finalize(ctx context.Context, caseID uuid.UUID, phase Phase, items []Item, actorRole string) (*PhaseState, error) {
	state, err := s.loadMutable(ctx, caseID, phase, items)
	if err != nil {
		return nil, err
	}
	if missing := state.Unconfirmed(); len(missing) > 0 {
		return nil, &IncompleteChecklistError{Phase: phase, Missing: missing}
	}

	now := s.now()
	state.Completed = true
	state.CompletedAt = &now
	state.CompletedByRole = &actorRole
	state.UpdatedAt = now
	if err := s.repo.Finalize(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// loadMutable loads the phase state (or its unstarted shape), rejects writes
// to finalized phases, and merges the submitted items by template key.
func (s *Service) loadMutable(ctx context.Context, caseID uuid.UUID, phase Phase, items []Item) (*PhaseState, error) {
	if !phase.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPhase, phase)
	}
	state, err := s.repo.Get(ctx, caseID, phase)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = NewPhaseState(caseID, phase)
	}
	if state.Completed {
		return nil, ErrPhaseFinalized
	}

	byKey := make(map[string]int, len(state.Items))
	for i, it := range state.Items {
		byKey[it.Key] = i
	}
	for _, in := range items {
		idx, ok := byKey[in.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownItem, in.Key)
		}
		state.Items[idx].Confirmed = in.Confirmed
		if in.Note != nil {
			state.Items[idx].Note = in.Note
		}
	}
	return state, nil
}
