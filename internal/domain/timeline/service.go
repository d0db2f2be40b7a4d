package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// Service implements the timeline store: incremental per-field writes with
// chain-order validation, and a derived read view.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// View returns the timeline read shape for a case. An untouched case yields
// an empty record with every expected-for-status field reported missing.
func (s *Service) View(ctx context.Context, caseID uuid.UUID, status casestate.Status) (*View, error) {
	rec, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{CaseID: caseID}
	}
	return NewView(rec, status), nil
}

// Update applies one or more field timestamps in a single all-or-nothing
// batch. Unknown fields fail the batch with ErrUnknownField; ordering
// violations fail it with a ValidationError listing every offending field.
func (s *Service) Update(ctx context.Context, caseID uuid.UUID, updates map[Field]time.Time) (*Record, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("no timeline fields in update")
	}
	for f := range updates {
		if !f.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, f)
		}
	}

	rec, err := s.repo.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = &Record{CaseID: caseID}
	}

	// Apply to a scratch copy first; nothing persists unless the whole
	// batch validates.
	next := *rec
	for f, t := range updates {
		next.set(f, t.UTC())
	}
	if violations := validateOrder(&next, updates); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	next.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// validateOrder walks the canonical chain and compares each present field
// against the nearest earlier present field. A violation is attributed to
// whichever side of the pair the batch touched.
func validateOrder(rec *Record, updates map[Field]time.Time) []FieldViolation {
	var violations []FieldViolation
	var prevField Field
	var prev *time.Time
	for _, f := range fieldOrder {
		t := rec.Get(f)
		if t == nil {
			continue
		}
		if prev != nil && t.Before(*prev) {
			offender := f
			if _, touched := updates[f]; !touched {
				offender = prevField
			}
			violations = append(violations, FieldViolation{
				Field:  offender,
				Reason: fmt.Sprintf("%s must not precede %s", f, prevField),
			})
		}
		prevField = f
		prev = t
	}
	return violations
}
