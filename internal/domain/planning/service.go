package planning

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	plans    PlanRepository
	consents ConsentRepository
	now      func() time.Time
}

func NewService(plans PlanRepository, consents ConsentRepository) *Service {
	return &Service{plans: plans, consents: consents, now: time.Now}
}

// Plan returns the doctor plan for a case. An unrecorded plan reads as
// not-ready with zero known missing items.
func (s *Service) Plan(ctx context.Context, caseID uuid.UUID) (*DoctorPlan, error) {
	p, err := s.plans.Get(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return &DoctorPlan{CaseID: caseID}, nil
	}
	return p, nil
}

func (s *Service) UpsertPlan(ctx context.Context, p *DoctorPlan) error {
	if p.CaseID == uuid.Nil {
		return fmt.Errorf("case_id is required")
	}
	if p.Ready && p.MissingCount > 0 {
		return fmt.Errorf("a ready plan cannot report missing items")
	}
	if p.MissingCount < 0 {
		return fmt.Errorf("missing_count must not be negative")
	}
	p.UpdatedAt = s.now()
	return s.plans.Upsert(ctx, p)
}

func (s *Service) AddConsent(ctx context.Context, caseID uuid.UUID, consentType string) (*Consent, error) {
	if consentType == "" {
		return nil, fmt.Errorf("consent_type is required")
	}
	c := &Consent{
		ID:          uuid.New(),
		CaseID:      caseID,
		ConsentType: consentType,
		CreatedAt:   s.now(),
	}
	if err := s.consents.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) SignConsent(ctx context.Context, id uuid.UUID, signerName string) (*Consent, error) {
	if signerName == "" {
		return nil, fmt.Errorf("signer_name is required")
	}
	return s.consents.Sign(ctx, id, signerName)
}

func (s *Service) ListConsents(ctx context.Context, caseID uuid.UUID) ([]*Consent, error) {
	return s.consents.ListByCase(ctx, caseID)
}

// ConsentCounts tallies signed vs total consents for a case.
func (s *Service) ConsentCounts(ctx context.Context, caseID uuid.UUID) (ConsentCounts, error) {
	consents, err := s.consents.ListByCase(ctx, caseID)
	if err != nil {
		return ConsentCounts{}, err
	}
	counts := ConsentCounts{Total: len(consents)}
	for _, c := range consents {
		if c.Signed {
			counts.Signed++
		}
	}
	return counts, nil
}
