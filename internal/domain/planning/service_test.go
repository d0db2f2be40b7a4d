package planning

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockPlanRepo struct {
	mu    sync.Mutex
	plans map[uuid.UUID]*DoctorPlan
}

func newMockPlanRepo() *mockPlanRepo {
	return &mockPlanRepo{plans: make(map[uuid.UUID]*DoctorPlan)}
}

func (m *mockPlanRepo) Get(_ context.Context, caseID uuid.UUID) (*DoctorPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[caseID]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *mockPlanRepo) Upsert(_ context.Context, p *DoctorPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.plans[p.CaseID] = &clone
	return nil
}

type mockConsentRepo struct {
	mu       sync.Mutex
	consents map[uuid.UUID]*Consent
}

func newMockConsentRepo() *mockConsentRepo {
	return &mockConsentRepo{consents: make(map[uuid.UUID]*Consent)}
}

func (m *mockConsentRepo) Create(_ context.Context, c *Consent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.consents[c.ID] = &clone
	return nil
}

func (m *mockConsentRepo) ListByCase(_ context.Context, caseID uuid.UUID) ([]*Consent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Consent
	for _, c := range m.consents {
		if c.CaseID == caseID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *mockConsentRepo) Sign(_ context.Context, id uuid.UUID, signerName string) (*Consent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consents[id]
	if !ok {
		return nil, ErrConsentNotFound
	}
	now := time.Now()
	c.Signed = true
	c.SignerName = &signerName
	c.SignedAt = &now
	clone := *c
	return &clone, nil
}

func TestPlan_UnrecordedReadsNotReady(t *testing.T) {
	svc := NewService(newMockPlanRepo(), newMockConsentRepo())

	p, err := svc.Plan(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if p.Ready {
		t.Fatal("unrecorded plan must read as not ready")
	}
}

func TestUpsertPlan_Validation(t *testing.T) {
	svc := NewService(newMockPlanRepo(), newMockConsentRepo())

	if err := svc.UpsertPlan(context.Background(), &DoctorPlan{}); err == nil {
		t.Fatal("expected error for missing case_id")
	}
	if err := svc.UpsertPlan(context.Background(), &DoctorPlan{
		CaseID: uuid.New(), Ready: true, MissingCount: 3,
	}); err == nil {
		t.Fatal("a ready plan with missing items must be rejected")
	}

	caseID := uuid.New()
	if err := svc.UpsertPlan(context.Background(), &DoctorPlan{
		CaseID: caseID, Ready: false, MissingCount: 2, UpdatedBy: "dr-jones",
	}); err != nil {
		t.Fatalf("UpsertPlan: %v", err)
	}
	p, _ := svc.Plan(context.Background(), caseID)
	if p.MissingCount != 2 || p.Ready {
		t.Fatalf("plan = %+v, want not ready with 2 missing", p)
	}
}

func TestConsentCounts(t *testing.T) {
	svc := NewService(newMockPlanRepo(), newMockConsentRepo())
	caseID := uuid.New()

	surgical, err := svc.AddConsent(context.Background(), caseID, "surgical")
	if err != nil {
		t.Fatalf("AddConsent: %v", err)
	}
	if _, err := svc.AddConsent(context.Background(), caseID, "anesthesia"); err != nil {
		t.Fatalf("AddConsent: %v", err)
	}

	counts, err := svc.ConsentCounts(context.Background(), caseID)
	if err != nil {
		t.Fatalf("ConsentCounts: %v", err)
	}
	if counts.Signed != 0 || counts.Total != 2 {
		t.Fatalf("counts = %+v, want 0 of 2", counts)
	}

	signed, err := svc.SignConsent(context.Background(), surgical.ID, "J. Patient")
	if err != nil {
		t.Fatalf("SignConsent: %v", err)
	}
	if !signed.Signed || signed.SignedAt == nil {
		t.Fatalf("consent = %+v, want signed with timestamp", signed)
	}

	counts, _ = svc.ConsentCounts(context.Background(), caseID)
	if counts.Signed != 1 || counts.Total != 2 {
		t.Fatalf("counts = %+v, want 1 of 2", counts)
	}
}

func TestSignConsent_UnknownID(t *testing.T) {
	svc := NewService(newMockPlanRepo(), newMockConsentRepo())

	_, err := svc.SignConsent(context.Background(), uuid.New(), "J. Patient")
	if !errors.Is(err, ErrConsentNotFound) {
		t.Fatalf("err = %v, want ErrConsentNotFound", err)
	}
}
