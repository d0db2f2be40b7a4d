package planning

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrConsentNotFound is returned when a consent ID does not exist.
var ErrConsentNotFound = errors.New("consent not found")

// PlanRepository persists one doctor plan per case.
type PlanRepository interface {
	// Get returns (nil, nil) when no plan has been recorded for the case.
	Get(ctx context.Context, caseID uuid.UUID) (*DoctorPlan, error)
	Upsert(ctx context.Context, p *DoctorPlan) error
}

// ConsentRepository persists per-case consent documents.
type ConsentRepository interface {
	Create(ctx context.Context, c *Consent) error
	ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Consent, error)
	// Sign marks a consent signed; returns ErrConsentNotFound when absent.
	Sign(ctx context.Context, id uuid.UUID, signerName string) (*Consent, error)
}
