package planning

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinops/clinops/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type planRepoPG struct{ pool *pgxpool.Pool }

func NewPlanRepoPG(pool *pgxpool.Pool) PlanRepository { return &planRepoPG{pool: pool} }

func (r *planRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *planRepoPG) Get(ctx context.Context, caseID uuid.UUID) (*DoctorPlan, error) {
	var p DoctorPlan
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT case_id, ready, missing_count, notes, updated_by, updated_at
		FROM doctor_plan WHERE case_id = $1`, caseID).
		Scan(&p.CaseID, &p.Ready, &p.MissingCount, &p.Notes, &p.UpdatedBy, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planRepoPG) Upsert(ctx context.Context, p *DoctorPlan) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctor_plan (case_id, ready, missing_count, notes, updated_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (case_id) DO UPDATE SET
			ready = EXCLUDED.ready,
			missing_count = EXCLUDED.missing_count,
			notes = EXCLUDED.notes,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`,
		p.CaseID, p.Ready, p.MissingCount, p.Notes, p.UpdatedBy, p.UpdatedAt)
	return err
}

type consentRepoPG struct{ pool *pgxpool.Pool }

func NewConsentRepoPG(pool *pgxpool.Pool) ConsentRepository { return &consentRepoPG{pool: pool} }

func (r *consentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *consentRepoPG) Create(ctx context.Context, c *Consent) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO consent (id, case_id, consent_type, signed, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		c.ID, c.CaseID, c.ConsentType, c.Signed, c.CreatedAt)
	return err
}

func (r *consentRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID) ([]*Consent, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, consent_type, signed, signer_name, signed_at, created_at
		FROM consent WHERE case_id = $1 ORDER BY created_at`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Consent
	for rows.Next() {
		var c Consent
		if err := rows.Scan(&c.ID, &c.CaseID, &c.ConsentType, &c.Signed,
			&c.SignerName, &c.SignedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (r *consentRepoPG) Sign(ctx context.Context, id uuid.UUID, signerName string) (*Consent, error) {
	var c Consent
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE consent
		SET signed = TRUE, signer_name = $2, signed_at = NOW()
		WHERE id = $1
		RETURNING id, case_id, consent_type, signed, signer_name, signed_at, created_at`,
		id, signerName).
		Scan(&c.ID, &c.CaseID, &c.ConsentType, &c.Signed, &c.SignerName, &c.SignedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrConsentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
