package nursedoc

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

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const docCols = `case_id, phase, status, discrepancy, discharge_ready, photo_count, updated_by, updated_at`

func scanDoc(row pgx.Row) (*NursingDoc, error) {
	var d NursingDoc
	err := row.Scan(&d.CaseID, &d.Phase, &d.Status, &d.Discrepancy,
		&d.DischargeReady, &d.PhotoCount, &d.UpdatedBy, &d.UpdatedAt)
	return &d, err
}

func (r *repoPG) GetDoc(ctx context.Context, caseID uuid.UUID, phase Phase) (*NursingDoc, error) {
	d, err := scanDoc(r.conn(ctx).QueryRow(ctx,
		`SELECT `+docCols+` FROM nursing_doc WHERE case_id = $1 AND phase = $2`,
		caseID, phase))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *repoPG) ListDocs(ctx context.Context, caseID uuid.UUID) ([]*NursingDoc, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+docCols+` FROM nursing_doc WHERE case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*NursingDoc
	for rows.Next() {
		d, err := scanDoc(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *repoPG) UpsertDoc(ctx context.Context, d *NursingDoc) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO nursing_doc (case_id, phase, status, discrepancy, discharge_ready, photo_count, updated_by, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (case_id, phase) DO UPDATE SET
			status = EXCLUDED.status,
			discrepancy = EXCLUDED.discrepancy,
			discharge_ready = EXCLUDED.discharge_ready,
			photo_count = EXCLUDED.photo_count,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`,
		d.CaseID, d.Phase, d.Status, d.Discrepancy, d.DischargeReady,
		d.PhotoCount, d.UpdatedBy, d.UpdatedAt)
	return err
}

func (r *repoPG) GetNote(ctx context.Context, caseID uuid.UUID) (*OperativeNote, error) {
	var n OperativeNote
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT case_id, status, updated_by, updated_at
		FROM operative_note WHERE case_id = $1`, caseID).
		Scan(&n.CaseID, &n.Status, &n.UpdatedBy, &n.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *repoPG) UpsertNote(ctx context.Context, n *OperativeNote) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO operative_note (case_id, status, updated_by, updated_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (case_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at`,
		n.CaseID, n.Status, n.UpdatedBy, n.UpdatedAt)
	return err
}
