package timeline

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

const timelineCols = `case_id, wheels_in, anesthesia_start, incision, closure,
	anesthesia_end, wheels_out, recovery_in, recovery_out, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.CaseID, &rec.WheelsIn, &rec.AnesthesiaStart, &rec.Incision,
		&rec.Closure, &rec.AnesthesiaEnd, &rec.WheelsOut, &rec.RecoveryIn,
		&rec.RecoveryOut, &rec.UpdatedAt)
	return &rec, err
}

func (r *repoPG) Get(ctx context.Context, caseID uuid.UUID) (*Record, error) {
	rec, err := scanRecord(r.conn(ctx).QueryRow(ctx,
		`SELECT `+timelineCols+` FROM operative_timeline WHERE case_id = $1`, caseID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

func (r *repoPG) Save(ctx context.Context, rec *Record) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO operative_timeline (case_id, wheels_in, anesthesia_start, incision, closure,
			anesthesia_end, wheels_out, recovery_in, recovery_out, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (case_id) DO UPDATE SET
			wheels_in = EXCLUDED.wheels_in,
			anesthesia_start = EXCLUDED.anesthesia_start,
			incision = EXCLUDED.incision,
			closure = EXCLUDED.closure,
			anesthesia_end = EXCLUDED.anesthesia_end,
			wheels_out = EXCLUDED.wheels_out,
			recovery_in = EXCLUDED.recovery_in,
			recovery_out = EXCLUDED.recovery_out,
			updated_at = EXCLUDED.updated_at`,
		rec.CaseID, rec.WheelsIn, rec.AnesthesiaStart, rec.Incision, rec.Closure,
		rec.AnesthesiaEnd, rec.WheelsOut, rec.RecoveryIn, rec.RecoveryOut, rec.UpdatedAt)
	return err
}
