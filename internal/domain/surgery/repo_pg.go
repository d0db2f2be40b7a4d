package surgery

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type caseRepoPG struct{ pool *pgxpool.Pool }

func NewCaseRepoPG(pool *pgxpool.Pool) CaseRepository { return &caseRepoPG{pool: pool} }

func (r *caseRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const caseCols = `id, patient_id, primary_surgeon_id, theater_id, procedure_name,
	laterality, urgency, status, scheduled_date, scheduled_start, actual_start,
	note, created_at, updated_at`

func scanCase(row pgx.Row) (*SurgicalCase, error) {
	var sc SurgicalCase
	err := row.Scan(&sc.ID, &sc.PatientID, &sc.PrimarySurgeonID, &sc.TheaterID,
		&sc.ProcedureName, &sc.Laterality, &sc.Urgency, &sc.Status,
		&sc.ScheduledDate, &sc.ScheduledStart, &sc.ActualStart,
		&sc.Note, &sc.CreatedAt, &sc.UpdatedAt)
	return &sc, err
}

func (r *caseRepoPG) Create(ctx context.Context, sc *SurgicalCase) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO surgical_case (id, patient_id, primary_surgeon_id, theater_id,
			procedure_name, laterality, urgency, status, scheduled_date,
			scheduled_start, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		sc.ID, sc.PatientID, sc.PrimarySurgeonID, sc.TheaterID, sc.ProcedureName,
		sc.Laterality, sc.Urgency, sc.Status, sc.ScheduledDate, sc.ScheduledStart,
		sc.Note).Scan(&sc.CreatedAt, &sc.UpdatedAt)
}

func (r *caseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*SurgicalCase, error) {
	sc, err := scanCase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+caseCols+` FROM surgical_case WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return sc, err
}

func (r *caseRepoPG) ListByDate(ctx context.Context, date time.Time, theaterID *uuid.UUID) ([]*SurgicalCase, error) {
	query := `SELECT ` + caseCols + ` FROM surgical_case WHERE scheduled_date = $1`
	args := []interface{}{date}
	if theaterID != nil {
		query += ` AND theater_id = $2`
		args = append(args, *theaterID)
	}
	query += ` ORDER BY scheduled_start NULLS LAST, created_at`

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*SurgicalCase
	for rows.Next() {
		sc, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (r *caseRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to casestate.Status, actualStart *time.Time) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE surgical_case
		SET status = $3,
		    actual_start = COALESCE($4, actual_start),
		    updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, from, to, actualStart)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

type auditRepoPG struct{ pool *pgxpool.Pool }

func NewAuditRepoPG(pool *pgxpool.Pool) AuditRepository { return &auditRepoPG{pool: pool} }

func (r *auditRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *auditRepoPG) Record(ctx context.Context, e *TransitionAuditEntry) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO transition_audit (id, case_id, previous_status, new_status, actor, reason, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		e.ID, e.CaseID, e.PreviousStatus, e.NewStatus, e.Actor, e.Reason, e.CreatedAt)
	return err
}

func (r *auditRepoPG) ListByCase(ctx context.Context, caseID uuid.UUID, limit, offset int) ([]*TransitionAuditEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM transition_audit WHERE case_id = $1`, caseID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, case_id, previous_status, new_status, actor, reason, created_at
		FROM transition_audit WHERE case_id = $1 ORDER BY created_at
		LIMIT $2 OFFSET $3`, caseID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*TransitionAuditEntry
	for rows.Next() {
		var e TransitionAuditEntry
		if err := rows.Scan(&e.ID, &e.CaseID, &e.PreviousStatus, &e.NewStatus,
			&e.Actor, &e.Reason, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &e)
	}
	return out, total, rows.Err()
}
