package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

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

const phaseCols = `case_id, phase, items, completed, completed_at, completed_by_role, created_at, updated_at`

func scanPhase(row pgx.Row) (*PhaseState, error) {
	var s PhaseState
	var raw []byte
	err := row.Scan(&s.CaseID, &s.Phase, &raw, &s.Completed, &s.CompletedAt,
		&s.CompletedByRole, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &s.Items); err != nil {
		return nil, fmt.Errorf("decode checklist items: %w", err)
	}
	return &s, nil
}

func (r *repoPG) Get(ctx context.Context, caseID uuid.UUID, phase Phase) (*PhaseState, error) {
	s, err := scanPhase(r.conn(ctx).QueryRow(ctx,
		`SELECT `+phaseCols+` FROM checklist_phase WHERE case_id = $1 AND phase = $2`,
		caseID, phase))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *repoPG) GetAll(ctx context.Context, caseID uuid.UUID) ([]*PhaseState, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+phaseCols+` FROM checklist_phase WHERE case_id = $1`, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*PhaseState
	for rows.Next() {
		s, err := scanPhase(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repoPG) SaveDraft(ctx context.Context, s *PhaseState) error {
	raw, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode checklist items: %w", err)
	}
	// The conditional upsert refuses to touch a finalized row.
	tag, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO checklist_phase (case_id, phase, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id, phase) DO UPDATE
			SET items = EXCLUDED.items, updated_at = NOW()
			WHERE checklist_phase.completed = FALSE`,
		s.CaseID, s.Phase, raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPhaseFinalized
	}
	return nil
}

func (r *repoPG) Finalize(ctx context.Context, s *PhaseState) error {
	raw, err := json.Marshal(s.Items)
	if err != nil {
		return fmt.Errorf("encode checklist items: %w", err)
	}
	// Ensure the row exists, then flip completed with a compare-and-swap so
	// concurrent finalize calls yield exactly one success.
	if _, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO checklist_phase (case_id, phase, items)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id, phase) DO NOTHING`,
		s.CaseID, s.Phase, raw); err != nil {
		return err
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE checklist_phase
		SET items = $3, completed = TRUE, completed_at = $4, completed_by_role = $5, updated_at = NOW()
		WHERE case_id = $1 AND phase = $2 AND completed = FALSE`,
		s.CaseID, s.Phase, raw, s.CompletedAt, s.CompletedByRole)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPhaseFinalized
	}
	return nil
}
