package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

const pledgeColumns = `id, user_id, campaign_id, amount, due_date, status,
	idempotency_key, created_at, updated_at`

type PledgeRepository struct {
	db *sql.DB
}

func NewPledgeRepository(db *sql.DB) *PledgeRepository {
	return &PledgeRepository{db: db}
}

// Create inserts the pledge unless the idempotency key was already used. The
// returned bool reports whether a row was written.
func (r *PledgeRepository) Create(ctx context.Context, tx *sql.Tx, p *domain.Pledge) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO pledges (id, user_id, campaign_id, amount, due_date, status, idempotency_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (idempotency_key) DO NOTHING`,
		p.ID, p.UserID, p.CampaignID, p.Amount, p.DueDate, p.Status, p.IdempotencyKey, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("Create: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Create: rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *PledgeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Pledge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges WHERE id = $1`, id)
	p, err := scanPledge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrPledgeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return p, nil
}

func (r *PledgeRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Pledge, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges WHERE idempotency_key = $1`, key)
	p, err := scanPledge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetByIdempotencyKey: %w", domain.ErrPledgeNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByIdempotencyKey: %w", err)
	}
	return p, nil
}

func (r *PledgeRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Pledge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	return collectPledges(rows, "ListByUser")
}

// TransitionStatus moves the pledge from one of the given statuses to the
// target status. The returned bool is false when the pledge was not in any of
// the from statuses, which makes repeated lifecycle transitions no-ops.
func (r *PledgeRepository) TransitionStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from []domain.PledgeStatus, to domain.PledgeStatus) (bool, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	var exec interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	} = r.db
	if tx != nil {
		exec = tx
	}

	res, err := exec.ExecContext(ctx,
		`UPDATE pledges SET status = $2, updated_at = now()
		WHERE id = $1 AND status = ANY($3)`,
		id, to, pq.Array(states),
	)
	if err != nil {
		return false, fmt.Errorf("TransitionStatus: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("TransitionStatus: rows affected: %w", err)
	}
	return n == 1, nil
}

// ListOverdue returns outstanding pledges whose due date passed before the
// cutoff, oldest first.
func (r *PledgeRepository) ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Pledge, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges
		WHERE status IN ('PENDING', 'DUE') AND due_date < $1
		ORDER BY due_date LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("ListOverdue: %w", err)
	}
	defer rows.Close()

	return collectPledges(rows, "ListOverdue")
}

// MarkDue flips PENDING pledges whose due date has arrived to DUE. Returns the
// number of pledges transitioned.
func (r *PledgeRepository) MarkDue(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE pledges SET status = 'DUE', updated_at = now()
		WHERE status = 'PENDING' AND due_date <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("MarkDue: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("MarkDue: rows affected: %w", err)
	}
	return n, nil
}

func collectPledges(rows *sql.Rows, op string) ([]domain.Pledge, error) {
	var pledges []domain.Pledge
	for rows.Next() {
		p, err := scanPledge(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		pledges = append(pledges, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return pledges, nil
}

func scanPledge(s scanner) (*domain.Pledge, error) {
	var p domain.Pledge
	err := s.Scan(
		&p.ID, &p.UserID, &p.CampaignID, &p.Amount, &p.DueDate, &p.Status,
		&p.IdempotencyKey, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
