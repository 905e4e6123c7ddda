package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

const intentColumns = `id, user_id, campaign_id, amount, payment_method, status,
	failure_reason, created_at, updated_at`

type IntentRepository struct {
	db *sql.DB
}

func NewIntentRepository(db *sql.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

func (r *IntentRepository) Create(ctx context.Context, i *domain.DonationIntent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donation_intents (id, user_id, campaign_id, amount, payment_method, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		i.ID, i.UserID, i.CampaignID, i.Amount, i.PaymentMethod, i.Status, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *IntentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DonationIntent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+intentColumns+` FROM donation_intents WHERE id = $1`, id)
	i, err := scanIntent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrIntentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return i, nil
}

// MarkConfirmed transitions a pending intent to confirmed. A failed intent is
// terminal, so the pending guard keeps a late success report from resurrecting
// one.
func (r *IntentRepository) MarkConfirmed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE donation_intents
		SET status = 'confirmed', updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return fmt.Errorf("MarkConfirmed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkConfirmed: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("MarkConfirmed: %w", domain.ErrIntentNotPending)
	}
	return nil
}

func (r *IntentRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE donation_intents
		SET status = 'failed', failure_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'pending'`, id, reason)
	if err != nil {
		return fmt.Errorf("MarkFailed: %w", err)
	}
	return nil
}

func scanIntent(s scanner) (*domain.DonationIntent, error) {
	var i domain.DonationIntent
	err := s.Scan(
		&i.ID, &i.UserID, &i.CampaignID, &i.Amount, &i.PaymentMethod, &i.Status,
		&i.FailureReason, &i.CreatedAt, &i.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
