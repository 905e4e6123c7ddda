package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

const donationColumns = `id, intent_id, campaign_id, user_id, amount, payment_method,
	fulfills_pledge_id, created_at`

type DonationRepository struct {
	db *sql.DB
}

func NewDonationRepository(db *sql.DB) *DonationRepository {
	return &DonationRepository{db: db}
}

// Create inserts the donation unless one already exists for the same intent.
// The returned bool reports whether a row was written; false means a retry or
// redelivered confirmation raced us and the original donation stands.
func (r *DonationRepository) Create(ctx context.Context, tx *sql.Tx, d *domain.Donation) (bool, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO donations (id, intent_id, campaign_id, user_id, amount, payment_method, fulfills_pledge_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (intent_id) DO NOTHING`,
		d.ID, d.IntentID, d.CampaignID, d.UserID, d.Amount, d.PaymentMethod, d.FulfillsPledgeID, d.CreatedAt,
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

func (r *DonationRepository) GetByIntentID(ctx context.Context, intentID uuid.UUID) (*domain.Donation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+donationColumns+` FROM donations WHERE intent_id = $1`, intentID)
	d, err := scanDonation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetByIntentID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByIntentID: %w", err)
	}
	return d, nil
}

func (r *DonationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Donation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+donationColumns+` FROM donations
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("ListByUser: %w", err)
	}
	defer rows.Close()

	var donations []domain.Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByUser: scan: %w", err)
		}
		donations = append(donations, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByUser: rows: %w", err)
	}
	return donations, nil
}

// SumByCampaign is the audit-side check that raised_amount equals the sum of
// applied donations.
func (r *DonationRepository) SumByCampaign(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM donations WHERE campaign_id = $1`, campaignID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("SumByCampaign: %w", err)
	}
	return sum, nil
}

func scanDonation(s scanner) (*domain.Donation, error) {
	var d domain.Donation
	err := s.Scan(
		&d.ID, &d.IntentID, &d.CampaignID, &d.UserID, &d.Amount, &d.PaymentMethod,
		&d.FulfillsPledgeID, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
