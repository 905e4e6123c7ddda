package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/insights"
)

// HistoryRepository reads a user's funding history joined with campaign
// categories, shaped for the insights projector.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// DonationHistory excludes fulfillment donations: their amount is carried by
// the fulfilled pledge so impact counts it once.
func (r *HistoryRepository) DonationHistory(ctx context.Context, userID uuid.UUID) ([]insights.DonationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT d.amount, c.category, d.created_at
		FROM donations d
		JOIN campaigns c ON c.id = d.campaign_id
		WHERE d.user_id = $1 AND d.fulfills_pledge_id IS NULL
		ORDER BY d.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("DonationHistory: %w", err)
	}
	defer rows.Close()

	var records []insights.DonationRecord
	for rows.Next() {
		var rec insights.DonationRecord
		if err := rows.Scan(&rec.Amount, &rec.Category, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("DonationHistory: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("DonationHistory: rows: %w", err)
	}
	return records, nil
}

func (r *HistoryRepository) PledgeHistory(ctx context.Context, userID uuid.UUID) ([]insights.PledgeRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT p.amount, c.category, p.status, p.created_at
		FROM pledges p
		JOIN campaigns c ON c.id = p.campaign_id
		WHERE p.user_id = $1
		ORDER BY p.created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("PledgeHistory: %w", err)
	}
	defer rows.Close()

	var records []insights.PledgeRecord
	for rows.Next() {
		var rec insights.PledgeRecord
		if err := rows.Scan(&rec.Amount, &rec.Category, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("PledgeHistory: scan: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("PledgeHistory: rows: %w", err)
	}
	return records, nil
}
