package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

const campaignColumns = `id, owner_id, title, description, category, target_amount,
	raised_amount, pledged_amount, start_date, end_date, status, revision,
	organizer_name, organizer_phone, organizer_location, relationship, beneficiary_name,
	created_at, updated_at`

type CampaignRepository struct {
	db *sql.DB
}

func NewCampaignRepository(db *sql.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (
			id, owner_id, title, description, category, target_amount,
			start_date, end_date, status,
			organizer_name, organizer_phone, organizer_location, relationship, beneficiary_name,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		c.ID, c.OwnerID, c.Title, c.Description, c.Category, c.TargetAmount,
		c.StartDate, c.EndDate, c.Status,
		c.OrganizerName, c.OrganizerPhone, c.OrganizerLocation, c.Relationship, c.BeneficiaryName,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	c, err := scanCampaign(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("GetByID: %w", domain.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return c, nil
}

// List returns campaigns filtered by status and optionally by category,
// newest first.
func (r *CampaignRepository) List(ctx context.Context, status domain.CampaignStatus, category string) ([]domain.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1`
	args := []any{status}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows, "List")
}

func (r *CampaignRepository) ListAll(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListAll: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows, "ListAll")
}

func (r *CampaignRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ListByOwner: %w", err)
	}
	defer rows.Close()

	return collectCampaigns(rows, "ListByOwner")
}

// UpdateStatus is the administrator transition (approve/suspend/complete).
// It bumps the revision so viewers pick up the change through live sync.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) (*domain.FundingSnapshot, error) {
	var snap domain.FundingSnapshot
	err := r.db.QueryRowContext(ctx,
		`UPDATE campaigns
		SET status = $2, revision = revision + 1, updated_at = now()
		WHERE id = $1
		RETURNING id, raised_amount, pledged_amount, status, revision`,
		id, status,
	).Scan(&snap.CampaignID, &snap.RaisedAmount, &snap.PledgedAmount, &snap.Status, &snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("UpdateStatus: %w", domain.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("UpdateStatus: %w", err)
	}
	return &snap, nil
}

type PlatformStats struct {
	TotalRaised      int64
	TotalPledged     int64
	TotalCampaigns   int
	PendingCampaigns int
	TotalUsers       int
}

func (r *CampaignRepository) Stats(ctx context.Context) (*PlatformStats, error) {
	var s PlatformStats
	err := r.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(raised_amount), 0),
			COALESCE(SUM(pledged_amount), 0),
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'PENDING')
		FROM campaigns`,
	).Scan(&s.TotalRaised, &s.TotalPledged, &s.TotalCampaigns, &s.PendingCampaigns)
	if err != nil {
		return nil, fmt.Errorf("Stats: campaigns: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&s.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("Stats: users: %w", err)
	}
	return &s, nil
}

func collectCampaigns(rows *sql.Rows, op string) ([]domain.Campaign, error) {
	var campaigns []domain.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		campaigns = append(campaigns, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return campaigns, nil
}

func scanCampaign(s scanner) (*domain.Campaign, error) {
	var c domain.Campaign
	err := s.Scan(
		&c.ID, &c.OwnerID, &c.Title, &c.Description, &c.Category, &c.TargetAmount,
		&c.RaisedAmount, &c.PledgedAmount, &c.StartDate, &c.EndDate, &c.Status, &c.Revision,
		&c.OrganizerName, &c.OrganizerPhone, &c.OrganizerLocation, &c.Relationship, &c.BeneficiaryName,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
