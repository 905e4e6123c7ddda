// Package ledger owns campaign funding totals. Every mutation is a single
// atomic UPDATE with an in-place increment, so concurrent applies against the
// same campaign serialize on the row lock and totals never lose an update.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

type Kind string

const (
	KindDonation Kind = "donation"
	KindPledge   Kind = "pledge"
)

type Ledger struct {
	db *sql.DB
}

func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Apply credits amount to the campaign's raised (donation) or pledged
// (pledge) total and bumps the revision. It returns the post-mutation
// snapshot. Callers are responsible for applying at most once per funding
// event; the ingestion layer's dedup keys guarantee that.
func (l *Ledger) Apply(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, kind Kind, amount int64) (*domain.FundingSnapshot, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Apply: %w", domain.ErrInvalidAmount)
	}
	snap, err := l.mutate(ctx, tx, campaignID, kind, amount)
	if err != nil {
		return nil, fmt.Errorf("Apply: %w", err)
	}
	return snap, nil
}

// Reverse subtracts a previously applied amount. It exists for pledge expiry,
// the only path that shrinks pledgedAmount.
func (l *Ledger) Reverse(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, kind Kind, amount int64) (*domain.FundingSnapshot, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Reverse: %w", domain.ErrInvalidAmount)
	}
	snap, err := l.mutate(ctx, tx, campaignID, kind, -amount)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}
	return snap, nil
}

// Fulfill moves amount from pledged to raised in one revision bump, so a
// fulfilled pledge is never visible as both pledged and raised at once.
func (l *Ledger) Fulfill(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, amount int64) (*domain.FundingSnapshot, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("Fulfill: %w", domain.ErrInvalidAmount)
	}
	snap, err := scanSnapshot(tx.QueryRowContext(ctx,
		`UPDATE campaigns
		SET raised_amount = raised_amount + $2,
			pledged_amount = pledged_amount - $2,
			revision = revision + 1,
			updated_at = now()
		WHERE id = $1
		RETURNING id, raised_amount, pledged_amount, status, revision`,
		campaignID, amount))
	if err != nil {
		return nil, fmt.Errorf("Fulfill: %w", err)
	}
	return snap, nil
}

// Snapshot reads the current totals without mutating. Live sync uses it for
// the initial state of a new subscription and for re-fetch after a dropped
// delivery channel.
func (l *Ledger) Snapshot(ctx context.Context, campaignID uuid.UUID) (*domain.FundingSnapshot, error) {
	var snap domain.FundingSnapshot
	err := l.db.QueryRowContext(ctx,
		`SELECT id, raised_amount, pledged_amount, status, revision
		FROM campaigns WHERE id = $1`, campaignID,
	).Scan(&snap.CampaignID, &snap.RaisedAmount, &snap.PledgedAmount, &snap.Status, &snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("Snapshot: %w", domain.ErrCampaignNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	return &snap, nil
}

func (l *Ledger) mutate(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, kind Kind, delta int64) (*domain.FundingSnapshot, error) {
	var column string
	switch kind {
	case KindDonation:
		column = "raised_amount"
	case KindPledge:
		column = "pledged_amount"
	default:
		return nil, fmt.Errorf("unknown ledger kind %q", kind)
	}

	query := `UPDATE campaigns
		SET ` + column + ` = ` + column + ` + $2,
			revision = revision + 1,
			updated_at = now()
		WHERE id = $1
		RETURNING id, raised_amount, pledged_amount, status, revision`

	return scanSnapshot(tx.QueryRowContext(ctx, query, campaignID, delta))
}

func scanSnapshot(row *sql.Row) (*domain.FundingSnapshot, error) {
	var snap domain.FundingSnapshot
	err := row.Scan(&snap.CampaignID, &snap.RaisedAmount, &snap.PledgedAmount, &snap.Status, &snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
