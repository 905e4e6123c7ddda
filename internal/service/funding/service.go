// Package funding is the ingestion layer: it validates donation and pledge
// submissions, records them exactly once logically, and drives the ledger.
// Transport retries and redelivered confirmations collapse on dedup keys
// before any ledger apply.
package funding

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/config"
	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/ledger"
	"github.com/dmugisha/fundflow-backend/internal/livesync"
)

type campaignRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
}

type intentRepo interface {
	Create(ctx context.Context, i *domain.DonationIntent) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DonationIntent, error)
	MarkConfirmed(ctx context.Context, tx *sql.Tx, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
}

type donationRepo interface {
	Create(ctx context.Context, tx *sql.Tx, d *domain.Donation) (bool, error)
	GetByIntentID(ctx context.Context, intentID uuid.UUID) (*domain.Donation, error)
}

type pledgeRepo interface {
	Create(ctx context.Context, tx *sql.Tx, p *domain.Pledge) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pledge, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*domain.Pledge, error)
	TransitionStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, from []domain.PledgeStatus, to domain.PledgeStatus) (bool, error)
	ListOverdue(ctx context.Context, cutoff time.Time, limit int) ([]domain.Pledge, error)
	MarkDue(ctx context.Context, now time.Time) (int64, error)
}

type campaignLedger interface {
	Apply(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, kind ledger.Kind, amount int64) (*domain.FundingSnapshot, error)
	Reverse(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, kind ledger.Kind, amount int64) (*domain.FundingSnapshot, error)
	Fulfill(ctx context.Context, tx *sql.Tx, campaignID uuid.UUID, amount int64) (*domain.FundingSnapshot, error)
}

type chargeSubmitter interface {
	SubmitCharge(ctx context.Context, req ChargeRequest) error
}

// ChargeRequest is handed to the payment provider when a donation is
// initiated. The provider reports the outcome later through the confirmation
// webhook.
type ChargeRequest struct {
	IntentID      uuid.UUID
	Amount        int64
	PaymentMethod domain.PaymentMethod
}

type Service struct {
	campaigns campaignRepo
	intents   intentRepo
	donations donationRepo
	pledges   pledgeRepo
	ledger    campaignLedger
	provider  chargeSubmitter
	publisher livesync.Publisher
	db        *sql.DB
	config    *config.Config
}

func NewService(
	campaigns campaignRepo,
	intents intentRepo,
	donations donationRepo,
	pledges pledgeRepo,
	campaignLedger campaignLedger,
	provider chargeSubmitter,
	publisher livesync.Publisher,
	db *sql.DB,
	cfg *config.Config,
) *Service {
	return &Service{
		campaigns: campaigns,
		intents:   intents,
		donations: donations,
		pledges:   pledges,
		ledger:    campaignLedger,
		provider:  provider,
		publisher: publisher,
		db:        db,
		config:    cfg,
	}
}

// fundableCampaign resolves the campaign and rejects funding events against
// anything other than an APPROVED campaign.
func (s *Service) fundableCampaign(ctx context.Context, campaignID uuid.UUID) (*domain.Campaign, error) {
	c, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if !c.Status.Fundable() {
		return nil, fmt.Errorf("campaign %s is %s: %w", c.ID, c.Status, domain.ErrCampaignNotFundable)
	}
	return c, nil
}

func (s *Service) publish(ctx context.Context, kind domain.FundingEventKind, amount int64, snap *domain.FundingSnapshot) {
	event := domain.FundingEvent{
		Kind:       kind,
		Amount:     amount,
		Snapshot:   *snap,
		OccurredAt: time.Now().UTC(),
	}
	// Publish failures are logged inside the fanout; the mutation is already
	// committed and viewers can recover with a full re-fetch.
	_ = s.publisher.Publish(ctx, event)
}
