package funding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/ledger"
	"github.com/dmugisha/fundflow-backend/internal/logging"
)

// SubmitPledge records a deferred commitment and credits pledgedAmount. The
// caller-supplied idempotency key makes retried submissions resolve to the
// original pledge instead of double-applying.
func (s *Service) SubmitPledge(ctx context.Context, userID, campaignID uuid.UUID, amount int64, dueDate time.Time, idempotencyKey string) (*domain.Pledge, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("SubmitPledge: %w", domain.ErrInvalidAmount)
	}
	now := time.Now().UTC()
	if !dueDate.After(now) {
		return nil, fmt.Errorf("SubmitPledge: %w", domain.ErrInvalidDueDate)
	}
	if idempotencyKey == "" {
		return nil, fmt.Errorf("SubmitPledge: missing idempotency key: %w", domain.ErrInvalidRequest)
	}

	if _, err := s.fundableCampaign(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("SubmitPledge: %w", err)
	}

	pledge := &domain.Pledge{
		ID:             uuid.New(),
		UserID:         userID,
		CampaignID:     campaignID,
		Amount:         amount,
		DueDate:        dueDate,
		Status:         domain.PledgeStatusPending,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("SubmitPledge: begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.pledges.Create(ctx, tx, pledge)
	if err != nil {
		return nil, fmt.Errorf("SubmitPledge: %w", err)
	}
	if !inserted {
		original, err := s.pledges.GetByIdempotencyKey(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("SubmitPledge: %w", err)
		}
		log.Info("duplicate pledge submission resolved to original",
			"pledge_id", original.ID, "idempotency_key", idempotencyKey)
		return original, nil
	}

	snap, err := s.ledger.Apply(ctx, tx, campaignID, ledger.KindPledge, amount)
	if err != nil {
		return nil, fmt.Errorf("SubmitPledge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("SubmitPledge: commit: %w", err)
	}

	s.publish(ctx, domain.FundingEventPledgeApplied, amount, snap)

	log.Info("pledge submitted",
		"pledge_id", pledge.ID,
		"campaign_id", campaignID,
		"amount", amount,
		"due_date", dueDate,
		"pledged_amount", snap.PledgedAmount,
		"revision", snap.Revision,
	)
	return pledge, nil
}

// ExpirePledge transitions an overdue PENDING/DUE pledge to EXPIRED and
// reverses its contribution to pledgedAmount. The conditional status
// transition makes the reversal happen exactly once: repeat calls find the
// pledge already EXPIRED and return it unchanged.
func (s *Service) ExpirePledge(ctx context.Context, pledgeID uuid.UUID) (*domain.Pledge, error) {
	log := logging.FromContext(ctx)

	pledge, err := s.pledges.GetByID(ctx, pledgeID)
	if err != nil {
		return nil, fmt.Errorf("ExpirePledge: %w", err)
	}

	switch pledge.Status {
	case domain.PledgeStatusExpired:
		return pledge, nil
	case domain.PledgeStatusFulfilled:
		return nil, fmt.Errorf("ExpirePledge: %w", domain.ErrPledgeNotOutstanding)
	}

	if time.Now().UTC().Before(pledge.DueDate) {
		return nil, fmt.Errorf("ExpirePledge: %w", domain.ErrPledgeNotDue)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ExpirePledge: begin tx: %w", err)
	}
	defer tx.Rollback()

	transitioned, err := s.pledges.TransitionStatus(ctx, tx, pledgeID,
		[]domain.PledgeStatus{domain.PledgeStatusPending, domain.PledgeStatusDue},
		domain.PledgeStatusExpired)
	if err != nil {
		return nil, fmt.Errorf("ExpirePledge: %w", err)
	}
	if !transitioned {
		// A concurrent expiry or fulfillment won; re-read and report.
		current, err := s.pledges.GetByID(ctx, pledgeID)
		if err != nil {
			return nil, fmt.Errorf("ExpirePledge: %w", err)
		}
		if current.Status == domain.PledgeStatusExpired {
			return current, nil
		}
		return nil, fmt.Errorf("ExpirePledge: %w", domain.ErrPledgeNotOutstanding)
	}

	snap, err := s.ledger.Reverse(ctx, tx, pledge.CampaignID, ledger.KindPledge, pledge.Amount)
	if err != nil {
		return nil, fmt.Errorf("ExpirePledge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ExpirePledge: commit: %w", err)
	}

	s.publish(ctx, domain.FundingEventPledgeReversed, pledge.Amount, snap)

	log.Info("pledge expired",
		"pledge_id", pledgeID,
		"campaign_id", pledge.CampaignID,
		"amount", pledge.Amount,
		"pledged_amount", snap.PledgedAmount,
		"revision", snap.Revision,
	)

	pledge.Status = domain.PledgeStatusExpired
	return pledge, nil
}

// FulfillPledge converts an outstanding pledge into realized funding: the
// pledge becomes FULFILLED, a donation row linked to it is written for the
// raised-amount audit trail, and the ledger moves the amount pledged→raised
// in one revision. The linked donation is excluded from impact projections,
// so the economic contribution counts exactly once.
func (s *Service) FulfillPledge(ctx context.Context, pledgeID uuid.UUID, method domain.PaymentMethod) (*domain.Pledge, error) {
	log := logging.FromContext(ctx)

	if !method.IsValid() {
		return nil, fmt.Errorf("FulfillPledge: %w", domain.ErrInvalidRequest)
	}

	pledge, err := s.pledges.GetByID(ctx, pledgeID)
	if err != nil {
		return nil, fmt.Errorf("FulfillPledge: %w", err)
	}

	switch pledge.Status {
	case domain.PledgeStatusFulfilled:
		return pledge, nil
	case domain.PledgeStatusExpired:
		return nil, fmt.Errorf("FulfillPledge: %w", domain.ErrPledgeNotOutstanding)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("FulfillPledge: begin tx: %w", err)
	}
	defer tx.Rollback()

	transitioned, err := s.pledges.TransitionStatus(ctx, tx, pledgeID,
		[]domain.PledgeStatus{domain.PledgeStatusPending, domain.PledgeStatusDue},
		domain.PledgeStatusFulfilled)
	if err != nil {
		return nil, fmt.Errorf("FulfillPledge: %w", err)
	}
	if !transitioned {
		current, err := s.pledges.GetByID(ctx, pledgeID)
		if err != nil {
			return nil, fmt.Errorf("FulfillPledge: %w", err)
		}
		if current.Status == domain.PledgeStatusFulfilled {
			return current, nil
		}
		return nil, fmt.Errorf("FulfillPledge: %w", domain.ErrPledgeNotOutstanding)
	}

	// The pledge id doubles as the dedup key for the fulfillment donation:
	// one pledge can only ever produce one donation row.
	donation := &domain.Donation{
		ID:               uuid.New(),
		IntentID:         pledge.ID,
		CampaignID:       pledge.CampaignID,
		UserID:           pledge.UserID,
		Amount:           pledge.Amount,
		PaymentMethod:    method,
		FulfillsPledgeID: &pledge.ID,
		CreatedAt:        time.Now().UTC(),
	}
	inserted, err := s.donations.Create(ctx, tx, donation)
	if err != nil {
		return nil, fmt.Errorf("FulfillPledge: %w", err)
	}
	if !inserted {
		return nil, fmt.Errorf("FulfillPledge: fulfillment donation already recorded for pledge %s", pledgeID)
	}

	snap, err := s.ledger.Fulfill(ctx, tx, pledge.CampaignID, pledge.Amount)
	if err != nil {
		return nil, fmt.Errorf("FulfillPledge: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("FulfillPledge: commit: %w", err)
	}

	s.publish(ctx, domain.FundingEventPledgeFulfilled, pledge.Amount, snap)

	log.Info("pledge fulfilled",
		"pledge_id", pledgeID,
		"campaign_id", pledge.CampaignID,
		"amount", pledge.Amount,
		"raised_amount", snap.RaisedAmount,
		"pledged_amount", snap.PledgedAmount,
		"revision", snap.Revision,
	)

	pledge.Status = domain.PledgeStatusFulfilled
	return pledge, nil
}
