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

// InitiateDonation validates the submission and hands a charge to the
// payment provider. Nothing touches the ledger here: the donation only
// becomes real when the provider's confirmation arrives. An abandoned or
// timed-out charge leaves a pending intent and no funding trace.
func (s *Service) InitiateDonation(ctx context.Context, userID, campaignID uuid.UUID, amount int64, method domain.PaymentMethod) (*domain.DonationIntent, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("InitiateDonation: %w", domain.ErrInvalidAmount)
	}
	if amount < s.config.MinDonationAmount {
		return nil, fmt.Errorf("InitiateDonation: floor %d: %w", s.config.MinDonationAmount, domain.ErrAmountBelowMinimum)
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("InitiateDonation: %w", domain.ErrInvalidRequest)
	}

	if _, err := s.fundableCampaign(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("InitiateDonation: %w", err)
	}

	now := time.Now().UTC()
	intent := &domain.DonationIntent{
		ID:            uuid.New(),
		UserID:        userID,
		CampaignID:    campaignID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        domain.IntentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, fmt.Errorf("InitiateDonation: %w", err)
	}

	err := s.provider.SubmitCharge(ctx, ChargeRequest{
		IntentID:      intent.ID,
		Amount:        amount,
		PaymentMethod: method,
	})
	if err != nil {
		if markErr := s.intents.MarkFailed(ctx, intent.ID, "provider submission failed"); markErr != nil {
			log.Error("failed to mark intent failed", "error", markErr, "intent_id", intent.ID)
		}
		return nil, fmt.Errorf("InitiateDonation: submit charge: %w", err)
	}

	log.Info("donation initiated",
		"intent_id", intent.ID,
		"campaign_id", campaignID,
		"amount", amount,
		"method", method,
	)
	return intent, nil
}

// ConfirmDonation turns a provider-confirmed intent into a recorded donation
// and applies it to the ledger, exactly once per intent. A redelivered or
// retried confirmation finds the donation already written and returns it
// without a second ledger apply.
func (s *Service) ConfirmDonation(ctx context.Context, intentID uuid.UUID) (*domain.Donation, error) {
	log := logging.FromContext(ctx)

	intent, err := s.intents.GetByID(ctx, intentID)
	if err != nil {
		return nil, fmt.Errorf("ConfirmDonation: %w", err)
	}

	switch intent.Status {
	case domain.IntentStatusConfirmed:
		d, err := s.donations.GetByIntentID(ctx, intentID)
		if err != nil {
			return nil, fmt.Errorf("ConfirmDonation: confirmed intent without donation: %w", err)
		}
		return d, nil
	case domain.IntentStatusFailed:
		// Failure is terminal. A success report arriving after a failure
		// report for the same intent must not reach the ledger.
		return nil, fmt.Errorf("ConfirmDonation: intent %s already failed: %w", intentID, domain.ErrIntentNotPending)
	}

	now := time.Now().UTC()
	donation := &domain.Donation{
		ID:            uuid.New(),
		IntentID:      intent.ID,
		CampaignID:    intent.CampaignID,
		UserID:        intent.UserID,
		Amount:        intent.Amount,
		PaymentMethod: intent.PaymentMethod,
		CreatedAt:     now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ConfirmDonation: begin tx: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.donations.Create(ctx, tx, donation)
	if err != nil {
		return nil, fmt.Errorf("ConfirmDonation: %w", err)
	}
	if !inserted {
		// Lost the race against a concurrent confirmation of the same
		// intent; the original donation stands.
		original, err := s.donations.GetByIntentID(ctx, intentID)
		if err != nil {
			return nil, fmt.Errorf("ConfirmDonation: %w", err)
		}
		return original, nil
	}

	if err := s.intents.MarkConfirmed(ctx, tx, intent.ID); err != nil {
		return nil, fmt.Errorf("ConfirmDonation: %w", err)
	}

	snap, err := s.ledger.Apply(ctx, tx, intent.CampaignID, ledger.KindDonation, intent.Amount)
	if err != nil {
		return nil, fmt.Errorf("ConfirmDonation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ConfirmDonation: commit: %w", err)
	}

	s.publish(ctx, domain.FundingEventDonationApplied, intent.Amount, snap)

	log.Info("donation confirmed",
		"donation_id", donation.ID,
		"intent_id", intent.ID,
		"campaign_id", intent.CampaignID,
		"amount", intent.Amount,
		"raised_amount", snap.RaisedAmount,
		"revision", snap.Revision,
	)
	return donation, nil
}

// FailDonation records a provider-reported failure. The intent never reached
// the ledger, so there is nothing to unwind.
func (s *Service) FailDonation(ctx context.Context, intentID uuid.UUID, reason string) error {
	if err := s.intents.MarkFailed(ctx, intentID, reason); err != nil {
		return fmt.Errorf("FailDonation: %w", err)
	}
	logging.FromContext(ctx).Info("donation failed", "intent_id", intentID, "reason", reason)
	return nil
}
