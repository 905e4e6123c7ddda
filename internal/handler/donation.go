package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/auth"
	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/logging"
)

type donationInitiator interface {
	InitiateDonation(ctx context.Context, userID, campaignID uuid.UUID, amount int64, method domain.PaymentMethod) (*domain.DonationIntent, error)
}

type donationLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Donation, error)
}

type DonationHandler struct {
	funding   donationInitiator
	donations donationLister
}

func NewDonationHandler(funding donationInitiator, donations donationLister) *DonationHandler {
	return &DonationHandler{funding: funding, donations: donations}
}

type initiateDonationRequest struct {
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type intentDTO struct {
	ID            uuid.UUID            `json:"id"`
	CampaignID    uuid.UUID            `json:"campaign_id"`
	Amount        int64                `json:"amount"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Status        domain.IntentStatus  `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Initiate hands a charge to the payment provider. The donation only lands on
// the campaign once the provider confirms it through the webhook inbox, so a
// 202 here promises nothing about the final outcome.
func (h *DonationHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaignID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrCampaignNotFound, nil)
		return
	}

	var req initiateDonationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "payment_method", Message: "must be MTN, AIRTEL or VISA"}})
		return
	}

	intent, err := h.funding.InitiateDonation(r.Context(), userID, campaignID, req.Amount, method)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusAccepted, intentDTO{
		ID:            intent.ID,
		CampaignID:    intent.CampaignID,
		Amount:        intent.Amount,
		PaymentMethod: intent.PaymentMethod,
		Status:        intent.Status,
		CreatedAt:     intent.CreatedAt,
	})
}

type donationDTO struct {
	ID               uuid.UUID            `json:"id"`
	CampaignID       uuid.UUID            `json:"campaign_id"`
	Amount           int64                `json:"amount"`
	PaymentMethod    domain.PaymentMethod `json:"payment_method"`
	FulfillsPledgeID *uuid.UUID           `json:"fulfills_pledge_id,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
}

func (h *DonationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	donations, err := h.donations.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list donations", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]donationDTO, 0, len(donations))
	for _, d := range donations {
		out = append(out, donationDTO{
			ID:               d.ID,
			CampaignID:       d.CampaignID,
			Amount:           d.Amount,
			PaymentMethod:    d.PaymentMethod,
			FulfillsPledgeID: d.FulfillsPledgeID,
			CreatedAt:        d.CreatedAt,
		})
	}

	RespondSuccess(w, http.StatusOK, out)
}
