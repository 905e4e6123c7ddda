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

type pledgeService interface {
	SubmitPledge(ctx context.Context, userID, campaignID uuid.UUID, amount int64, dueDate time.Time, idempotencyKey string) (*domain.Pledge, error)
	FulfillPledge(ctx context.Context, pledgeID uuid.UUID, method domain.PaymentMethod) (*domain.Pledge, error)
}

type pledgeLister interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Pledge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Pledge, error)
}

type PledgeHandler struct {
	service pledgeService
	pledges pledgeLister
}

func NewPledgeHandler(service pledgeService, pledges pledgeLister) *PledgeHandler {
	return &PledgeHandler{service: service, pledges: pledges}
}

type submitPledgeRequest struct {
	Amount  int64  `json:"amount"`
	DueDate string `json:"due_date"`
}

type pledgeDTO struct {
	ID         uuid.UUID           `json:"id"`
	CampaignID uuid.UUID           `json:"campaign_id"`
	Amount     int64               `json:"amount"`
	DueDate    time.Time           `json:"due_date"`
	Status     domain.PledgeStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}

func toPledgeDTO(p *domain.Pledge) pledgeDTO {
	return pledgeDTO{
		ID:         p.ID,
		CampaignID: p.CampaignID,
		Amount:     p.Amount,
		DueDate:    p.DueDate,
		Status:     p.Status,
		CreatedAt:  p.CreatedAt,
	}
}

// Submit records a deferred commitment against a campaign. The Idempotency-Key
// header doubles as the pledge dedup key, so a retried request returns the
// original pledge instead of a second one.
func (h *PledgeHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		RespondAppError(w, ErrMissingIdempotencyKey, nil)
		return
	}

	var req submitPledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		RespondValidationError(w, []FieldError{{Field: "due_date", Message: "must be RFC3339"}})
		return
	}

	pledge, err := h.service.SubmitPledge(r.Context(), userID, campaignID, req.Amount, dueDate, idemKey)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toPledgeDTO(pledge))
}

func (h *PledgeHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	pledges, err := h.pledges.ListByUser(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list pledges", "error", err)
		RespondDomainError(w, err)
		return
	}

	out := make([]pledgeDTO, 0, len(pledges))
	for i := range pledges {
		out = append(out, toPledgeDTO(&pledges[i]))
	}

	RespondSuccess(w, http.StatusOK, out)
}

type fulfillPledgeRequest struct {
	PaymentMethod string `json:"payment_method"`
}

// Fulfill converts the caller's outstanding pledge into a donation.
func (h *PledgeHandler) Fulfill(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	pledgeID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrPledgeNotFound, nil)
		return
	}

	pledge, err := h.pledges.GetByID(r.Context(), pledgeID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if pledge.UserID != userID {
		RespondAppError(w, ErrPledgeNotFound, nil)
		return
	}

	var req fulfillPledgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	method := domain.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		RespondValidationError(w, []FieldError{{Field: "payment_method", Message: "must be MTN, AIRTEL or VISA"}})
		return
	}

	fulfilled, err := h.service.FulfillPledge(r.Context(), pledgeID, method)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toPledgeDTO(fulfilled))
}
