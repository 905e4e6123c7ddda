package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/auth"
	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/insights"
	"github.com/dmugisha/fundflow-backend/internal/logging"
)

type historyStore interface {
	DonationHistory(ctx context.Context, userID uuid.UUID) ([]insights.DonationRecord, error)
	PledgeHistory(ctx context.Context, userID uuid.UUID) ([]insights.PledgeRecord, error)
}

type userGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

type DashboardHandler struct {
	history historyStore
	users   userGetter
}

func NewDashboardHandler(history historyStore, users userGetter) *DashboardHandler {
	return &DashboardHandler{history: history, users: users}
}

// Metrics projects the caller's full funding history into dashboard numbers.
// Fulfillment donations are already excluded at the query level, so impact
// never counts a fulfilled pledge twice.
func (h *DashboardHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	log := logging.FromContext(r.Context())

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	donations, err := h.history.DonationHistory(r.Context(), userID)
	if err != nil {
		log.Error("failed to load donation history", "error", err)
		RespondDomainError(w, err)
		return
	}

	pledges, err := h.history.PledgeHistory(r.Context(), userID)
	if err != nil {
		log.Error("failed to load pledge history", "error", err)
		RespondDomainError(w, err)
		return
	}

	metrics := insights.Compute(user.CreatedAt, donations, pledges, time.Now().UTC())
	RespondSuccess(w, http.StatusOK, metrics)
}
