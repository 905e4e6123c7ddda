package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/logging"
	"github.com/dmugisha/fundflow-backend/internal/repository"
)

type adminCampaignStore interface {
	ListAll(ctx context.Context) ([]domain.Campaign, error)
	List(ctx context.Context, status domain.CampaignStatus, category string) ([]domain.Campaign, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.CampaignStatus) (*domain.FundingSnapshot, error)
	Stats(ctx context.Context) (*repository.PlatformStats, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event domain.FundingEvent) error
}

type AdminHandler struct {
	campaigns adminCampaignStore
	publisher eventPublisher
}

func NewAdminHandler(campaigns adminCampaignStore, publisher eventPublisher) *AdminHandler {
	return &AdminHandler{campaigns: campaigns, publisher: publisher}
}

// ListCampaigns returns campaigns of any status, optionally filtered.
func (h *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	var (
		campaigns []domain.Campaign
		err       error
	)
	if status == "" {
		campaigns, err = h.campaigns.ListAll(r.Context())
	} else {
		cs := domain.CampaignStatus(status)
		if !cs.IsValid() {
			RespondDomainError(w, domain.ErrInvalidStatus)
			return
		}
		campaigns, err = h.campaigns.List(r.Context(), cs, "")
	}
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list campaigns", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTOs(campaigns))
}

type updateStatusRequest struct {
	Status domain.CampaignStatus `json:"status"`
}

// UpdateCampaignStatus approves, suspends or completes a campaign. The change
// bumps the campaign revision, so live subscribers see the new status.
func (h *AdminHandler) UpdateCampaignStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrCampaignNotFound, nil)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if !req.Status.IsValid() {
		RespondDomainError(w, domain.ErrInvalidStatus)
		return
	}

	snap, err := h.campaigns.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	event := domain.FundingEvent{
		Kind:       domain.FundingEventStatusChanged,
		Snapshot:   *snap,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.publisher.Publish(r.Context(), event); err != nil {
		logging.FromContext(r.Context()).Error("failed to publish status change", "error", err, "campaign_id", id)
	}

	RespondSuccess(w, http.StatusOK, snap)
}

type statsDTO struct {
	TotalRaised      int64 `json:"total_raised"`
	TotalPledged     int64 `json:"total_pledged"`
	TotalCampaigns   int   `json:"total_campaigns"`
	PendingCampaigns int   `json:"pending_campaigns"`
	TotalUsers       int   `json:"total_users"`
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.campaigns.Stats(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to load platform stats", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, statsDTO{
		TotalRaised:      stats.TotalRaised,
		TotalPledged:     stats.TotalPledged,
		TotalCampaigns:   stats.TotalCampaigns,
		PendingCampaigns: stats.PendingCampaigns,
		TotalUsers:       stats.TotalUsers,
	})
}
