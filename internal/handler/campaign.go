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

type campaignStore interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
	List(ctx context.Context, status domain.CampaignStatus, category string) ([]domain.Campaign, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Campaign, error)
}

type CampaignHandler struct {
	campaigns campaignStore
}

func NewCampaignHandler(campaigns campaignStore) *CampaignHandler {
	return &CampaignHandler{campaigns: campaigns}
}

type createCampaignRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	TargetAmount int64  `json:"target_amount"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`

	OrganizerName     *string `json:"organizer_name"`
	OrganizerPhone    *string `json:"organizer_phone"`
	OrganizerLocation *string `json:"organizer_location"`
	Relationship      *string `json:"relationship"`
	BeneficiaryName   *string `json:"beneficiary_name"`
}

func (r createCampaignRequest) validate() ([]FieldError, time.Time, time.Time) {
	var errs []FieldError

	if r.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "required"})
	}
	if !domain.IsValidCategory(r.Category) {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if r.TargetAmount <= 0 {
		errs = append(errs, FieldError{Field: "target_amount", Message: "must be greater than zero"})
	}

	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "start_date", Message: "must be RFC3339"})
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		errs = append(errs, FieldError{Field: "end_date", Message: "must be RFC3339"})
	} else if !end.After(start) {
		errs = append(errs, FieldError{Field: "end_date", Message: "must be after start_date"})
	}

	return errs, start, end
}

type campaignDTO struct {
	ID            uuid.UUID             `json:"id"`
	OwnerID       uuid.UUID             `json:"owner_id"`
	Title         string                `json:"title"`
	Description   string                `json:"description"`
	Category      string                `json:"category"`
	TargetAmount  int64                 `json:"target_amount"`
	RaisedAmount  int64                 `json:"raised_amount"`
	PledgedAmount int64                 `json:"pledged_amount"`
	StartDate     time.Time             `json:"start_date"`
	EndDate       time.Time             `json:"end_date"`
	Status        domain.CampaignStatus `json:"status"`
	Revision      int64                 `json:"revision"`
	CreatedAt     time.Time             `json:"created_at"`
}

func toCampaignDTO(c *domain.Campaign) campaignDTO {
	return campaignDTO{
		ID:            c.ID,
		OwnerID:       c.OwnerID,
		Title:         c.Title,
		Description:   c.Description,
		Category:      c.Category,
		TargetAmount:  c.TargetAmount,
		RaisedAmount:  c.RaisedAmount,
		PledgedAmount: c.PledgedAmount,
		StartDate:     c.StartDate,
		EndDate:       c.EndDate,
		Status:        c.Status,
		Revision:      c.Revision,
		CreatedAt:     c.CreatedAt,
	}
}

func toCampaignDTOs(campaigns []domain.Campaign) []campaignDTO {
	out := make([]campaignDTO, 0, len(campaigns))
	for i := range campaigns {
		out = append(out, toCampaignDTO(&campaigns[i]))
	}
	return out
}

// Create registers a new campaign. It always starts PENDING; an administrator
// approves it before it can accept funding.
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	fields, start, end := req.validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	now := time.Now().UTC()
	campaign := &domain.Campaign{
		ID:                uuid.New(),
		OwnerID:           userID,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		TargetAmount:      req.TargetAmount,
		StartDate:         start,
		EndDate:           end,
		Status:            domain.CampaignStatusPending,
		OrganizerName:     req.OrganizerName,
		OrganizerPhone:    req.OrganizerPhone,
		OrganizerLocation: req.OrganizerLocation,
		Relationship:      req.Relationship,
		BeneficiaryName:   req.BeneficiaryName,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := h.campaigns.Create(r.Context(), campaign); err != nil {
		logging.FromContext(r.Context()).Error("failed to create campaign", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toCampaignDTO(campaign))
}

// List returns approved campaigns, optionally filtered by category.
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !domain.IsValidCategory(category) {
		RespondDomainError(w, domain.ErrInvalidCategory)
		return
	}

	campaigns, err := h.campaigns.List(r.Context(), domain.CampaignStatusApproved, category)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list campaigns", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTOs(campaigns))
}

func (h *CampaignHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrCampaignNotFound, nil)
		return
	}

	campaign, err := h.campaigns.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTO(campaign))
}

// ListMine returns the caller's own campaigns regardless of status.
func (h *CampaignHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	campaigns, err := h.campaigns.ListByOwner(r.Context(), userID)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to list own campaigns", "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toCampaignDTOs(campaigns))
}
