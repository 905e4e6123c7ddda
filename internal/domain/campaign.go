package domain

import (
	"time"

	"github.com/google/uuid"
)

type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "PENDING"
	CampaignStatusApproved  CampaignStatus = "APPROVED"
	CampaignStatusSuspended CampaignStatus = "SUSPENDED"
	CampaignStatusCompleted CampaignStatus = "COMPLETED"
)

func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusPending, CampaignStatusApproved, CampaignStatusSuspended, CampaignStatusCompleted:
		return true
	}
	return false
}

// Fundable reports whether the campaign accepts new donations and pledges.
func (s CampaignStatus) Fundable() bool {
	return s == CampaignStatusApproved
}

// Categories is the fixed set a campaign is created under.
var Categories = []string{
	"Business", "Community", "Competitions", "Creative",
	"Education", "Emergencies", "Environment", "Events", "Faith",
	"Family", "Funerals & Memorials", "Introduction/Wedding", "Medical",
	"Monthly Bills", "Other", "Sports", "Travel", "Volunteer", "Wishes",
}

func IsValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// Campaign is a fundraising unit. RaisedAmount and PledgedAmount are owned by
// the ledger: they change only through atomic ledger applies, each of which
// bumps Revision.
type Campaign struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Title         string
	Description   string
	Category      string
	TargetAmount  int64
	RaisedAmount  int64
	PledgedAmount int64
	StartDate     time.Time
	EndDate       time.Time
	Status        CampaignStatus
	Revision      int64

	OrganizerName     *string
	OrganizerPhone    *string
	OrganizerLocation *string
	Relationship      *string
	BeneficiaryName   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
