package domain

import (
	"time"

	"github.com/google/uuid"
)

type PledgeStatus string

const (
	PledgeStatusPending   PledgeStatus = "PENDING"
	PledgeStatusDue       PledgeStatus = "DUE"
	PledgeStatusFulfilled PledgeStatus = "FULFILLED"
	PledgeStatusExpired   PledgeStatus = "EXPIRED"
)

// Outstanding reports whether the pledge still counts toward a campaign's
// pledgedAmount.
func (s PledgeStatus) Outstanding() bool {
	return s == PledgeStatusPending || s == PledgeStatusDue
}

// Pledge is a deferred funding commitment. It contributes to pledgedAmount
// while PENDING or DUE, is reversed out on expiry, and moves to raisedAmount
// on fulfillment.
type Pledge struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	CampaignID     uuid.UUID
	Amount         int64
	DueDate        time.Time
	Status         PledgeStatus
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
