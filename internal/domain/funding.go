package domain

import (
	"time"

	"github.com/google/uuid"
)

// FundingSnapshot is the full-state broadcast view of a campaign's current
// totals. Revision is strictly monotonic per campaign; subscribers apply
// snapshots in non-decreasing revision order and discard stale ones.
type FundingSnapshot struct {
	CampaignID    uuid.UUID      `json:"campaign_id"`
	RaisedAmount  int64          `json:"raised_amount"`
	PledgedAmount int64          `json:"pledged_amount"`
	Status        CampaignStatus `json:"status"`
	Revision      int64          `json:"revision"`
}

type FundingEventKind string

const (
	FundingEventDonationApplied FundingEventKind = "donation_applied"
	FundingEventPledgeApplied   FundingEventKind = "pledge_applied"
	FundingEventPledgeReversed  FundingEventKind = "pledge_reversed"
	FundingEventPledgeFulfilled FundingEventKind = "pledge_fulfilled"
	FundingEventStatusChanged   FundingEventKind = "status_changed"
)

// FundingEvent is the typed notification emitted for every ledger mutation.
// Carrying the kind explicitly spares subscribers from diffing before/after
// totals to infer what happened.
type FundingEvent struct {
	Kind       FundingEventKind `json:"kind"`
	Amount     int64            `json:"amount"`
	Snapshot   FundingSnapshot  `json:"snapshot"`
	OccurredAt time.Time        `json:"occurred_at"`
}
