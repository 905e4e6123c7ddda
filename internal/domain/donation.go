package domain

import (
	"time"

	"github.com/google/uuid"
)

type PaymentMethod string

const (
	PaymentMethodMTN    PaymentMethod = "MTN"
	PaymentMethodAirtel PaymentMethod = "AIRTEL"
	PaymentMethodVisa   PaymentMethod = "VISA"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodMTN, PaymentMethodAirtel, PaymentMethodVisa:
		return true
	}
	return false
}

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "pending"
	IntentStatusConfirmed IntentStatus = "confirmed"
	IntentStatusFailed    IntentStatus = "failed"
)

// DonationIntent is the pre-confirmation half of a donation. It is created
// when a charge is handed to the payment provider and never touches the
// ledger; an abandoned or failed intent leaves no funding trace.
type DonationIntent struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	CampaignID    uuid.UUID
	Amount        int64
	PaymentMethod PaymentMethod
	Status        IntentStatus
	FailureReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Donation is an immediate, irrevocable funding event. It is written exactly
// once per confirmed intent (IntentID is the dedup key) and is immutable.
// FulfillsPledgeID links the donation written when a pledge is fulfilled; such
// rows count toward raisedAmount but not toward a user's impact, since the
// fulfilled pledge already does.
type Donation struct {
	ID               uuid.UUID
	IntentID         uuid.UUID
	CampaignID       uuid.UUID
	UserID           uuid.UUID
	Amount           int64
	PaymentMethod    PaymentMethod
	FulfillsPledgeID *uuid.UUID
	CreatedAt        time.Time
}
