package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignNotFundable  = errors.New("campaign is not accepting funding")
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrAmountBelowMinimum   = errors.New("amount is below the donation minimum")
	ErrInvalidDueDate       = errors.New("due date must be in the future")
	ErrInvalidCategory      = errors.New("invalid campaign category")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrPledgeNotFound       = errors.New("pledge not found")
	ErrPledgeNotOutstanding = errors.New("pledge is not pending or due")
	ErrPledgeNotDue         = errors.New("pledge due date has not passed")
	ErrIntentNotFound       = errors.New("donation intent not found")
	ErrIntentNotPending     = errors.New("donation intent is not pending")
	ErrDuplicateSubmission  = errors.New("duplicate submission")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidRequest       = errors.New("invalid request")
	ErrForbidden            = errors.New("forbidden")
)
