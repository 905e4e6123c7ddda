package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken       = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken       = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidCredentials = &AppError{http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"}
	ErrForbidden          = &AppError{http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource"}
	ErrInvalidRequest     = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed   = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound   = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError      = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrCampaignNotFound    = &AppError{http.StatusNotFound, "CAMPAIGN_NOT_FOUND", "Campaign not found"}
	ErrCampaignNotFundable = &AppError{http.StatusUnprocessableEntity, "CAMPAIGN_NOT_FUNDABLE", "Campaign is not accepting funding"}
	ErrInvalidAmount       = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrAmountBelowMinimum  = &AppError{http.StatusUnprocessableEntity, "AMOUNT_BELOW_MINIMUM", "Amount is below the donation minimum"}
	ErrInvalidDueDate      = &AppError{http.StatusBadRequest, "INVALID_DUE_DATE", "Due date must be in the future"}
	ErrInvalidCategory     = &AppError{http.StatusBadRequest, "INVALID_CATEGORY", "Invalid campaign category"}
	ErrInvalidStatus       = &AppError{http.StatusBadRequest, "INVALID_STATUS", "Invalid status"}
	ErrPledgeNotFound      = &AppError{http.StatusNotFound, "PLEDGE_NOT_FOUND", "Pledge not found"}
	ErrPledgeNotOutstanding = &AppError{http.StatusUnprocessableEntity, "PLEDGE_NOT_OUTSTANDING", "Pledge is not pending or due"}
	ErrPledgeNotDue         = &AppError{http.StatusUnprocessableEntity, "PLEDGE_NOT_DUE", "Pledge due date has not passed"}
	ErrIntentNotFound       = &AppError{http.StatusNotFound, "INTENT_NOT_FOUND", "Donation intent not found"}
	ErrDuplicateSubmission  = &AppError{http.StatusConflict, "DUPLICATE_SUBMISSION", "Duplicate submission"}
	ErrEmailTaken           = &AppError{http.StatusConflict, "EMAIL_TAKEN", "Email already registered"}

	ErrMissingIdempotencyKey = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict   = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
