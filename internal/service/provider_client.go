package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmugisha/fundflow-backend/internal/logging"
	"github.com/dmugisha/fundflow-backend/internal/service/funding"
)

// ProviderClient submits charges to the (simulated) mobile-money provider.
// The provider responds 202 immediately and reports the real outcome later
// through the confirmation webhook.
type ProviderClient struct {
	baseURL     string
	callbackURL string
	httpClient  *http.Client
}

func NewProviderClient(baseURL, callbackURL string) *ProviderClient {
	return &ProviderClient{
		baseURL:     baseURL,
		callbackURL: callbackURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type chargePayload struct {
	IntentID    string `json:"intent_id"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	CallbackURL string `json:"callback_url"`
}

func (c *ProviderClient) SubmitCharge(ctx context.Context, req funding.ChargeRequest) error {
	log := logging.FromContext(ctx)

	payload := chargePayload{
		IntentID:    req.IntentID.String(),
		Amount:      req.Amount,
		Method:      string(req.PaymentMethod),
		CallbackURL: c.callbackURL,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("SubmitCharge: marshal: %w", err)
	}

	url := c.baseURL + "/charges"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("SubmitCharge: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	log.Info("charge submitted to provider", "intent_id", req.IntentID, "method", req.PaymentMethod)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("SubmitCharge: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("provider response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("SubmitCharge: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
