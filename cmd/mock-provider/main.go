// mock-provider simulates the mobile-money payment provider: it accepts
// charge submissions and, after a short delay, posts a signed confirmation
// webhook back to the API. Roughly nine in ten charges succeed.
package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/logging"
)

const (
	confirmationDelay = 2500 * time.Millisecond
	successRate       = 0.9
)

type chargeRequest struct {
	IntentID    string `json:"intent_id"`
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	CallbackURL string `json:"callback_url"`
}

type confirmationPayload struct {
	EventID   string `json:"event_id"`
	IntentID  string `json:"intent_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

type provider struct {
	secret string
	client *http.Client
}

func main() {
	logging.Init("mock-provider", "info", os.Getenv("APP_ENV"))

	secret := os.Getenv("WEBHOOK_SECRET")
	if secret == "" {
		slog.Error("WEBHOOK_SECRET is required")
		os.Exit(1)
	}

	p := &provider{
		secret: secret,
		client: &http.Client{Timeout: 5 * time.Second},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "ok"}); err != nil {
			slog.Error("failed to write health response", "error", err)
		}
	})
	mux.HandleFunc("POST /charges", p.handleCharge)

	slog.Info("mock provider started", "addr", ":8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func (p *provider) handleCharge(w http.ResponseWriter, r *http.Request) {
	var req chargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.IntentID == "" || req.CallbackURL == "" || req.Amount <= 0 {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	slog.Info("charge accepted", "intent_id", req.IntentID, "amount", req.Amount, "method", req.Method)
	go p.confirmLater(req)

	w.WriteHeader(http.StatusAccepted)
	if err := json.NewEncoder(w).Encode(map[string]string{"status": "processing"}); err != nil {
		slog.Error("failed to write charge response", "error", err)
	}
}

func (p *provider) confirmLater(req chargeRequest) {
	time.Sleep(confirmationDelay)

	payload := confirmationPayload{
		EventID:   uuid.NewString(),
		IntentID:  req.IntentID,
		Status:    "completed",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if rand.Float64() >= successRate {
		payload.Status = "failed"
		payload.Reason = "insufficient balance"
	}

	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal confirmation", "error", err)
		return
	}

	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	httpReq, err := http.NewRequest(http.MethodPost, req.CallbackURL, bytes.NewReader(body))
	if err != nil {
		slog.Error("failed to build webhook request", "error", err)
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Webhook-Signature", signature)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		slog.Error("failed to deliver confirmation webhook", "error", err, "intent_id", req.IntentID)
		return
	}
	defer resp.Body.Close()

	slog.Info("confirmation delivered",
		"intent_id", req.IntentID,
		"status", payload.Status,
		"response_status", resp.StatusCode,
	)
}
