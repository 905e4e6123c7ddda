package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmugisha/fundflow-backend/internal/repository"
)

const testWebhookSecret = "test-secret-key"

type mockProviderEventStore struct {
	created *repository.ProviderEvent
	err     error
}

func (m *mockProviderEventStore) Create(_ context.Context, event *repository.ProviderEvent) error {
	m.created = event
	return m.err
}

func signPayload(body, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func validWebhookBody() string {
	p := webhookPayload{
		EventID:   uuid.NewString(),
		IntentID:  uuid.NewString(),
		Status:    "completed",
		Timestamp: "2026-08-20T00:00:00Z",
	}
	b, _ := json.Marshal(p)
	return string(b)
}

func TestVerifyHMAC(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "valid signature",
			body:      `{"event_id":"abc"}`,
			signature: signPayload(`{"event_id":"abc"}`, testWebhookSecret),
			secret:    testWebhookSecret,
			want:      true,
		},
		{
			name:      "wrong signature",
			body:      `{"event_id":"abc"}`,
			signature: "deadbeef",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "empty signature",
			body:      `{"event_id":"abc"}`,
			signature: "",
			secret:    testWebhookSecret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      `{"event_id":"abc"}`,
			signature: signPayload(`{"event_id":"abc"}`, "other-secret"),
			secret:    testWebhookSecret,
			want:      false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := verifyHMAC([]byte(tc.body), tc.signature, tc.secret)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReceiveProviderWebhook(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupSig   func(body string) string
		repoErr    error
		wantStatus int
		wantCode   string
		wantStored bool
	}{
		{
			name:       "valid completed event",
			body:       validWebhookBody(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusOK,
			wantStored: true,
		},
		{
			name:       "missing signature",
			body:       validWebhookBody(),
			setupSig:   func(string) string { return "" },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "tampered body",
			body:       validWebhookBody(),
			setupSig:   func(string) string { return signPayload(`{"other":"payload"}`, testWebhookSecret) },
			wantStatus: http.StatusUnauthorized,
			wantCode:   "INVALID_SIGNATURE",
		},
		{
			name:       "malformed json",
			body:       `{not json`,
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name: "unknown status value",
			body: func() string {
				p := webhookPayload{EventID: uuid.NewString(), IntentID: uuid.NewString(), Status: "refunded"}
				b, _ := json.Marshal(p)
				return string(b)
			}(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name: "missing intent id",
			body: func() string {
				p := webhookPayload{EventID: uuid.NewString(), Status: "completed"}
				b, _ := json.Marshal(p)
				return string(b)
			}(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "duplicate event id",
			body:       validWebhookBody(),
			setupSig:   func(body string) string { return signPayload(body, testWebhookSecret) },
			repoErr:    &pq.Error{Code: "23505"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &mockProviderEventStore{err: tc.repoErr}
			h := NewWebhookHandler(store, testWebhookSecret)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", strings.NewReader(tc.body))
			if sig := tc.setupSig(tc.body); sig != "" {
				req.Header.Set("X-Webhook-Signature", sig)
			}
			rec := httptest.NewRecorder()

			h.ReceiveProviderWebhook(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)

			var resp APIResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

			if tc.wantCode != "" {
				require.NotNil(t, resp.Error)
				assert.Equal(t, tc.wantCode, resp.Error.Code)
			}

			if tc.wantStored {
				require.NotNil(t, store.created)
				assert.Equal(t, repository.ProviderEventStatusPending, store.created.Status)
				assert.Equal(t, "charge.completed", store.created.EventType)
			}
		})
	}
}

func TestReceiveProviderWebhook_DuplicateReportsAlreadyReceived(t *testing.T) {
	store := &mockProviderEventStore{err: &pq.Error{Code: "23505"}}
	h := NewWebhookHandler(store, testWebhookSecret)

	body := validWebhookBody()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/provider", strings.NewReader(body))
	req.Header.Set("X-Webhook-Signature", signPayload(body, testWebhookSecret))
	rec := httptest.NewRecorder()

	h.ReceiveProviderWebhook(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.Success)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "already_received", data["status"])
}
