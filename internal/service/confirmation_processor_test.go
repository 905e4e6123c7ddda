package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmugisha/fundflow-backend/internal/config"
	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/ledger"
	"github.com/dmugisha/fundflow-backend/internal/livesync"
	"github.com/dmugisha/fundflow-backend/internal/repository"
	"github.com/dmugisha/fundflow-backend/internal/service/funding"
	"github.com/dmugisha/fundflow-backend/internal/testutil"
)

type noopCharge struct{}

func (noopCharge) SubmitCharge(context.Context, funding.ChargeRequest) error { return nil }

func setupConfirmationTest(t *testing.T, db *sql.DB) (*ConfirmationProcessor, *repository.ProviderEventRepository) {
	t.Helper()

	fundingSvc := funding.NewService(
		repository.NewCampaignRepository(db),
		repository.NewIntentRepository(db),
		repository.NewDonationRepository(db),
		repository.NewPledgeRepository(db),
		ledger.New(db),
		noopCharge{},
		livesync.NewHub(),
		db,
		&config.Config{MinDonationAmount: 500},
	)

	events := repository.NewProviderEventRepository(db)
	processor := NewConfirmationProcessor(events, fundingSvc, slog.Default(), time.Second, 50)
	return processor, events
}

func insertProviderEvent(t *testing.T, events *repository.ProviderEventRepository, intentID uuid.UUID, status, reason string) *repository.ProviderEvent {
	t.Helper()

	payload, _ := json.Marshal(confirmationPayload{
		EventID:  uuid.NewString(),
		IntentID: intentID.String(),
		Status:   status,
		Reason:   reason,
	})

	eventType := "charge.completed"
	if status != "completed" {
		eventType = "charge.failed"
	}

	event := &repository.ProviderEvent{
		ID:             uuid.New(),
		IdempotencyKey: uuid.NewString(),
		EventType:      eventType,
		Payload:        payload,
		Status:         repository.ProviderEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, events.Create(context.Background(), event))
	return event
}

func eventStatus(t *testing.T, db *sql.DB, id uuid.UUID) string {
	t.Helper()
	var status string
	require.NoError(t, db.QueryRow(`SELECT status FROM provider_events WHERE id = $1`, id).Scan(&status))
	return status
}

func TestConfirmationProcessor_CompletedEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	processor, events := setupConfirmationTest(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	intent := testutil.SeedIntent(t, db, donor.ID, campaign.ID, 8_000)

	event := insertProviderEvent(t, events, intent.ID, "completed", "")

	processor.poll(ctx)

	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(8_000), raised)
	assert.Equal(t, int64(1), revision)
	assert.Equal(t, "processed", eventStatus(t, db, event.ID))

	var intentStatus string
	require.NoError(t, db.QueryRow(`SELECT status FROM donation_intents WHERE id = $1`, intent.ID).Scan(&intentStatus))
	assert.Equal(t, "confirmed", intentStatus)
}

func TestConfirmationProcessor_FailedEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	processor, events := setupConfirmationTest(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	intent := testutil.SeedIntent(t, db, donor.ID, campaign.ID, 8_000)

	event := insertProviderEvent(t, events, intent.ID, "failed", "insufficient balance")

	processor.poll(ctx)

	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Zero(t, raised, "failed charge never reaches the ledger")
	assert.Zero(t, revision)
	assert.Equal(t, "processed", eventStatus(t, db, event.ID))

	var intentStatus string
	var reason sql.NullString
	require.NoError(t, db.QueryRow(
		`SELECT status, failure_reason FROM donation_intents WHERE id = $1`, intent.ID,
	).Scan(&intentStatus, &reason))
	assert.Equal(t, "failed", intentStatus)
	assert.Equal(t, "insufficient balance", reason.String)
}

func TestConfirmationProcessor_RedeliveredEventAppliesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	processor, events := setupConfirmationTest(t, db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	intent := testutil.SeedIntent(t, db, donor.ID, campaign.ID, 8_000)

	// Two inbox rows for the same intent, as a provider retry produces.
	insertProviderEvent(t, events, intent.ID, "completed", "")
	insertProviderEvent(t, events, intent.ID, "completed", "")

	processor.poll(ctx)

	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(8_000), raised, "confirmation dedup absorbs the redelivery")
	assert.Equal(t, int64(1), revision)
	assert.Equal(t, 1, testutil.CountDonations(t, db, campaign.ID))
}

func TestConfirmationProcessor_MalformedPayloadMarkedFailed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	processor, events := setupConfirmationTest(t, db)
	ctx := context.Background()

	event := &repository.ProviderEvent{
		ID:             uuid.New(),
		IdempotencyKey: uuid.NewString(),
		EventType:      "charge.completed",
		Payload:        []byte(`{"intent_id": "not-a-uuid", "status": "completed"}`),
		Status:         repository.ProviderEventStatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, events.Create(ctx, event))

	processor.poll(ctx)

	assert.Equal(t, "failed", eventStatus(t, db, event.ID))
}
