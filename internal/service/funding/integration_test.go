package funding_test

import (
	"context"
	"database/sql"
	"sync"
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

type stubProvider struct {
	mu        sync.Mutex
	submitted []funding.ChargeRequest
	err       error
}

func (p *stubProvider) SubmitCharge(_ context.Context, req funding.ChargeRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.submitted = append(p.submitted, req)
	return nil
}

func setupFundingService(t *testing.T, db *sql.DB, provider *stubProvider) *funding.Service {
	t.Helper()
	return funding.NewService(
		repository.NewCampaignRepository(db),
		repository.NewIntentRepository(db),
		repository.NewDonationRepository(db),
		repository.NewPledgeRepository(db),
		ledger.New(db),
		provider,
		livesync.NewHub(),
		db,
		&config.Config{MinDonationAmount: 500},
	)
}

// seedOverduePledge inserts a pledge already past its due date with its
// amount applied to the campaign, the state the lifecycle worker finds.
func seedOverduePledge(t *testing.T, db *sql.DB, userID, campaignID uuid.UUID, amount int64) uuid.UUID {
	t.Helper()

	pledgeID := uuid.New()
	_, err := db.Exec(
		`INSERT INTO pledges (id, user_id, campaign_id, amount, due_date, status, idempotency_key)
		 VALUES ($1, $2, $3, $4, now() - interval '10 days', 'DUE', $5)`,
		pledgeID, userID, campaignID, amount, uuid.NewString(),
	)
	require.NoError(t, err)

	_, err = db.Exec(
		`UPDATE campaigns SET pledged_amount = pledged_amount + $1, revision = revision + 1 WHERE id = $2`,
		amount, campaignID,
	)
	require.NoError(t, err)
	return pledgeID
}

func TestInitiateDonation_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	provider := &stubProvider{}
	svc := setupFundingService(t, db, provider)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	approved := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	pending := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusPending, 100_000)

	tests := []struct {
		name       string
		campaignID uuid.UUID
		amount     int64
		method     domain.PaymentMethod
		wantErr    error
	}{
		{"zero amount", approved.ID, 0, domain.PaymentMethodMTN, domain.ErrInvalidAmount},
		{"negative amount", approved.ID, -100, domain.PaymentMethodMTN, domain.ErrInvalidAmount},
		{"below the floor", approved.ID, 499, domain.PaymentMethodMTN, domain.ErrAmountBelowMinimum},
		{"unknown method", approved.ID, 1000, domain.PaymentMethod("PAYPAL"), domain.ErrInvalidRequest},
		{"pending campaign", pending.ID, 1000, domain.PaymentMethodMTN, domain.ErrCampaignNotFundable},
		{"unknown campaign", uuid.New(), 1000, domain.PaymentMethodMTN, domain.ErrCampaignNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.InitiateDonation(ctx, donor.ID, tc.campaignID, tc.amount, tc.method)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}

	assert.Empty(t, provider.submitted, "no charge reaches the provider on validation failure")

	raised, pledged, revision := testutil.GetFundingTotals(t, db, approved.ID)
	assert.Zero(t, raised)
	assert.Zero(t, pledged)
	assert.Zero(t, revision)
}

func TestInitiateDonation_HandsChargeToProvider(t *testing.T) {
	db := testutil.SetupTestDB(t)
	provider := &stubProvider{}
	svc := setupFundingService(t, db, provider)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	intent, err := svc.InitiateDonation(ctx, donor.ID, campaign.ID, 5_000, domain.PaymentMethodAirtel)
	require.NoError(t, err)
	assert.Equal(t, domain.IntentStatusPending, intent.Status)

	require.Len(t, provider.submitted, 1)
	assert.Equal(t, intent.ID, provider.submitted[0].IntentID)
	assert.Equal(t, int64(5_000), provider.submitted[0].Amount)

	// The charge is only initiated: nothing has touched the ledger.
	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Zero(t, raised)
	assert.Zero(t, revision)
}

func TestConfirmDonation_AppliesExactlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	intent := testutil.SeedIntent(t, db, donor.ID, campaign.ID, 10_000)

	first, err := svc.ConfirmDonation(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), first.Amount)

	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(10_000), raised)
	assert.Equal(t, int64(1), revision)

	// A redelivered confirmation resolves to the original donation.
	second, err := svc.ConfirmDonation(ctx, intent.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	raised, _, revision = testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(10_000), raised, "redelivery does not double apply")
	assert.Equal(t, int64(1), revision)
	assert.Equal(t, 1, testutil.CountDonations(t, db, campaign.ID))
}

func TestConfirmDonation_FailedIntentIsTerminal(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	intent := testutil.SeedIntent(t, db, donor.ID, campaign.ID, 8_000)

	require.NoError(t, svc.FailDonation(ctx, intent.ID, "insufficient balance"))

	// A success report arriving after the failure must not apply funding.
	_, err := svc.ConfirmDonation(ctx, intent.ID)
	require.ErrorIs(t, err, domain.ErrIntentNotPending)

	raised, pledged, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Zero(t, raised)
	assert.Zero(t, pledged)
	assert.Zero(t, revision)
	assert.Zero(t, testutil.CountDonations(t, db, campaign.ID))
}

func TestConfirmDonation_ConcurrentSumInvariant(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	donor := testutil.SeedUser(t, db, "donor@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 10_000_000)

	const donors = 20
	const amount int64 = 1_000

	intents := make([]uuid.UUID, donors)
	for i := range donors {
		intents[i] = testutil.SeedIntent(t, db, donor.ID, campaign.ID, amount).ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, donors)
	for i := range donors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ConfirmDonation(ctx, intents[i])
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	raised, _, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, amount*donors, raised, "no lost updates under concurrency")
	assert.Equal(t, int64(donors), revision)
	assert.Equal(t, donors, testutil.CountDonations(t, db, campaign.ID))

	// The audit-side sum must agree with the aggregated column.
	sum, err := repository.NewDonationRepository(db).SumByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, raised, sum)
}

func TestSubmitPledge_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	suspended := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusSuspended, 100_000)

	future := time.Now().UTC().Add(30 * 24 * time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	tests := []struct {
		name       string
		campaignID uuid.UUID
		amount     int64
		dueDate    time.Time
		idemKey    string
		wantErr    error
	}{
		{"zero amount", campaign.ID, 0, future, uuid.NewString(), domain.ErrInvalidAmount},
		{"past due date", campaign.ID, 1000, past, uuid.NewString(), domain.ErrInvalidDueDate},
		{"due date now", campaign.ID, 1000, time.Now().UTC(), uuid.NewString(), domain.ErrInvalidDueDate},
		{"missing idempotency key", campaign.ID, 1000, future, "", domain.ErrInvalidRequest},
		{"suspended campaign", suspended.ID, 1000, future, uuid.NewString(), domain.ErrCampaignNotFundable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.SubmitPledge(ctx, backer.ID, tc.campaignID, tc.amount, tc.dueDate, tc.idemKey)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestSubmitPledge_IdempotentOnRetry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	key := uuid.NewString()
	dueDate := time.Now().UTC().Add(14 * 24 * time.Hour)

	first, err := svc.SubmitPledge(ctx, backer.ID, campaign.ID, 20_000, dueDate, key)
	require.NoError(t, err)

	second, err := svc.SubmitPledge(ctx, backer.ID, campaign.ID, 20_000, dueDate, key)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "retry resolves to the original pledge")

	_, pledged, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(20_000), pledged, "pledged exactly once")
	assert.Equal(t, int64(1), revision)
}

func TestExpirePledge_ReversesExactlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	pledgeID := seedOverduePledge(t, db, backer.ID, campaign.ID, 15_000)

	_, pledged, _ := testutil.GetFundingTotals(t, db, campaign.ID)
	require.Equal(t, int64(15_000), pledged)

	expired, err := svc.ExpirePledge(ctx, pledgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeStatusExpired, expired.Status)

	_, pledged, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Zero(t, pledged)
	assert.Equal(t, int64(2), revision)

	// Expiring again is a no-op, not a second reversal.
	again, err := svc.ExpirePledge(ctx, pledgeID)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeStatusExpired, again.Status)

	_, pledged, revision = testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Zero(t, pledged)
	assert.Equal(t, int64(2), revision, "repeat expiry leaves the ledger untouched")
}

func TestExpirePledge_NotYetDue(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	pledge, err := svc.SubmitPledge(ctx, backer.ID, campaign.ID, 5_000,
		time.Now().UTC().Add(30*24*time.Hour), uuid.NewString())
	require.NoError(t, err)

	_, err = svc.ExpirePledge(ctx, pledge.ID)
	require.ErrorIs(t, err, domain.ErrPledgeNotDue)

	_, pledged, _ := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(5_000), pledged)
}

func TestFulfillPledge_NoDoubleCounting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	pledge, err := svc.SubmitPledge(ctx, backer.ID, campaign.ID, 25_000,
		time.Now().UTC().Add(7*24*time.Hour), uuid.NewString())
	require.NoError(t, err)

	fulfilled, err := svc.FulfillPledge(ctx, pledge.ID, domain.PaymentMethodMTN)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeStatusFulfilled, fulfilled.Status)

	// The amount moved pledged→raised in one revision; the total committed
	// funding never dipped or doubled.
	raised, pledged, revision := testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(25_000), raised)
	assert.Zero(t, pledged)
	assert.Equal(t, int64(2), revision)

	// The linked donation row exists for the audit trail but is excluded
	// from the backer's impact; the fulfilled pledge carries it instead.
	assert.Equal(t, 1, testutil.CountDonations(t, db, campaign.ID))

	history := repository.NewHistoryRepository(db)
	donations, err := history.DonationHistory(ctx, backer.ID)
	require.NoError(t, err)
	assert.Empty(t, donations, "fulfillment donation does not appear as direct impact")

	pledges, err := history.PledgeHistory(ctx, backer.ID)
	require.NoError(t, err)
	require.Len(t, pledges, 1)
	assert.Equal(t, domain.PledgeStatusFulfilled, pledges[0].Status)
	assert.Equal(t, int64(25_000), pledges[0].Amount)

	// Fulfilling again is a no-op.
	again, err := svc.FulfillPledge(ctx, pledge.ID, domain.PaymentMethodMTN)
	require.NoError(t, err)
	assert.Equal(t, domain.PledgeStatusFulfilled, again.Status)

	raised, pledged, revision = testutil.GetFundingTotals(t, db, campaign.ID)
	assert.Equal(t, int64(25_000), raised)
	assert.Zero(t, pledged)
	assert.Equal(t, int64(2), revision)
	assert.Equal(t, 1, testutil.CountDonations(t, db, campaign.ID))
}

func TestFulfillPledge_ExpiredPledgeRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupFundingService(t, db, &stubProvider{})
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	backer := testutil.SeedUser(t, db, "backer@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)
	pledgeID := seedOverduePledge(t, db, backer.ID, campaign.ID, 5_000)

	_, err := svc.ExpirePledge(ctx, pledgeID)
	require.NoError(t, err)

	_, err = svc.FulfillPledge(ctx, pledgeID, domain.PaymentMethodVisa)
	require.ErrorIs(t, err, domain.ErrPledgeNotOutstanding)
}
