package ledger_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmugisha/fundflow-backend/internal/domain"
	"github.com/dmugisha/fundflow-backend/internal/ledger"
	"github.com/dmugisha/fundflow-backend/internal/testutil"
)

func inTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx) error) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	if err := fn(tx); err != nil {
		tx.Rollback()
		t.Fatalf("tx func: %v", err)
	}
	require.NoError(t, tx.Commit())
}

func TestLedger_ApplyAndReverse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	var snap *domain.FundingSnapshot
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		snap, err = l.Apply(ctx, tx, campaign.ID, ledger.KindDonation, 7_000)
		return err
	})
	assert.Equal(t, int64(7_000), snap.RaisedAmount)
	assert.Equal(t, int64(0), snap.PledgedAmount)
	assert.Equal(t, int64(1), snap.Revision)

	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		snap, err = l.Apply(ctx, tx, campaign.ID, ledger.KindPledge, 3_000)
		return err
	})
	assert.Equal(t, int64(7_000), snap.RaisedAmount)
	assert.Equal(t, int64(3_000), snap.PledgedAmount)
	assert.Equal(t, int64(2), snap.Revision)

	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		snap, err = l.Reverse(ctx, tx, campaign.ID, ledger.KindPledge, 3_000)
		return err
	})
	assert.Equal(t, int64(0), snap.PledgedAmount)
	assert.Equal(t, int64(3), snap.Revision)
}

func TestLedger_FulfillMovesPledgedToRaisedAtomically(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	inTx(t, db, func(tx *sql.Tx) error {
		_, err := l.Apply(ctx, tx, campaign.ID, ledger.KindPledge, 12_000)
		return err
	})

	var snap *domain.FundingSnapshot
	inTx(t, db, func(tx *sql.Tx) error {
		var err error
		snap, err = l.Fulfill(ctx, tx, campaign.ID, 12_000)
		return err
	})

	assert.Equal(t, int64(12_000), snap.RaisedAmount)
	assert.Equal(t, int64(0), snap.PledgedAmount)
	assert.Equal(t, int64(2), snap.Revision, "move is a single revision bump")
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = l.Apply(ctx, tx, campaign.ID, ledger.KindDonation, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = l.Reverse(ctx, tx, campaign.ID, ledger.KindPledge, -5)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = l.Fulfill(ctx, tx, campaign.ID, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestLedger_UnknownCampaign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db)
	ctx := context.Background()

	tx, err := db.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = l.Apply(ctx, tx, uuid.New(), ledger.KindDonation, 1_000)
	require.ErrorIs(t, err, domain.ErrCampaignNotFound)

	_, err = l.Snapshot(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrCampaignNotFound)
}

func TestLedger_Snapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	l := ledger.New(db)
	ctx := context.Background()

	owner := testutil.SeedUser(t, db, "owner@test.com", domain.UserRoleUser)
	campaign := testutil.SeedCampaign(t, db, owner.ID, domain.CampaignStatusApproved, 100_000)

	inTx(t, db, func(tx *sql.Tx) error {
		_, err := l.Apply(ctx, tx, campaign.ID, ledger.KindDonation, 4_000)
		return err
	})

	snap, err := l.Snapshot(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, campaign.ID, snap.CampaignID)
	assert.Equal(t, int64(4_000), snap.RaisedAmount)
	assert.Equal(t, domain.CampaignStatusApproved, snap.Status)
	assert.Equal(t, int64(1), snap.Revision)
}
