package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

func SeedUser(t *testing.T, db *sql.DB, email string, role domain.UserRole) *domain.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     "Test User",
		PasswordHash: string(hash),
		Role:         role,
		Status:       domain.UserStatusActive,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = db.Exec(
		`INSERT INTO users (id, email, full_name, password_hash, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Email, u.FullName, u.PasswordHash, u.Role, u.Status, u.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func SeedCampaign(t *testing.T, db *sql.DB, ownerID uuid.UUID, status domain.CampaignStatus, target int64) *domain.Campaign {
	t.Helper()

	now := time.Now().UTC()
	c := &domain.Campaign{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Title:        "Test Campaign",
		Category:     "Medical",
		TargetAmount: target,
		StartDate:    now.Add(-24 * time.Hour),
		EndDate:      now.Add(30 * 24 * time.Hour),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := db.Exec(
		`INSERT INTO campaigns (id, owner_id, title, description, category, target_amount,
		 start_date, end_date, status, created_at, updated_at)
		 VALUES ($1, $2, $3, '', $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OwnerID, c.Title, c.Category, c.TargetAmount,
		c.StartDate, c.EndDate, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed campaign: %v", err)
	}
	return c
}

// SeedIntent inserts a pending donation intent, as if a charge had already
// been handed to the provider.
func SeedIntent(t *testing.T, db *sql.DB, userID, campaignID uuid.UUID, amount int64) *domain.DonationIntent {
	t.Helper()

	now := time.Now().UTC()
	in := &domain.DonationIntent{
		ID:            uuid.New(),
		UserID:        userID,
		CampaignID:    campaignID,
		Amount:        amount,
		PaymentMethod: domain.PaymentMethodMTN,
		Status:        domain.IntentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := db.Exec(
		`INSERT INTO donation_intents (id, user_id, campaign_id, amount, payment_method, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.ID, in.UserID, in.CampaignID, in.Amount, in.PaymentMethod, in.Status, in.CreatedAt, in.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed intent: %v", err)
	}
	return in
}

func GetFundingTotals(t *testing.T, db *sql.DB, campaignID uuid.UUID) (raised, pledged, revision int64) {
	t.Helper()

	err := db.QueryRow(
		`SELECT raised_amount, pledged_amount, revision FROM campaigns WHERE id = $1`,
		campaignID,
	).Scan(&raised, &pledged, &revision)
	if err != nil {
		t.Fatalf("get funding totals %s: %v", campaignID, err)
	}
	return raised, pledged, revision
}

func CountDonations(t *testing.T, db *sql.DB, campaignID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM donations WHERE campaign_id = $1`, campaignID).Scan(&count)
	if err != nil {
		t.Fatalf("count donations for campaign %s: %v", campaignID, err)
	}
	return count
}
