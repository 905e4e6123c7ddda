package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

func TestFundingPercent(t *testing.T) {
	tests := []struct {
		name    string
		raised  int64
		pledged int64
		target  int64
		want    int64
	}{
		{"raised plus pledged", 2500, 1000, 10000, 35},
		{"raised only", 5000, 0, 10000, 50},
		{"zero funding", 0, 0, 10000, 0},
		{"rounds half up", 125, 0, 1000, 13},
		{"rounds down", 124, 0, 1000, 12},
		{"overfunded is uncapped", 15000, 0, 10000, 150},
		{"exactly funded", 7000, 3000, 10000, 100},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FundingPercent(tc.raised, tc.pledged, tc.target))
		})
	}
}

func TestProgressWidth_CapsAtHundred(t *testing.T) {
	assert.Equal(t, int64(150), FundingPercent(15000, 0, 10000))
	assert.Equal(t, int64(100), ProgressWidth(15000, 0, 10000))
	assert.Equal(t, int64(35), ProgressWidth(2500, 1000, 10000))
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"partial day rounds up", now.Add(36 * time.Hour), 2},
		{"exact days", now.Add(72 * time.Hour), 3},
		{"less than a day", now.Add(2 * time.Hour), 1},
		{"ended now", now, 0},
		{"already ended", now.Add(-48 * time.Hour), -2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DaysRemaining(tc.end, now))
		})
	}
}

func TestTotalImpact_CountsOnlyFulfilledPledges(t *testing.T) {
	now := time.Now()
	donations := []DonationRecord{
		{Amount: 10_000, Category: "Medical", CreatedAt: now},
		{Amount: 5_000, Category: "Education", CreatedAt: now},
	}
	pledges := []PledgeRecord{
		{Amount: 20_000, Category: "Medical", Status: domain.PledgeStatusFulfilled, CreatedAt: now},
		{Amount: 7_000, Category: "Medical", Status: domain.PledgeStatusPending, CreatedAt: now},
		{Amount: 3_000, Category: "Medical", Status: domain.PledgeStatusDue, CreatedAt: now},
		{Amount: 9_000, Category: "Medical", Status: domain.PledgeStatusExpired, CreatedAt: now},
	}

	assert.Equal(t, int64(35_000), TotalImpact(donations, pledges))
}

func TestTopCategory(t *testing.T) {
	now := time.Now()

	t.Run("empty history", func(t *testing.T) {
		top, unique := TopCategory(nil, nil)
		assert.Equal(t, "", top)
		assert.Equal(t, 0, unique)
	})

	t.Run("largest amount wins", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 5_000, Category: "Education", CreatedAt: now},
			{Amount: 8_000, Category: "Medical", CreatedAt: now},
		}
		pledges := []PledgeRecord{
			{Amount: 4_000, Category: "Education", Status: domain.PledgeStatusFulfilled, CreatedAt: now},
		}
		top, unique := TopCategory(donations, pledges)
		assert.Equal(t, "Education", top)
		assert.Equal(t, 2, unique)
	})

	t.Run("tie breaks toward first encountered", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 5_000, Category: "Medical", CreatedAt: now},
			{Amount: 5_000, Category: "Education", CreatedAt: now},
		}
		top, _ := TopCategory(donations, nil)
		assert.Equal(t, "Medical", top)
	})

	t.Run("tie against a later fulfilled pledge keeps the earlier donation category", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 7_000, Category: "Sports", CreatedAt: now},
		}
		pledges := []PledgeRecord{
			{Amount: 7_000, Category: "Emergency", Status: domain.PledgeStatusFulfilled, CreatedAt: now},
		}
		top, unique := TopCategory(donations, pledges)
		assert.Equal(t, "Sports", top)
		assert.Equal(t, 2, unique)
	})

	t.Run("unfulfilled pledges carry no weight", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 1_000, Category: "Sports", CreatedAt: now},
		}
		pledges := []PledgeRecord{
			{Amount: 100_000, Category: "Medical", Status: domain.PledgeStatusPending, CreatedAt: now},
		}
		top, unique := TopCategory(donations, pledges)
		assert.Equal(t, "Sports", top)
		assert.Equal(t, 1, unique)
	})
}

func TestAccountAgeWeeks(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, AccountAgeWeeks(now, now), "brand-new account shows one week")
	assert.Equal(t, 1, AccountAgeWeeks(now.AddDate(0, 0, -3), now))
	assert.Equal(t, 2, AccountAgeWeeks(now.AddDate(0, 0, -14), now))
	assert.Equal(t, 52, AccountAgeWeeks(now.AddDate(0, 0, -365), now))
}

func TestMonthlyGrowth(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	thisMonth := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	older := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	t.Run("no history", func(t *testing.T) {
		assert.Equal(t, int64(0), MonthlyGrowth(nil, nil, now))
	})

	t.Run("zero last month with activity counts as full growth", func(t *testing.T) {
		donations := []DonationRecord{{Amount: 5_000, Category: "Medical", CreatedAt: thisMonth}}
		assert.Equal(t, int64(100), MonthlyGrowth(donations, nil, now))
	})

	t.Run("doubled", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 10_000, Category: "Medical", CreatedAt: thisMonth},
			{Amount: 5_000, Category: "Medical", CreatedAt: lastMonth},
		}
		assert.Equal(t, int64(100), MonthlyGrowth(donations, nil, now))
	})

	t.Run("declined", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 2_500, Category: "Medical", CreatedAt: thisMonth},
			{Amount: 10_000, Category: "Medical", CreatedAt: lastMonth},
		}
		assert.Equal(t, int64(-75), MonthlyGrowth(donations, nil, now))
	})

	t.Run("older history is ignored", func(t *testing.T) {
		donations := []DonationRecord{
			{Amount: 1_000_000, Category: "Medical", CreatedAt: older},
		}
		assert.Equal(t, int64(0), MonthlyGrowth(donations, nil, now))
	})

	t.Run("fulfilled pledges accrue", func(t *testing.T) {
		pledges := []PledgeRecord{
			{Amount: 6_000, Category: "Medical", Status: domain.PledgeStatusFulfilled, CreatedAt: thisMonth},
			{Amount: 4_000, Category: "Medical", Status: domain.PledgeStatusFulfilled, CreatedAt: lastMonth},
			{Amount: 50_000, Category: "Medical", Status: domain.PledgeStatusPending, CreatedAt: thisMonth},
		}
		assert.Equal(t, int64(50), MonthlyGrowth(nil, pledges, now))
	})
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -28)
	donations := []DonationRecord{
		{Amount: 60_000, Category: "Medical", CreatedAt: now.AddDate(0, 0, -2)},
		{Amount: 40_000, Category: "Education", CreatedAt: now.AddDate(0, 0, -20)},
	}

	m := Compute(created, donations, nil, now)

	assert.Equal(t, 4, m.AccountAgeWeeks)
	assert.Equal(t, int64(100_000), m.TotalImpact)
	assert.Equal(t, 2, m.UniqueCategories)
	assert.Equal(t, "Medical", m.TopCategory)
	assert.Equal(t, 2, m.CurrentLevel)
	assert.Equal(t, "Silver Supporter", m.CurrentLevelName)
	assert.Equal(t, "Gold Supporter", m.NextLevelName)
	assert.Equal(t, int64(0), m.ProgressToNextLevel)
	assert.Equal(t, int64(50), m.MonthlyGrowthPct)
}
