// Package insights derives the user-facing dashboard aggregates from funding
// history. Everything here is a pure function of its inputs plus an explicit
// clock, so the package carries no state and no failure modes.
package insights

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/dmugisha/fundflow-backend/internal/domain"
)

// DonationRecord is one realized donation joined with its campaign's
// category. Donations written as part of pledge fulfillment are excluded by
// the query that produces these records; the fulfilled pledge carries that
// amount instead.
type DonationRecord struct {
	Amount    int64
	Category  string
	CreatedAt time.Time
}

type PledgeRecord struct {
	Amount    int64
	Category  string
	Status    domain.PledgeStatus
	CreatedAt time.Time
}

// FundingPercent is the raw, uncapped funding percentage shown to organizers
// and admins: round(100 * (raised + pledged) / target). Campaign creation
// guarantees target > 0.
func FundingPercent(raised, pledged, target int64) int64 {
	return decimal.NewFromInt(raised + pledged).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(target)).
		Round(0).
		IntPart()
}

// ProgressWidth caps the percentage at 100 for progress-bar rendering.
func ProgressWidth(raised, pledged, target int64) int64 {
	return min(FundingPercent(raised, pledged, target), 100)
}

// DaysRemaining is the whole days left until end, rounded up. Zero or
// negative means the campaign has ended.
func DaysRemaining(end, now time.Time) int {
	remaining := end.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// TotalImpact is the sum of all donations plus fulfilled pledges only.
// Pending, due, and expired pledges are promises, not realized impact.
func TotalImpact(donations []DonationRecord, pledges []PledgeRecord) int64 {
	var total int64
	for _, d := range donations {
		total += d.Amount
	}
	for _, p := range pledges {
		if p.Status == domain.PledgeStatusFulfilled {
			total += p.Amount
		}
	}
	return total
}

// CategoryBreakdown sums donations and fulfilled pledges per campaign
// category.
func CategoryBreakdown(donations []DonationRecord, pledges []PledgeRecord) map[string]int64 {
	breakdown := make(map[string]int64)
	for _, d := range donations {
		if d.Category != "" {
			breakdown[d.Category] += d.Amount
		}
	}
	for _, p := range pledges {
		if p.Status == domain.PledgeStatusFulfilled && p.Category != "" {
			breakdown[p.Category] += p.Amount
		}
	}
	return breakdown
}

// TopCategory returns the category with the largest summed amount and the
// number of distinct categories. Ties break toward the category encountered
// first in the history, which the stable sort preserves; the input slices
// arrive ordered by creation time. With no history the top category is empty
// and the count zero.
func TopCategory(donations []DonationRecord, pledges []PledgeRecord) (string, int) {
	breakdown := CategoryBreakdown(donations, pledges)
	if len(breakdown) == 0 {
		return "", 0
	}

	categories := make([]string, 0, len(breakdown))
	seen := make(map[string]bool, len(breakdown))
	record := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	for _, d := range donations {
		record(d.Category)
	}
	for _, p := range pledges {
		if p.Status == domain.PledgeStatusFulfilled {
			record(p.Category)
		}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		return breakdown[categories[i]] > breakdown[categories[j]]
	})

	return categories[0], len(breakdown)
}

// AccountAgeWeeks is the account age in whole weeks, floored to a minimum of
// one so a brand-new account never shows zero.
func AccountAgeWeeks(createdAt, now time.Time) int {
	weeks := int(now.Sub(createdAt) / (7 * 24 * time.Hour))
	return max(1, weeks)
}

// MonthlyGrowth compares impact accrued this calendar month-to-date against
// the full previous calendar month, as a rounded percentage. A previous month
// of zero yields 100 when anything accrued this month and 0 otherwise,
// treating "nothing to something" as full growth rather than dividing by
// zero.
func MonthlyGrowth(donations []DonationRecord, pledges []PledgeRecord, now time.Time) int64 {
	thisMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	lastMonthStart := thisMonthStart.AddDate(0, -1, 0)

	var thisMonth, lastMonth int64
	accrue := func(amount int64, at time.Time) {
		switch {
		case !at.Before(thisMonthStart):
			thisMonth += amount
		case !at.Before(lastMonthStart):
			lastMonth += amount
		}
	}

	for _, d := range donations {
		accrue(d.Amount, d.CreatedAt)
	}
	for _, p := range pledges {
		if p.Status == domain.PledgeStatusFulfilled {
			accrue(p.Amount, p.CreatedAt)
		}
	}

	if lastMonth == 0 {
		if thisMonth > 0 {
			return 100
		}
		return 0
	}

	return decimal.NewFromInt(thisMonth - lastMonth).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(lastMonth)).
		Round(0).
		IntPart()
}

// Metrics is the combined dashboard projection.
type Metrics struct {
	AccountAgeWeeks     int    `json:"account_age_weeks"`
	TotalImpact         int64  `json:"total_impact"`
	UniqueCategories    int    `json:"unique_categories"`
	TopCategory         string `json:"top_category,omitempty"`
	CurrentLevel        int    `json:"current_level"`
	CurrentLevelName    string `json:"current_level_name"`
	ProgressToNextLevel int64  `json:"progress_to_next_level"`
	NextLevelName       string `json:"next_level_name"`
	MonthlyGrowthPct    int64  `json:"monthly_growth_pct"`
}

func Compute(accountCreatedAt time.Time, donations []DonationRecord, pledges []PledgeRecord, now time.Time) Metrics {
	impact := TotalImpact(donations, pledges)
	top, unique := TopCategory(donations, pledges)
	level := LevelForImpact(impact)

	return Metrics{
		AccountAgeWeeks:     AccountAgeWeeks(accountCreatedAt, now),
		TotalImpact:         impact,
		UniqueCategories:    unique,
		TopCategory:         top,
		CurrentLevel:        level.Level,
		CurrentLevelName:    level.Name,
		ProgressToNextLevel: LevelProgress(impact),
		NextLevelName:       NextLevel(impact).Name,
		MonthlyGrowthPct:    MonthlyGrowth(donations, pledges, now),
	}
}
