package insights

import "github.com/shopspring/decimal"

// Threshold is one rung of the supporter ladder. MinAmount is cumulative
// impact in UGX.
type Threshold struct {
	Level     int
	Name      string
	MinAmount int64
}

var levelThresholds = []Threshold{
	{1, "Bronze Supporter", 0},
	{2, "Silver Supporter", 100_000},
	{3, "Gold Supporter", 500_000},
	{4, "Platinum Supporter", 1_000_000},
	{5, "Diamond Supporter", 2_000_000},
	{6, "Legacy Supporter", 5_000_000},
	{7, "Champion Supporter", 10_000_000},
}

// LevelForImpact returns the highest threshold whose minimum is at or below
// the given total impact.
func LevelForImpact(impact int64) Threshold {
	current := levelThresholds[0]
	for _, t := range levelThresholds {
		if impact >= t.MinAmount {
			current = t
		}
	}
	return current
}

// NextLevel returns the threshold after the current one, or the current one
// at the top of the ladder.
func NextLevel(impact int64) Threshold {
	for i, t := range levelThresholds {
		if impact >= t.MinAmount {
			continue
		}
		return levelThresholds[i]
	}
	return levelThresholds[len(levelThresholds)-1]
}

// LevelProgress is the rounded percentage of the way from the current
// threshold to the next, clamped to [0, 100]. At the top of the ladder the
// range is zero, so progress saturates at 100 instead of dividing by it.
func LevelProgress(impact int64) int64 {
	current := LevelForImpact(impact)
	next := NextLevel(impact)
	if next.MinAmount == current.MinAmount {
		return 100
	}

	progress := decimal.NewFromInt(impact - current.MinAmount).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(next.MinAmount - current.MinAmount)).
		Round(0).
		IntPart()

	return min(max(progress, 0), 100)
}
