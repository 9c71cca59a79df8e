package nutrition

import (
	"math"
	"time"

	"nutrition-tracker-backend/internal/models"
)

// Tier is the status bucket of a nutrient relative to its target
type Tier string

const (
	TierGood Tier = "good"
	TierWarn Tier = "warn"
	TierBad  Tier = "bad"
)

const (
	goodThreshold = 90
	warnThreshold = 70
)

// Weight direction values
const (
	DirectionLose     = "lose"
	DirectionGain     = "gain"
	DirectionMaintain = "maintain"
)

// NutrientProgress describes one nutrient against its daily target
type NutrientProgress struct {
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	Current           int     `json:"current"`
	Target            int     `json:"target"`
	Percentage        int     `json:"percentage"`
	DisplayPercentage float64 `json:"display_percentage"`
	Status            Tier    `json:"status"`
}

// WeightProgress describes the weight goal
type WeightProgress struct {
	StartingWeight float64     `json:"starting_weight"`
	CurrentWeight  float64     `json:"current_weight"`
	TargetWeight   float64     `json:"target_weight"`
	TargetDate     models.Date `json:"target_date"`
	Remaining      float64     `json:"remaining"`
	Direction      string      `json:"direction"`
	Fraction       float64     `json:"fraction"`
	DaysToGoal     int         `json:"days_to_goal"`
}

// Summary is the evaluated view of a day's totals against the goals
type Summary struct {
	Totals     models.NutritionTotals `json:"totals"`
	Nutrients  []NutrientProgress     `json:"nutrients"`
	Weight     WeightProgress         `json:"weight"`
	Suggestion Suggestion             `json:"suggestion"`
}

func ratio(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return current * 100 / target
}

// DisplayPercentage is current/target as a percentage capped to [0, 100],
// suitable for bar widths.
func DisplayPercentage(current, target float64) float64 {
	p := ratio(current, target)
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// RoundedPercentage is the uncapped percentage rounded for labels
func RoundedPercentage(current, target float64) int {
	return int(math.Round(ratio(current, target)))
}

// StatusTier classifies current against target with fixed thresholds
func StatusTier(current, target float64) Tier {
	p := ratio(current, target)
	switch {
	case p >= goodThreshold:
		return TierGood
	case p >= warnThreshold:
		return TierWarn
	default:
		return TierBad
	}
}

// WeightGoalFraction reports how much of the way from the starting weight to
// the target weight has been covered, in [0, 1]. It works for loss and gain
// goals alike. When starting and target weight coincide there is no journey:
// the goal counts as reached only if the current weight is on target.
func WeightGoalFraction(goals models.UserGoals) float64 {
	span := goals.StartingWeight - goals.TargetWeight
	if span == 0 {
		if goals.CurrentWeight == goals.TargetWeight {
			return 1
		}
		return 0
	}
	f := (goals.StartingWeight - goals.CurrentWeight) / span
	return math.Min(math.Max(f, 0), 1)
}

// Evaluate builds the summary for the given totals and goals
func Evaluate(totals models.NutritionTotals, goals models.UserGoals, now time.Time) Summary {
	nutrients := []NutrientProgress{
		nutrientProgress("calories", "", totals.Calories, goals.DailyCalories),
		nutrientProgress("protein", "g", totals.Protein, goals.Protein),
		nutrientProgress("vegetables", "g", totals.Vegetables, goals.Vegetables),
		nutrientProgress("carbs", "g", totals.Carbs, goals.Carbs),
	}

	direction := DirectionMaintain
	switch {
	case goals.CurrentWeight > goals.TargetWeight:
		direction = DirectionLose
	case goals.CurrentWeight < goals.TargetWeight:
		direction = DirectionGain
	}

	return Summary{
		Totals:    totals,
		Nutrients: nutrients,
		Weight: WeightProgress{
			StartingWeight: goals.StartingWeight,
			CurrentWeight:  goals.CurrentWeight,
			TargetWeight:   goals.TargetWeight,
			TargetDate:     goals.TargetDate,
			Remaining:      math.Abs(goals.CurrentWeight - goals.TargetWeight),
			Direction:      direction,
			Fraction:       WeightGoalFraction(goals),
			DaysToGoal:     DaysToGoal(goals.TargetDate, now),
		},
		Suggestion: Suggest(goals, now),
	}
}

func nutrientProgress(name, unit string, current, target int) NutrientProgress {
	c, t := float64(current), float64(target)
	return NutrientProgress{
		Name:              name,
		Unit:              unit,
		Current:           current,
		Target:            target,
		Percentage:        RoundedPercentage(c, t),
		DisplayPercentage: DisplayPercentage(c, t),
		Status:            StatusTier(c, t),
	}
}
