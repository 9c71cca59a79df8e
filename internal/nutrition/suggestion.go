package nutrition

import (
	"math"
	"time"

	"nutrition-tracker-backend/internal/models"
)

const (
	// maintenanceFactor approximates maintenance kcal per kg of body weight
	maintenanceFactor = 22
	minDailyCalories  = 1200

	aggressiveDeficit = 500
	moderateDeficit   = 250

	aggressiveRate = 1.0 // kg per week
	moderateRate   = 0.5

	oneDay = 24 * time.Hour
)

// PaceTier is the calorie-deficit bucket selected by weekly rate
type PaceTier string

const (
	TierAggressive  PaceTier = "aggressive"
	TierModerate    PaceTier = "moderate"
	TierMaintenance PaceTier = "maintenance"
)

// Suggestion is the outcome of the calorie suggestion with its inputs exposed
type Suggestion struct {
	Calories   int      `json:"calories"`
	Tier       PaceTier `json:"tier"`
	WeeklyRate float64  `json:"weekly_rate"`
	DaysToGoal int      `json:"days_to_goal"`
	// GainGoal is set when the target weight is above the current weight.
	// The tiers only cover loss, so such goals get maintenance calories.
	GainGoal bool `json:"gain_goal"`
}

// SuggestDailyCalories returns the recommended daily calorie target
func SuggestDailyCalories(goals models.UserGoals, now time.Time) int {
	return Suggest(goals, now).Calories
}

// Suggest derives a daily calorie target from the weight goal and its horizon.
// A target date of today or earlier leaves no horizon to pace against and
// falls back to maintenance.
func Suggest(goals models.UserGoals, now time.Time) Suggestion {
	weightDiff := goals.CurrentWeight - goals.TargetWeight
	days := DaysToGoal(goals.TargetDate, now)

	s := Suggestion{
		DaysToGoal: days,
		GainGoal:   weightDiff < 0,
	}
	if days > 0 {
		s.WeeklyRate = weightDiff / float64(days) * 7
	}

	maintenance := goals.CurrentWeight * maintenanceFactor
	var kcal float64
	switch {
	case s.WeeklyRate > aggressiveRate:
		s.Tier = TierAggressive
		kcal = math.Max(minDailyCalories, maintenance-aggressiveDeficit)
	case s.WeeklyRate > moderateRate:
		s.Tier = TierModerate
		kcal = math.Max(minDailyCalories, maintenance-moderateDeficit)
	default:
		s.Tier = TierMaintenance
		kcal = maintenance
	}
	s.Calories = int(math.Round(kcal))
	return s
}

// DaysToGoal returns the whole days, rounded up, from now until the target
// date's UTC midnight. Zero or negative means the date is not in the future.
func DaysToGoal(target models.Date, now time.Time) int {
	return int(math.Ceil(float64(target.Sub(now)) / float64(oneDay)))
}
