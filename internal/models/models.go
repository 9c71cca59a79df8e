package models

import (
	"fmt"
	"time"
)

// User represents an anonymous person using the tracker
type User struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// NutritionData holds consumed amounts for a single meal.
// Fiber and Sugar are informational and never compared against goals.
type NutritionData struct {
	Calories   int `json:"calories"`
	Protein    int `json:"protein"`
	Vegetables int `json:"vegetables"`
	Carbs      int `json:"carbs"`
	Fiber      int `json:"fiber"`
	Sugar      int `json:"sugar"`
}

// FoodEntry represents a logged meal
type FoodEntry struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Image     string        `json:"image"`
	Nutrition NutritionData `json:"nutrition"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewFoodEntry is a meal candidate that has not been stored yet
type NewFoodEntry struct {
	Name      string        `json:"name"`
	Image     string        `json:"image"`
	Nutrition NutritionData `json:"nutrition"`
	Timestamp time.Time     `json:"timestamp"`
}

// NutritionTotals is the field-wise sum of a day's entries
type NutritionTotals struct {
	Calories   int `json:"calories"`
	Protein    int `json:"protein"`
	Vegetables int `json:"vegetables"`
	Carbs      int `json:"carbs"`
	Fiber      int `json:"fiber"`
	Sugar      int `json:"sugar"`
}

// UserGoals is the goal snapshot for one person
type UserGoals struct {
	StartingWeight float64 `json:"starting_weight"`
	CurrentWeight  float64 `json:"current_weight"`
	TargetWeight   float64 `json:"target_weight"`
	TargetDate     Date    `json:"target_date"`
	DailyCalories  int     `json:"daily_calories"`
	Protein        int     `json:"protein"`
	Vegetables     int     `json:"vegetables"`
	Carbs          int     `json:"carbs"`
}

// DefaultUserGoals returns the goals used until a stored record exists
func DefaultUserGoals() UserGoals {
	return UserGoals{
		StartingWeight: 70,
		CurrentWeight:  70,
		TargetWeight:   65,
		TargetDate:     NewDate(2025, time.February, 28),
		DailyCalories:  1800,
		Protein:        120,
		Vegetables:     400,
		Carbs:          200,
	}
}

// Validate checks that every goal value is set and positive
func (g UserGoals) Validate() error {
	switch {
	case g.StartingWeight <= 0:
		return fmt.Errorf("starting_weight must be positive")
	case g.CurrentWeight <= 0:
		return fmt.Errorf("current_weight must be positive")
	case g.TargetWeight <= 0:
		return fmt.Errorf("target_weight must be positive")
	case g.TargetDate.IsZero():
		return fmt.Errorf("target_date is required")
	case g.DailyCalories <= 0:
		return fmt.Errorf("daily_calories must be positive")
	case g.Protein <= 0:
		return fmt.Errorf("protein must be positive")
	case g.Vegetables <= 0:
		return fmt.Errorf("vegetables must be positive")
	case g.Carbs <= 0:
		return fmt.Errorf("carbs must be positive")
	}
	return nil
}
