// Package nutrition holds the stateless computations behind the daily
// summary: totals, calorie suggestion and progress evaluation.
package nutrition

import "nutrition-tracker-backend/internal/models"

// Aggregate sums every nutrition field across entries, starting from zero.
func Aggregate(entries []models.FoodEntry) models.NutritionTotals {
	var totals models.NutritionTotals
	for _, e := range entries {
		totals = Add(totals, e.Nutrition)
	}
	return totals
}

// Add returns totals increased by n
func Add(totals models.NutritionTotals, n models.NutritionData) models.NutritionTotals {
	return models.NutritionTotals{
		Calories:   totals.Calories + n.Calories,
		Protein:    totals.Protein + n.Protein,
		Vegetables: totals.Vegetables + n.Vegetables,
		Carbs:      totals.Carbs + n.Carbs,
		Fiber:      totals.Fiber + n.Fiber,
		Sugar:      totals.Sugar + n.Sugar,
	}
}

// Sub returns totals decreased by n
func Sub(totals models.NutritionTotals, n models.NutritionData) models.NutritionTotals {
	return models.NutritionTotals{
		Calories:   totals.Calories - n.Calories,
		Protein:    totals.Protein - n.Protein,
		Vegetables: totals.Vegetables - n.Vegetables,
		Carbs:      totals.Carbs - n.Carbs,
		Fiber:      totals.Fiber - n.Fiber,
		Sugar:      totals.Sugar - n.Sugar,
	}
}
