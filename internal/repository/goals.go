package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nutrition-tracker-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// GoalRepository handles database operations for user goals
type GoalRepository struct {
	db DBTX
}

// NewGoalRepository creates a new goal repository
func NewGoalRepository(db DBTX) *GoalRepository {
	return &GoalRepository{db: db}
}

// GetByUserID retrieves the goals row for a user. A missing row is reported
// as ErrNotFound so callers can tell it apart from a failed query.
func (r *GoalRepository) GetByUserID(ctx context.Context, userID string) (*models.UserGoals, error) {
	query := `
		SELECT starting_weight, current_weight, target_weight, target_date,
		       daily_calories, protein, vegetables, carbs
		FROM user_goals
		WHERE user_id = $1
	`
	var goals models.UserGoals
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&goals.StartingWeight, &goals.CurrentWeight, &goals.TargetWeight, &goals.TargetDate.Time,
		&goals.DailyCalories, &goals.Protein, &goals.Vegetables, &goals.Carbs,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("goals for user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get goals: %w", err)
	}
	goals.TargetDate = models.DateOf(goals.TargetDate.Time)
	return &goals, nil
}

// Upsert inserts or replaces the goals row keyed by user ID
func (r *GoalRepository) Upsert(ctx context.Context, userID string, goals models.UserGoals, updatedAt time.Time) error {
	query := `
		INSERT INTO user_goals (
			user_id, starting_weight, current_weight, target_weight, target_date,
			daily_calories, protein, vegetables, carbs, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			starting_weight = EXCLUDED.starting_weight,
			current_weight = EXCLUDED.current_weight,
			target_weight = EXCLUDED.target_weight,
			target_date = EXCLUDED.target_date,
			daily_calories = EXCLUDED.daily_calories,
			protein = EXCLUDED.protein,
			vegetables = EXCLUDED.vegetables,
			carbs = EXCLUDED.carbs,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		userID, goals.StartingWeight, goals.CurrentWeight, goals.TargetWeight, goals.TargetDate.Time,
		goals.DailyCalories, goals.Protein, goals.Vegetables, goals.Carbs, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert goals: %w", err)
	}
	return nil
}
