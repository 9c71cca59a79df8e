package repository

import (
	"context"
	"fmt"
	"time"

	"nutrition-tracker-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// FoodLogRepository handles database operations for food logs
type FoodLogRepository struct {
	db DBTX
}

// NewFoodLogRepository creates a new food log repository
func NewFoodLogRepository(db DBTX) *FoodLogRepository {
	return &FoodLogRepository{db: db}
}

const foodLogColumns = `id, name, image_url, calories, protein, vegetables, carbs, fiber, sugar, logged_at`

func scanFoodEntry(row pgx.Row) (*models.FoodEntry, error) {
	var e models.FoodEntry
	err := row.Scan(
		&e.ID, &e.Name, &e.Image,
		&e.Nutrition.Calories, &e.Nutrition.Protein, &e.Nutrition.Vegetables,
		&e.Nutrition.Carbs, &e.Nutrition.Fiber, &e.Nutrition.Sugar,
		&e.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a food log and returns the stored row with its generated ID
func (r *FoodLogRepository) Create(ctx context.Context, userID string, entry models.NewFoodEntry) (*models.FoodEntry, error) {
	query := `
		INSERT INTO food_logs (user_id, name, image_url, calories, protein, vegetables, carbs, fiber, sugar, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + foodLogColumns

	n := entry.Nutrition
	created, err := scanFoodEntry(r.db.QueryRow(ctx, query,
		userID, entry.Name, entry.Image,
		n.Calories, n.Protein, n.Vegetables, n.Carbs, n.Fiber, n.Sugar,
		entry.Timestamp,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create food log: %w", err)
	}
	return created, nil
}

// ListByRange retrieves a user's food logs with logged_at in [start, end),
// most recent first
func (r *FoodLogRepository) ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.FoodEntry, error) {
	query := `
		SELECT ` + foodLogColumns + `
		FROM food_logs
		WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3
		ORDER BY logged_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get food logs: %w", err)
	}
	defer rows.Close()

	entries := []models.FoodEntry{}
	for rows.Next() {
		e, err := scanFoodEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food log: %w", err)
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating food logs: %w", err)
	}

	return entries, nil
}

// Delete removes a food log owned by the user. Deleting a row that does not
// exist, or belongs to someone else, affects nothing and is not an error.
func (r *FoodLogRepository) Delete(ctx context.Context, id, userID string) error {
	query := `DELETE FROM food_logs WHERE id = $1 AND user_id = $2`
	if _, err := r.db.Exec(ctx, query, id, userID); err != nil {
		return fmt.Errorf("failed to delete food log: %w", err)
	}
	return nil
}
