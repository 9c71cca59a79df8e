package services

import (
	"context"
	"time"

	"nutrition-tracker-backend/internal/models"
)

// GoalRepository is the remote store for goal snapshots
type GoalRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserGoals, error)
	Upsert(ctx context.Context, userID string, goals models.UserGoals, updatedAt time.Time) error
}

// FoodLogRepository is the remote store for logged meals
type FoodLogRepository interface {
	Create(ctx context.Context, userID string, entry models.NewFoodEntry) (*models.FoodEntry, error)
	ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.FoodEntry, error)
	Delete(ctx context.Context, id, userID string) error
}

// StoreState is the lifecycle state of a per-person store
type StoreState string

const (
	StateUninitialized StoreState = "uninitialized"
	StateLoading       StoreState = "loading"
	StateReady         StoreState = "ready"
	StateClosed        StoreState = "closed"
)

// Event types published by the stores after a confirmed change
const (
	EventGoalsUpdated   = "goals_updated"
	EventFoodAdded      = "food_added"
	EventFoodDeleted    = "food_deleted"
	EventFoodsRefreshed = "foods_refreshed"
)

// Event describes a state change in one person's store
type Event struct {
	Type   string
	UserID string
	Data   interface{}
}

// Listener receives store events. It is called outside the store lock.
type Listener func(Event)

// lifetime ties remote calls to the owning store. Once closed, in-flight
// calls are cancelled and late results are dropped.
type lifetime struct {
	ctx    context.Context
	cancel context.CancelFunc
}

func newLifetime() lifetime {
	ctx, cancel := context.WithCancel(context.Background())
	return lifetime{ctx: ctx, cancel: cancel}
}

// bind derives a context that ends with either parent or the store
func (l lifetime) bind(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(l.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (l lifetime) closed() bool {
	return l.ctx.Err() != nil
}

func (l lifetime) close() {
	l.cancel()
}
