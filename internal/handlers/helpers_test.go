package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/repository"
	"nutrition-tracker-backend/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var errRemote = errors.New("remote store unavailable")

type memGoalRepo struct {
	mu       sync.Mutex
	rows     map[string]models.UserGoals
	fail     bool
	readFail bool
}

func (r *memGoalRepo) GetByUserID(ctx context.Context, userID string) (*models.UserGoals, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.readFail {
		return nil, errRemote
	}
	g, ok := r.rows[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &g, nil
}

func (r *memGoalRepo) Upsert(ctx context.Context, userID string, goals models.UserGoals, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemote
	}
	r.rows[userID] = goals
	return nil
}

type memFoodRepo struct {
	mu   sync.Mutex
	rows map[string][]models.FoodEntry
	fail bool
}

func (r *memFoodRepo) Create(ctx context.Context, userID string, entry models.NewFoodEntry) (*models.FoodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRemote
	}
	created := models.FoodEntry{
		ID:        uuid.New().String(),
		Name:      entry.Name,
		Image:     entry.Image,
		Nutrition: entry.Nutrition,
		Timestamp: entry.Timestamp,
	}
	r.rows[userID] = append(r.rows[userID], created)
	return &created, nil
}

func (r *memFoodRepo) ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.FoodEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.FoodEntry{}
	for _, e := range r.rows[userID] {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (r *memFoodRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRemote
	}
	kept := []models.FoodEntry{}
	for _, e := range r.rows[userID] {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	r.rows[userID] = kept
	return nil
}

type testEnv struct {
	goals    *memGoalRepo
	foods    *memFoodRepo
	sessions *services.SessionManager
}

func newTestEnv() *testEnv {
	goals := &memGoalRepo{rows: make(map[string]models.UserGoals)}
	foods := &memFoodRepo{rows: make(map[string][]models.FoodEntry)}
	return &testEnv{
		goals:    goals,
		foods:    foods,
		sessions: services.NewSessionManager(goals, foods, time.UTC, nil),
	}
}

func (e *testEnv) seedFood(userID, name string, n models.NutritionData, at time.Time) models.FoodEntry {
	entry := models.FoodEntry{
		ID:        uuid.New().String(),
		Name:      name,
		Image:     "https://img.example.com/" + name + ".jpg",
		Nutrition: n,
		Timestamp: at,
	}
	e.foods.rows[userID] = append(e.foods.rows[userID], entry)
	return entry
}

// authed builds a request as if it passed the auth middleware
func authed(method, target, body, userID string) *http.Request {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, target, r)
	if err != nil {
		panic(fmt.Sprintf("bad test request: %v", err))
	}
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func decodeBody(t *testing.T, body io.Reader, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(v))
}
