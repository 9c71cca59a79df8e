package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/repository"
)

// gate lets a test hold a fake remote call open
type gate struct {
	started chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait() {
	if g == nil {
		return
	}
	g.started <- struct{}{}
	<-g.release
}

type fakeGoalRepo struct {
	mu        sync.Mutex
	rows      map[string]models.UserGoals
	getErr    error
	upsertErr error
	getCalls  int
	upserts   int
	gate      *gate
	loadGate  *gate
}

func newFakeGoalRepo() *fakeGoalRepo {
	return &fakeGoalRepo{rows: make(map[string]models.UserGoals)}
}

func (f *fakeGoalRepo) GetByUserID(ctx context.Context, userID string) (*models.UserGoals, error) {
	f.loadGate.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	g, ok := f.rows[userID]
	if !ok {
		return nil, fmt.Errorf("goals for user %s: %w", userID, repository.ErrNotFound)
	}
	return &g, nil
}

func (f *fakeGoalRepo) Upsert(ctx context.Context, userID string, goals models.UserGoals, updatedAt time.Time) error {
	f.gate.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.rows[userID] = goals
	return nil
}

func (f *fakeGoalRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

type fakeFoodRepo struct {
	mu        sync.Mutex
	rows      map[string][]models.FoodEntry
	nextID    int
	listErr   error
	createErr error
	deleteErr error
	listCalls int
	lastStart time.Time
	lastEnd   time.Time
	deletes   [][2]string
	gate      *gate
}

func newFakeFoodRepo() *fakeFoodRepo {
	return &fakeFoodRepo{rows: make(map[string][]models.FoodEntry)}
}

func (f *fakeFoodRepo) seed(userID string, entries ...models.FoodEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[userID] = append(f.rows[userID], entries...)
}

func (f *fakeFoodRepo) Create(ctx context.Context, userID string, entry models.NewFoodEntry) (*models.FoodEntry, error) {
	f.gate.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	created := models.FoodEntry{
		ID:        fmt.Sprintf("food-%d", f.nextID),
		Name:      entry.Name,
		Image:     entry.Image,
		Nutrition: entry.Nutrition,
		Timestamp: entry.Timestamp,
	}
	f.rows[userID] = append(f.rows[userID], created)
	return &created, nil
}

func (f *fakeFoodRepo) ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.FoodEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastStart, f.lastEnd = start, end
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.FoodEntry
	for _, e := range f.rows[userID] {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

func (f *fakeFoodRepo) Delete(ctx context.Context, id, userID string) error {
	f.gate.wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, [2]string{id, userID})
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.rows[userID][:0]
	for _, e := range f.rows[userID] {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	f.rows[userID] = kept
	return nil
}

func (f *fakeFoodRepo) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

// eventLog collects store events
type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) listen(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var types []string
	for _, e := range l.events {
		types = append(types, e.Type)
	}
	return types
}
