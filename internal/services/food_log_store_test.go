package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nutrition-tracker-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plusTwo = time.FixedZone("UTC+2", 2*60*60)

func fixedNow() time.Time {
	return time.Date(2026, time.March, 10, 14, 30, 0, 0, plusTwo)
}

func newTestFoodStore(repo *fakeFoodRepo, listener Listener) *FoodLogStore {
	store := NewFoodLogStore("user-1", repo, plusTwo, listener)
	store.now = fixedNow
	return store
}

func meal(id string, at time.Time, calories, protein int) models.FoodEntry {
	return models.FoodEntry{
		ID:        id,
		Name:      "meal " + id,
		Image:     "https://img.example.com/" + id + ".jpg",
		Nutrition: models.NutritionData{Calories: calories, Protein: protein, Vegetables: 50, Carbs: 20, Fiber: 5, Sugar: 6},
		Timestamp: at,
	}
}

func TestTodayWindow(t *testing.T) {
	w := TodayWindow(fixedNow(), plusTwo)

	assert.Equal(t, time.Date(2026, time.March, 10, 0, 0, 0, 0, plusTwo), w.Start)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, plusTwo), w.End)
	assert.True(t, w.Contains(w.Start))
	assert.False(t, w.Contains(w.End))
	assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))

	// 23:30 UTC is already the next day two hours east
	late := time.Date(2026, time.March, 10, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 11, 0, 0, 0, 0, plusTwo), TodayWindow(late, plusTwo).Start)
}

func TestFoodLogStoreLoadQueriesLocalDay(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1",
		meal("1", day.Start.Add(8*time.Hour), 350, 25),
		meal("2", day.Start.Add(12*time.Hour), 280, 22),
		meal("yesterday", day.Start.Add(-time.Minute), 900, 40),
	)
	store := newTestFoodStore(repo, nil)

	store.Load(context.Background())

	assert.Equal(t, StateReady, store.State())
	assert.True(t, repo.lastStart.Equal(day.Start))
	assert.True(t, repo.lastEnd.Equal(day.End))
	assert.Equal(t, day, store.Window())

	foods := store.Foods()
	require.Len(t, foods, 2)
	assert.Equal(t, "2", foods[0].ID)
	assert.Equal(t, "1", foods[1].ID)
	assert.Equal(t, 630, store.Totals().Calories)
	assert.Equal(t, 47, store.Totals().Protein)
}

func TestFoodLogStoreLoadFailureLeavesEmptyList(t *testing.T) {
	repo := newFakeFoodRepo()
	repo.listErr = errors.New("connection reset")
	store := newTestFoodStore(repo, nil)

	store.Load(context.Background())

	assert.Equal(t, StateReady, store.State())
	assert.NotNil(t, store.Foods())
	assert.Empty(t, store.Foods())
	assert.Equal(t, models.NutritionTotals{}, store.Totals())
}

func TestFoodLogStoreAddFood(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1", meal("1", day.Start.Add(8*time.Hour), 350, 25))
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())
	before := store.Totals()

	created, ok := store.AddFood(context.Background(), models.NewFoodEntry{
		Name:      "Analyzed Meal",
		Image:     "https://img.example.com/new.jpg",
		Nutrition: models.NutritionData{Calories: 420, Protein: 30, Vegetables: 120, Carbs: 40, Fiber: 8, Sugar: 9},
	})

	require.True(t, ok)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Timestamp.Equal(fixedNow()))

	foods := store.Foods()
	require.Len(t, foods, 2)
	assert.Equal(t, created.ID, foods[0].ID)

	after := store.Totals()
	assert.Equal(t, before.Calories+420, after.Calories)
	assert.Equal(t, before.Protein+30, after.Protein)
	assert.Equal(t, before.Vegetables+120, after.Vegetables)
	assert.Equal(t, before.Carbs+40, after.Carbs)
	assert.Equal(t, before.Fiber+8, after.Fiber)
	assert.Equal(t, before.Sugar+9, after.Sugar)
	assert.Equal(t, []string{EventFoodAdded}, events.types())
}

func TestFoodLogStoreAddFoodFailure(t *testing.T) {
	repo := newFakeFoodRepo()
	repo.createErr = errors.New("insert failed")
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())

	_, ok := store.AddFood(context.Background(), models.NewFoodEntry{Name: "Soup"})

	assert.False(t, ok)
	assert.Empty(t, store.Foods())
	assert.Equal(t, models.NutritionTotals{}, store.Totals())
	assert.Empty(t, events.types())
}

func TestFoodLogStoreAddFoodOutsideWindow(t *testing.T) {
	repo := newFakeFoodRepo()
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())

	created, ok := store.AddFood(context.Background(), models.NewFoodEntry{
		Name:      "Late dinner",
		Nutrition: models.NutritionData{Calories: 700},
		Timestamp: fixedNow().AddDate(0, 0, -1),
	})

	require.True(t, ok)
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, store.Foods())
	assert.Zero(t, store.Totals().Calories)
	assert.Empty(t, events.types())
	assert.Len(t, repo.rows["user-1"], 1)
}

func TestFoodLogStoreDeleteFood(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	first := meal("1", day.Start.Add(8*time.Hour), 350, 25)
	second := meal("2", day.Start.Add(12*time.Hour), 280, 22)
	repo.seed("user-1", first, second)
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())

	ok := store.DeleteFood(context.Background(), "2")

	require.True(t, ok)
	assert.Equal(t, []models.FoodEntry{first}, store.Foods())
	totals := store.Totals()
	assert.Equal(t, first.Nutrition.Calories, totals.Calories)
	assert.Equal(t, first.Nutrition.Protein, totals.Protein)
	assert.Equal(t, first.Nutrition.Vegetables, totals.Vegetables)
	assert.Equal(t, first.Nutrition.Carbs, totals.Carbs)
	assert.Equal(t, first.Nutrition.Fiber, totals.Fiber)
	assert.Equal(t, first.Nutrition.Sugar, totals.Sugar)
	assert.Equal(t, [][2]string{{"2", "user-1"}}, repo.deletes)
	assert.Equal(t, []string{EventFoodDeleted}, events.types())
}

func TestFoodLogStoreDeleteUnknownID(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1", meal("1", day.Start.Add(time.Hour), 350, 25))
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())

	ok := store.DeleteFood(context.Background(), "missing")

	assert.True(t, ok)
	assert.Len(t, store.Foods(), 1)
	assert.Equal(t, 350, store.Totals().Calories)
	assert.Empty(t, events.types())
}

func TestFoodLogStoreDeleteFailureKeepsEntry(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1", meal("1", day.Start.Add(time.Hour), 350, 25))
	repo.deleteErr = errors.New("timeout")
	store := newTestFoodStore(repo, nil)
	store.Load(context.Background())

	ok := store.DeleteFood(context.Background(), "1")

	assert.False(t, ok)
	assert.Len(t, store.Foods(), 1)
	assert.Equal(t, 350, store.Totals().Calories)
}

func TestFoodLogStoreRefreshPublishesSnapshot(t *testing.T) {
	repo := newFakeFoodRepo()
	events := &eventLog{}
	store := newTestFoodStore(repo, events.listen)
	store.Load(context.Background())

	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1", meal("1", day.Start.Add(time.Hour), 350, 25))
	store.Refresh(context.Background())

	assert.Len(t, store.Foods(), 1)
	assert.Equal(t, []string{EventFoodsRefreshed}, events.types())
	assert.Equal(t, 2, repo.calls())
}

func TestFoodLogStoreDropsInsertAfterClose(t *testing.T) {
	repo := newFakeFoodRepo()
	store := newTestFoodStore(repo, nil)
	store.Load(context.Background())
	repo.gate = newGate()

	done := make(chan bool)
	go func() {
		_, ok := store.AddFood(context.Background(), models.NewFoodEntry{Name: "Salad"})
		done <- ok
	}()

	<-repo.gate.started
	store.Close()
	close(repo.gate.release)

	assert.False(t, <-done)
	assert.Empty(t, store.Foods())
	assert.Equal(t, StateClosed, store.State())

	_, ok := store.AddFood(context.Background(), models.NewFoodEntry{Name: "Salad"})
	assert.False(t, ok)
	assert.False(t, store.DeleteFood(context.Background(), "food-1"))

	store.Load(context.Background())
	assert.Equal(t, StateClosed, store.State())
}

func TestFoodLogStoreAddFoodAfterMidnightMovesWindow(t *testing.T) {
	repo := newFakeFoodRepo()
	day := TodayWindow(fixedNow(), plusTwo)
	repo.seed("user-1", meal("1", day.Start.Add(8*time.Hour), 350, 25))
	events := &eventLog{}
	clock := &fakeClock{t: fixedNow()}
	store := newTestFoodStore(repo, events.listen)
	store.now = clock.now
	store.Load(context.Background())
	require.Len(t, store.Foods(), 1)

	clock.advance(12 * time.Hour)
	created, ok := store.AddFood(context.Background(), models.NewFoodEntry{
		Name:      "Early breakfast",
		Nutrition: models.NutritionData{Calories: 300, Protein: 12},
	})

	require.True(t, ok)
	assert.Equal(t, day.End, store.Window().Start)
	foods := store.Foods()
	require.Len(t, foods, 1)
	assert.Equal(t, created.ID, foods[0].ID)
	assert.Equal(t, 300, store.Totals().Calories)
	assert.Equal(t, []string{EventFoodsRefreshed, EventFoodAdded}, events.types())
}

func TestFoodLogStoreRefreshIfStale(t *testing.T) {
	repo := newFakeFoodRepo()
	clock := &fakeClock{t: fixedNow()}
	store := newTestFoodStore(repo, nil)
	store.now = clock.now

	assert.False(t, store.RefreshIfStale(context.Background()))
	store.Load(context.Background())
	assert.False(t, store.RefreshIfStale(context.Background()))
	assert.Equal(t, 1, repo.calls())

	clock.advance(10 * time.Hour)
	assert.True(t, store.RefreshIfStale(context.Background()))
	assert.False(t, store.RefreshIfStale(context.Background()))
	assert.Equal(t, 2, repo.calls())
	assert.True(t, store.Window().Contains(clock.now()))
}
