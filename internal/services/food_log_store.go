package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/nutrition"

	"github.com/rs/zerolog/log"
)

// Window is a half-open time interval [Start, End)
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// TodayWindow returns the calendar day containing now, from local midnight
// to the next local midnight in loc
func TodayWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// FoodLogStore owns one person's meals for the current day, newest first,
// and the totals derived from them.
type FoodLogStore struct {
	userID   string
	repo     FoodLogRepository
	loc      *time.Location
	listener Listener
	now      func() time.Time
	life     lifetime

	mu      sync.RWMutex
	state   StoreState
	window  Window
	entries []models.FoodEntry
	totals  models.NutritionTotals
}

// NewFoodLogStore creates an empty food log store. Day boundaries are taken
// in loc.
func NewFoodLogStore(userID string, repo FoodLogRepository, loc *time.Location, listener Listener) *FoodLogStore {
	if loc == nil {
		loc = time.UTC
	}
	return &FoodLogStore{
		userID:   userID,
		repo:     repo,
		loc:      loc,
		listener: listener,
		now:      time.Now,
		life:     newLifetime(),
		state:    StateUninitialized,
		entries:  []models.FoodEntry{},
	}
}

// Load reads today's meals. On failure the list is empty; the store is
// ready afterwards either way. There is no automatic retry.
func (s *FoodLogStore) Load(ctx context.Context) {
	s.load(ctx, "")
}

// Refresh re-reads today's meals, moving the window if the day has changed
func (s *FoodLogStore) Refresh(ctx context.Context) {
	s.load(ctx, EventFoodsRefreshed)
}

// RefreshIfStale refreshes when the local day has moved past the loaded
// window and reports whether it did
func (s *FoodLogStore) RefreshIfStale(ctx context.Context) bool {
	s.mu.RLock()
	stale := s.state == StateReady && !s.window.Contains(s.now())
	s.mu.RUnlock()
	if !stale {
		return false
	}
	log.Debug().Str("user_id", s.userID).Msg("Day changed, refreshing food logs")
	s.Refresh(ctx)
	return true
}

func (s *FoodLogStore) load(ctx context.Context, event string) {
	if !s.transition(StateLoading) {
		return
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	window := TodayWindow(s.now(), s.loc)
	entries, err := s.repo.ListByRange(ctx, s.userID, window.Start, window.End)
	if s.life.closed() {
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("Failed to load food logs")
		entries = nil
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.window = window
	s.setEntries(sortNewestFirst(entries))
	s.state = StateReady
	snapshot := s.copyEntries()
	s.mu.Unlock()

	if event != "" {
		s.emit(Event{Type: event, UserID: s.userID, Data: snapshot})
	}
}

// AddFood stores a meal and, once the remote insert succeeds, places the
// stored entry (with its generated ID) in the list. A meal logged outside
// today's window is stored but not listed. The returned bool is false when
// nothing was stored.
func (s *FoodLogStore) AddFood(ctx context.Context, entry models.NewFoodEntry) (models.FoodEntry, bool) {
	if s.life.closed() {
		return models.FoodEntry{}, false
	}
	s.RefreshIfStale(ctx)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	created, err := s.repo.Create(ctx, s.userID, entry)
	if err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("name", entry.Name).Msg("Failed to add food log")
		return models.FoodEntry{}, false
	}
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		log.Debug().Str("user_id", s.userID).Str("food_id", created.ID).Msg("Food log store closed, dropping insert")
		return models.FoodEntry{}, false
	}
	listed := s.window.Contains(created.Timestamp)
	if listed {
		s.setEntries(insertNewestFirst(s.entries, *created))
	}
	s.mu.Unlock()

	if listed {
		s.emit(Event{Type: EventFoodAdded, UserID: s.userID, Data: *created})
	} else {
		log.Debug().
			Str("user_id", s.userID).
			Str("food_id", created.ID).
			Time("logged_at", created.Timestamp).
			Msg("Food log outside today's window, not listed")
	}

	log.Info().Str("user_id", s.userID).Str("food_id", created.ID).Msg("Food log added")
	return *created, true
}

// DeleteFood removes a meal owned by this person. The local list changes
// only after the remote delete succeeds; an unknown ID changes nothing.
func (s *FoodLogStore) DeleteFood(ctx context.Context, id string) bool {
	if s.life.closed() {
		return false
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, id, s.userID); err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Str("food_id", id).Msg("Failed to delete food log")
		return false
	}
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	kept := make([]models.FoodEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	removed := len(kept) != len(s.entries)
	s.setEntries(kept)
	s.mu.Unlock()

	if removed {
		s.emit(Event{Type: EventFoodDeleted, UserID: s.userID, Data: map[string]string{"id": id}})
	}
	return true
}

// Foods returns a copy of today's meals, newest first
func (s *FoodLogStore) Foods() []models.FoodEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyEntries()
}

// Totals returns the sum of today's meals
func (s *FoodLogStore) Totals() models.NutritionTotals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals
}

// Snapshot returns meals and totals read under one lock
func (s *FoodLogStore) Snapshot() ([]models.FoodEntry, models.NutritionTotals) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyEntries(), s.totals
}

// Window returns the day window of the last load
func (s *FoodLogStore) Window() Window {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.window
}

// State returns the lifecycle state
func (s *FoodLogStore) State() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close cancels in-flight calls; later results are ignored
func (s *FoodLogStore) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.life.close()
}

// setEntries replaces the list and recomputes totals. Callers hold mu.
func (s *FoodLogStore) setEntries(entries []models.FoodEntry) {
	if entries == nil {
		entries = []models.FoodEntry{}
	}
	s.entries = entries
	s.totals = nutrition.Aggregate(entries)
}

func (s *FoodLogStore) copyEntries() []models.FoodEntry {
	return append([]models.FoodEntry{}, s.entries...)
}

func (s *FoodLogStore) transition(to StoreState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	// a refresh keeps serving the current list while it runs
	if s.state == StateReady && to == StateLoading {
		return true
	}
	s.state = to
	return true
}

func (s *FoodLogStore) emit(e Event) {
	if s.listener != nil {
		s.listener(e)
	}
}

func sortNewestFirst(entries []models.FoodEntry) []models.FoodEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	return entries
}

// insertNewestFirst returns a new slice with e placed before the first entry
// that is not newer than it. For a meal logged now this is a prepend.
func insertNewestFirst(entries []models.FoodEntry, e models.FoodEntry) []models.FoodEntry {
	i := sort.Search(len(entries), func(i int) bool {
		return !entries[i].Timestamp.After(e.Timestamp)
	})
	out := make([]models.FoodEntry, 0, len(entries)+1)
	out = append(out, entries[:i]...)
	out = append(out, e)
	out = append(out, entries[i:]...)
	return out
}
