package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"nutrition-tracker-backend/internal/models"
	"nutrition-tracker-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

// GoalStore owns the goal snapshot of one person and keeps it in step with
// the remote store. Local state changes only after the remote write succeeds.
type GoalStore struct {
	userID   string
	repo     GoalRepository
	listener Listener
	now      func() time.Time
	life     lifetime

	mu     sync.RWMutex
	state  StoreState
	goals  models.UserGoals
	stored bool
	// loadFailed is set when the last read failed for a reason other than
	// a missing record; whether goals are stored is then unknown
	loadFailed bool
}

// NewGoalStore creates a goal store holding the default goals
func NewGoalStore(userID string, repo GoalRepository, listener Listener) *GoalStore {
	return &GoalStore{
		userID:   userID,
		repo:     repo,
		listener: listener,
		now:      time.Now,
		life:     newLifetime(),
		state:    StateUninitialized,
		goals:    models.DefaultUserGoals(),
	}
}

// Load reads the person's goals. A missing record keeps the defaults; any
// other failure is logged and also keeps the defaults. The store is ready
// afterwards either way.
func (s *GoalStore) Load(ctx context.Context) {
	if !s.transition(StateLoading) {
		return
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	goals, err := s.repo.GetByUserID(ctx, s.userID)
	if s.life.closed() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}

	switch {
	case err == nil:
		s.goals = *goals
		s.stored = true
	case errors.Is(err, repository.ErrNotFound):
		log.Debug().Str("user_id", s.userID).Msg("No stored goals, using defaults")
	default:
		log.Error().Err(err).Str("user_id", s.userID).Msg("Failed to load goals")
		s.loadFailed = true
	}
	s.state = StateReady
}

// UpdateGoals upserts goals and, once confirmed, replaces the snapshot with
// exactly the given value. It reports whether the snapshot changed.
func (s *GoalStore) UpdateGoals(ctx context.Context, goals models.UserGoals) bool {
	if s.life.closed() {
		return false
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	if err := s.repo.Upsert(ctx, s.userID, goals, s.now()); err != nil {
		log.Error().Err(err).Str("user_id", s.userID).Msg("Failed to update goals")
		return false
	}
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		log.Debug().Str("user_id", s.userID).Msg("Goal store closed, dropping update")
		return false
	}
	s.goals = goals
	s.stored = true
	s.loadFailed = false
	s.mu.Unlock()

	log.Info().Str("user_id", s.userID).Msg("Goals updated")
	s.emit(Event{Type: EventGoalsUpdated, UserID: s.userID, Data: goals})
	return true
}

// CompleteGoals fills in the starting weight of a goal edit when the caller
// left it out: the recorded starting weight is carried over once goals have
// been stored, otherwise the new current weight starts the journey. If the
// initial read failed, the record is read again first so a stored starting
// weight is never replaced; false means that read failed too.
func (s *GoalStore) CompleteGoals(ctx context.Context, goals models.UserGoals) (models.UserGoals, bool) {
	if goals.StartingWeight != 0 {
		return goals, true
	}
	if !s.resolveStored(ctx) {
		return goals, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.stored {
		goals.StartingWeight = s.goals.StartingWeight
	} else {
		goals.StartingWeight = goals.CurrentWeight
	}
	return goals, true
}

// resolveStored re-reads the goals record after a failed load
func (s *GoalStore) resolveStored(ctx context.Context) bool {
	s.mu.RLock()
	known := s.stored || !s.loadFailed
	s.mu.RUnlock()
	if known {
		return true
	}

	ctx, cancel := s.life.bind(ctx)
	defer cancel()

	goals, err := s.repo.GetByUserID(ctx, s.userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Str("user_id", s.userID).Msg("Failed to reload goals")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	if err == nil && !s.stored {
		s.goals = *goals
		s.stored = true
	}
	s.loadFailed = false
	return true
}

// Goals returns the current snapshot
func (s *GoalStore) Goals() models.UserGoals {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.goals
}

// State returns the lifecycle state
func (s *GoalStore) State() StoreState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Close cancels in-flight calls; later results are ignored
func (s *GoalStore) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	s.life.close()
}

func (s *GoalStore) transition(to StoreState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return false
	}
	s.state = to
	return true
}

func (s *GoalStore) emit(e Event) {
	if s.listener != nil {
		s.listener(e)
	}
}
