package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Session bundles the stores of one active person. The two stores are
// independent and never reference each other.
type Session struct {
	UserID string
	Goals  *GoalStore
	Foods  *FoodLogStore

	lastUsed atomic.Int64
	closed   atomic.Bool
}

// Activate loads both stores concurrently
func (s *Session) Activate(ctx context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Goals.Load(ctx)
		return nil
	})
	g.Go(func() error {
		s.Foods.Load(ctx)
		return nil
	})
	_ = g.Wait()
}

// Close tears down both stores
func (s *Session) Close() {
	s.closed.Store(true)
	s.Goals.Close()
	s.Foods.Close()
}

func (s *Session) touch(now time.Time) {
	s.lastUsed.Store(now.UnixNano())
}

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastUsed.Load()))
}

// SessionManager keeps one session per active person, created on first use
// and discarded on close or when idle
type SessionManager struct {
	goalRepo GoalRepository
	foodRepo FoodLogRepository
	loc      *time.Location
	listener Listener
	now      func() time.Time

	mu         sync.Mutex
	sessions   map[string]*Session
	activating map[string]*Session
	opening    singleflight.Group
}

// NewSessionManager creates a new session manager
func NewSessionManager(goalRepo GoalRepository, foodRepo FoodLogRepository, loc *time.Location, listener Listener) *SessionManager {
	return &SessionManager{
		goalRepo: goalRepo,
		foodRepo: foodRepo,
		loc:      loc,
		listener: listener,
		now:      time.Now,
		sessions:   make(map[string]*Session),
		activating: make(map[string]*Session),
	}
}

// Get returns the person's session, opening and activating it if needed.
// Concurrent first calls share one activation, which is not cancelled with
// the caller's request. A session closed while activating is returned
// closed and not kept. An open session whose food log still shows a past
// day is refreshed first.
func (m *SessionManager) Get(ctx context.Context, userID string) *Session {
	if s := m.lookup(userID); s != nil {
		s.Foods.RefreshIfStale(context.WithoutCancel(ctx))
		return s
	}

	v, _, _ := m.opening.Do(userID, func() (interface{}, error) {
		if s := m.lookup(userID); s != nil {
			return s, nil
		}

		s := m.newSession(userID)
		m.mu.Lock()
		m.activating[userID] = s
		m.mu.Unlock()

		s.Activate(context.WithoutCancel(ctx))

		m.mu.Lock()
		delete(m.activating, userID)
		kept := !s.closed.Load()
		if kept {
			m.sessions[userID] = s
		}
		m.mu.Unlock()

		if kept {
			log.Info().Str("user_id", userID).Msg("Session opened")
		} else {
			log.Debug().Str("user_id", userID).Msg("Session closed during activation")
		}
		return s, nil
	})

	s := v.(*Session)
	s.touch(m.now())
	return s
}

// Lookup returns an open session without creating one
func (m *SessionManager) Lookup(userID string) (*Session, bool) {
	s := m.lookup(userID)
	return s, s != nil
}

// Close tears down the person's session if open or still activating
func (m *SessionManager) Close(userID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[userID]
	delete(m.sessions, userID)
	if !ok {
		s, ok = m.activating[userID]
		delete(m.activating, userID)
	}
	if ok {
		// marked under mu so a finishing activation sees it
		s.closed.Store(true)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	log.Info().Str("user_id", userID).Msg("Session closed")
	return true
}

// CloseAll tears down every session, including ones still activating
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions)+len(m.activating))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	for _, s := range m.activating {
		sessions = append(sessions, s)
	}
	for _, s := range sessions {
		s.closed.Store(true)
	}
	m.sessions = make(map[string]*Session)
	m.activating = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

// EvictIdle closes sessions unused for longer than maxIdle
func (m *SessionManager) EvictIdle(maxIdle time.Duration) int {
	now := m.now()

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.idleSince(now) > maxIdle {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
		log.Debug().Str("user_id", s.UserID).Msg("Idle session evicted")
	}
	return len(idle)
}

// RollDay reloads every open food log so lists follow the new day window
func (m *SessionManager) RollDay(ctx context.Context) int {
	sessions := m.open()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, s := range sessions {
		g.Go(func() error {
			s.Foods.Refresh(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return len(sessions)
}

// Count returns the number of open sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *SessionManager) lookup(userID string) *Session {
	m.mu.Lock()
	s := m.sessions[userID]
	m.mu.Unlock()
	if s != nil {
		s.touch(m.now())
	}
	return s
}

func (m *SessionManager) open() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (m *SessionManager) newSession(userID string) *Session {
	s := &Session{
		UserID: userID,
		Goals:  NewGoalStore(userID, m.goalRepo, m.listener),
		Foods:  NewFoodLogStore(userID, m.foodRepo, m.loc, m.listener),
	}
	s.Goals.now = m.now
	s.Foods.now = m.now
	s.touch(m.now())
	return s
}
