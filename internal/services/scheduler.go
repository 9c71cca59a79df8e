package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const rollDayTimeout = time.Minute

// Scheduler runs the periodic session jobs: reloading food logs at local
// midnight and evicting idle sessions
type Scheduler struct {
	cron     *cron.Cron
	sessions *SessionManager
	idleTTL  time.Duration
}

// NewScheduler creates a scheduler whose day boundary is midnight in loc
func NewScheduler(sessions *SessionManager, loc *time.Location, idleTTL time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		sessions: sessions,
		idleTTL:  idleTTL,
	}
}

// Start registers the jobs and starts the scheduler
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("0 0 * * *", s.RollDay); err != nil {
		return fmt.Errorf("failed to schedule day rollover: %w", err)
	}
	if s.idleTTL > 0 {
		every := fmt.Sprintf("@every %s", evictionInterval(s.idleTTL))
		if _, err := s.cron.AddFunc(every, s.EvictIdle); err != nil {
			return fmt.Errorf("failed to schedule idle eviction: %w", err)
		}
	}
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RollDay reloads every open food log for the new day
func (s *Scheduler) RollDay() {
	ctx, cancel := context.WithTimeout(context.Background(), rollDayTimeout)
	defer cancel()

	n := s.sessions.RollDay(ctx)
	log.Info().Int("sessions", n).Msg("Food logs rolled over to new day")
}

// EvictIdle closes sessions idle for longer than the TTL
func (s *Scheduler) EvictIdle() {
	if n := s.sessions.EvictIdle(s.idleTTL); n > 0 {
		log.Info().Int("sessions", n).Msg("Idle sessions evicted")
	}
}

func evictionInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Minute {
		return time.Minute
	}
	return interval.Truncate(time.Second)
}
