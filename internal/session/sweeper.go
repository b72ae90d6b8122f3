package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the sweep once a minute
const DefaultSweepSchedule = "@every 1m"

// Sweeper periodically removes expired sessions
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	logger *slog.Logger
}

// NewSweeper schedules store.Sweep with a cron expression or descriptor
// such as "@every 5m".
func NewSweeper(store *Store, schedule string, logger *slog.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		logger: logger.With(slog.String("component", "session_sweeper")),
	}
	if _, err := s.cron.AddFunc(schedule, func() { store.Sweep() }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins running the schedule in the background
func (s *Sweeper) Start() {
	s.logger.Info("Session sweeper started", slog.Duration("ttl", s.store.TTL()))
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to end
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Session sweeper stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
