package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pruner deletes history rows older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Scheduler runs history retention on a cron schedule.
type Scheduler struct {
	pruner    Pruner
	logger    *zap.Logger
	clock     clock.Clock
	schedule  string
	retention time.Duration
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	mu        sync.Mutex
	lastRun   time.Time
	lastCount int64
}

func NewScheduler(pruner Pruner, schedule string, retention time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if retention <= 0 {
		return nil, fmt.Errorf("retention must be positive, got %s", retention)
	}

	s := &Scheduler{
		pruner:    pruner,
		logger:    logger,
		clock:     clock.New(),
		schedule:  schedule,
		retention: retention,
		cron:      cron.New(),
	}

	id, err := s.cron.AddFunc(schedule, s.RunNow)
	if err != nil {
		return nil, fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}
	s.entryID = id
	return s, nil
}

// SetClock overrides the clock used to compute the cutoff.
func (s *Scheduler) SetClock(c clock.Clock) {
	s.clock = c
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.String("schedule", s.schedule),
		zap.Duration("retention", s.retention),
		zap.Time("next_run", s.cron.Entry(s.entryID).Next))
}

// Stop waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// RunNow prunes once, synchronously.
func (s *Scheduler) RunNow() {
	startTime := s.clock.Now()
	cutoff := startTime.Add(-s.retention)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	count, err := s.pruner.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("History prune failed", zap.Error(err))
		return
	}

	s.mu.Lock()
	s.lastRun = startTime
	s.lastCount = count
	s.mu.Unlock()

	s.logger.Info("History prune completed",
		zap.Time("cutoff", cutoff),
		zap.Int64("deleted", count))
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":      s.running,
		"schedule":     s.schedule,
		"retention":    s.retention.String(),
		"last_run":     s.lastRun,
		"last_deleted": s.lastCount,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}
