package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"OilDashboard/internal/logger"
	"OilDashboard/internal/recorder"
)

// Refresher reloads the cached price table.
type Refresher interface {
	Refresh(ctx context.Context, trigger recorder.Trigger) error
}

// Scheduler runs the optional periodic refresh.
type Scheduler struct {
	Cron   *cron.Cron
	Store  Refresher
	Ctx    context.Context
	log    *logger.Logger
	active bool
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, store Refresher, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		Cron:  cron.New(cron.WithSeconds()),
		Store: store,
		Ctx:   ctx,
		log:   log,
	}
}

// Register adds the refresh job. An empty expression leaves the scheduler idle.
func (s *Scheduler) Register(refreshCron string) error {
	if refreshCron == "" {
		return nil
	}
	if _, err := s.Cron.AddFunc(refreshCron, s.refreshTask); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	s.active = true
	return nil
}

// Active reports whether a job is registered.
func (s *Scheduler) Active() bool { return s.active }

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	if !s.active {
		return
	}
	s.Cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the cron scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	if !s.active {
		return
	}
	<-s.Cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes the refresh task immediately.
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	s.log.Info("running scheduled refresh")
	if err := s.Store.Refresh(s.Ctx, recorder.TriggerSchedule); err != nil {
		// The store keeps serving the previous table.
		s.log.Warn("scheduled refresh failed", zap.Error(err))
	}
}
