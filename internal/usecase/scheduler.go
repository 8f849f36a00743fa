package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/robfig/cron/v3"

	"FinRatio/internal/domain/models"
	applogger "FinRatio/pkg/logger"
)

// Runner executes one ratio run.
type Runner interface {
	Run(ctx context.Context) (*models.Report, error)
}

// Scheduler triggers ratio runs on a cron schedule.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	l      *applogger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler. Schedules use the standard five field cron syntax
// and the descriptors accepted by robfig/cron, such as "@every 1h".
func NewScheduler(runner Runner, l *applogger.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		cron:   cron.New(),
		l:      l,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the schedule and starts the cron loop. An empty schedule only enables RunNow.
func (s *Scheduler) Start(schedule string) error {
	if schedule != "" {
		if _, err := s.cron.AddFunc(schedule, s.run); err != nil {
			return err
		}
	}
	s.cron.Start()
	s.l.Info("ratio scheduler started", applogger.String("schedule", schedule))
	return nil
}

// Stop stops the cron loop, cancels an active run and waits for it.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.l.Info("ratio scheduler stopped")
}

// RunNow triggers an immediate run in the background.
func (s *Scheduler) RunNow() {
	s.l.Info("triggering immediate ratio run")
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute()
	}()
}

func (s *Scheduler) run() {
	s.wg.Add(1)
	defer s.wg.Done()
	s.execute()
}

func (s *Scheduler) execute() {
	if _, err := s.runner.Run(s.ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			s.l.Info("scheduled run skipped, previous run still active")
			return
		}
		s.l.Error("scheduled ratio run failed", applogger.Error(err))
	}
}
