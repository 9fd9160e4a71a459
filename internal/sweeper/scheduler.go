package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-core/internal/persistence"
)

// Job is one scheduled batch sweep.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Scheduler drives the sweepers on wall-clock cron schedules. Every
// run takes the advisory lock for its job name first, so overlapping
// invocations of the same sweeper skip instead of racing; different
// sweepers run independently.
type Scheduler struct {
	cron   *cron.Cron
	lock   *persistence.JobLock
	logger *zap.Logger
}

// NewScheduler creates the scheduler.
func NewScheduler(lock *persistence.JobLock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		lock:   lock,
		logger: logger,
	}
}

// Register schedules a job under a cron spec.
func (s *Scheduler) Register(spec string, job Job) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.runLocked(job)
	})
	if err != nil {
		return err
	}
	s.logger.Info("sweeper registered",
		zap.String("job", job.Name()), zap.String("spec", spec))
	return nil
}

// RunNow executes a job immediately, outside its schedule, still under
// the advisory lock. Used by the admin trigger endpoint.
func (s *Scheduler) RunNow(job Job) {
	s.runLocked(job)
}

func (s *Scheduler) runLocked(job Job) {
	ctx := context.Background()

	release, ok, err := s.lock.TryAcquire(ctx, job.Name())
	if err != nil {
		s.logger.Error("sweeper lock acquisition failed",
			zap.String("job", job.Name()), zap.Error(err))
		return
	}
	if !ok {
		s.logger.Info("sweeper already running elsewhere, skipping",
			zap.String("job", job.Name()))
		return
	}
	defer release()

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("sweeper run failed",
			zap.String("job", job.Name()),
			zap.Duration("took", time.Since(started)),
			zap.Error(err))
		return
	}
	s.logger.Info("sweeper run complete",
		zap.String("job", job.Name()),
		zap.Duration("took", time.Since(started)))
}

// Start begins schedule execution.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler, waiting for in-flight runs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
