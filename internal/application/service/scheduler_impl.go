package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"subtrack/internal/infrastructure/scheduler"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// ScheduleConfig holds the cron specs and parameters of the scheduled jobs.
type ScheduleConfig struct {
	ReminderSpec  string
	OverdueSpec   string
	CleanupSpec   string
	LookaheadDays int
	RetentionDays int
	// PassTimeout bounds every job run and the TTL of its lock.
	PassTimeout time.Duration
}

type schedulerService struct {
	cronScheduler *scheduler.Scheduler // The infrastructure scheduler
	reminderSvc   ReminderService
	locker        JobLocker // nil disables cross-process locking
	cfg           ScheduleConfig
	log           logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	// jobStore maps job name to its cron EntryID
	jobStore map[string]cron.EntryID
	mu       sync.Mutex // Protect jobStore access
}

// NewSchedulerService creates a new instance of SchedulerService implementation.
func NewSchedulerService(
	cronScheduler *scheduler.Scheduler,
	reminderSvc ReminderService,
	locker JobLocker,
	cfg ScheduleConfig,
	log logger.Logger,
) SchedulerService {
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 30 * time.Minute
	}
	return &schedulerService{
		cronScheduler: cronScheduler,
		reminderSvc:   reminderSvc,
		locker:        locker,
		cfg:           cfg,
		log:           log,
		jobStore:      make(map[string]cron.EntryID),
	}
}

// Start registers the three jobs and starts the scheduler. If any job cannot
// be registered, none remain registered.
func (s *schedulerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return fmt.Errorf("%w: scheduler already started", appErrors.ErrScheduling)
	}
	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{JobReminderPass, s.cfg.ReminderSpec, s.runReminderPass},
		{JobOverdueCheck, s.cfg.OverdueSpec, s.runOverdueCheck},
		{JobLogCleanup, s.cfg.CleanupSpec, s.runLogCleanup},
	}

	for _, job := range jobs {
		entryID, err := s.cronScheduler.AddJob(job.spec, s.wrap(job.name, job.run))
		if err != nil {
			for name, id := range s.jobStore {
				s.cronScheduler.RemoveJob(id)
				delete(s.jobStore, name)
			}
			s.cancel()
			s.cancel = nil
			return fmt.Errorf("%w: %s: %v", appErrors.ErrScheduling, job.name, err)
		}
		s.jobStore[job.name] = entryID
		s.log.Info(fmt.Sprintf("Scheduled %s with spec %q (Job ID: %d)", job.name, job.spec, entryID))
	}

	s.cronScheduler.Start()
	return nil
}

// wrap runs a job under PASS_TIMEOUT and, when a locker is configured, only
// if no other process holds the job's lock.
func (s *schedulerService) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(s.ctx, s.cfg.PassTimeout)
		defer cancel()

		if s.locker != nil {
			unlock, ok, err := s.locker.TryLock(ctx, "subtrack:job:"+name, s.cfg.PassTimeout)
			switch {
			case err != nil:
				// Claims in the log store still prevent duplicate sends.
				s.log.Warn(fmt.Sprintf("Could not acquire lock for %s, running unlocked: %v", name, err))
			case !ok:
				s.log.Info(fmt.Sprintf("Skipping %s: already running elsewhere", name))
				return
			default:
				defer func() {
					if err := unlock(context.Background()); err != nil {
						s.log.Warn(fmt.Sprintf("Failed to release lock for %s: %v", name, err))
					}
				}()
			}
		}

		started := time.Now()
		s.log.Info(fmt.Sprintf("Executing job %s", name))
		if err := run(ctx); err != nil {
			s.log.Error(fmt.Sprintf("Job %s failed after %s", name, time.Since(started).Round(time.Millisecond)), err)
			return
		}
		s.log.Info(fmt.Sprintf("Job %s finished in %s", name, time.Since(started).Round(time.Millisecond)))
	}
}

func (s *schedulerService) runReminderPass(ctx context.Context) error {
	_, err := s.reminderSvc.RunReminderPass(ctx, s.cfg.LookaheadDays)
	return err
}

func (s *schedulerService) runOverdueCheck(ctx context.Context) error {
	_, err := s.reminderSvc.CheckOverdue(ctx)
	return err
}

func (s *schedulerService) runLogCleanup(ctx context.Context) error {
	_, err := s.reminderSvc.CleanupOldLogs(ctx, s.cfg.RetentionDays)
	return err
}

// Stop cancels running jobs between batches and waits for them to return.
func (s *schedulerService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.cronScheduler.Stop()
}

// NextRuns reports the next firing time of each registered job.
func (s *schedulerService) NextRuns() map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]time.Time, len(s.jobStore))
	for name, id := range s.jobStore {
		next[name] = s.cronScheduler.Entry(id).Next
	}
	return next
}
