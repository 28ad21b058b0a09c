package service

import (
	"context"
	"time"
)

// Names of the scheduled jobs.
const (
	JobReminderPass = "reminder_pass"
	JobOverdueCheck = "overdue_check"
	JobLogCleanup   = "log_cleanup"
)

// SchedulerService defines the lifecycle of the scheduled reminder jobs.
type SchedulerService interface {
	// Start registers the reminder, overdue and cleanup jobs and starts the scheduler.
	Start(ctx context.Context) error
	// Stop stops the scheduler, waiting for running jobs to finish.
	Stop()
	// NextRuns reports the next firing time of each registered job.
	NextRuns() map[string]time.Time
}
