package service

import (
	"context"

	"subtrack/internal/application/dto"
)

// ReminderService runs the scheduled reminder jobs.
type ReminderService interface {
	// RunReminderPass notifies owners of subscriptions that fall in a reminder
	// window today. Only a failure to fetch candidates is returned as an error;
	// per-item failures are counted in the statistics. A cancelled context stops
	// the pass before the next batch and returns the partial statistics with the
	// context error.
	RunReminderPass(ctx context.Context, lookaheadDays int) (*dto.RunStatistics, error)
	// CheckOverdue counts subscriptions whose renewal date has passed. Nothing is sent.
	CheckOverdue(ctx context.Context) (int, error)
	// CleanupOldLogs removes reminder log entries older than retentionDays.
	CleanupOldLogs(ctx context.Context, retentionDays int) (int64, error)
}
