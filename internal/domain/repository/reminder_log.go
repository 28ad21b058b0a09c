package repository

import (
	"context"
	"time"

	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
)

// Attempt describes one notification attempt to be recorded.
type Attempt struct {
	SubscriptionID    string
	UserID            string
	Kind              constant.ReminderType
	DaysBeforeRenewal int
	RenewalDate       time.Time
	Status            constant.DeliveryStatus
	ErrorMessage      string
}

// DeliveryStats summarizes log entries since a point in time.
type DeliveryStats struct {
	Total       int64   `json:"total"`
	Sent        int64   `json:"sent"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// ReminderLogRepository records notification attempts and answers the
// deduplication questions asked by the reminder pass.
type ReminderLogRepository interface {
	// RecordAttempt appends an immutable log entry. Recording a second sent
	// entry for the same subscription, window and day returns ErrDuplicateReminder.
	RecordAttempt(ctx context.Context, attempt Attempt) (*entity.ReminderLog, error)
	// WasSentToday reports whether a sent entry exists for the pair since the
	// start of the current calendar day.
	WasSentToday(ctx context.Context, subscriptionID string, kind constant.ReminderType) (bool, error)
	// ClaimDispatch atomically reserves a dedup key. It returns false when the
	// key is already held by another dispatch.
	ClaimDispatch(ctx context.Context, key string) (bool, error)
	// ReleaseClaim frees a key so a later pass can retry the dispatch.
	ReleaseClaim(ctx context.Context, key string) error
	// PurgeOlderThan deletes entries older than days ago and returns how many were removed.
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
	// History lists a subscription's entries, newest first.
	History(ctx context.Context, subscriptionID string, limit int) ([]*entity.ReminderLog, error)
	DeliveryStats(ctx context.Context, since time.Time) (*DeliveryStats, error)
}
