package sqlite

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultHistoryLimit = 10

type reminderLogRepository struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewReminderLogRepository creates a new instance of ReminderLogRepository.
// Calendar days are evaluated in loc.
func NewReminderLogRepository(db *gorm.DB, loc *time.Location) repository.ReminderLogRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &reminderLogRepository{db: db, loc: loc, now: time.Now}
}

// RecordAttempt appends a log entry. Sent entries carry the dedup key of the
// day they were sent on, so the unique index rejects a second one.
func (r *reminderLogRepository) RecordAttempt(ctx context.Context, attempt repository.Attempt) (*entity.ReminderLog, error) {
	if attempt.SubscriptionID == "" || attempt.UserID == "" {
		return nil, errors.New("reminder attempt needs a subscription and an owner")
	}
	if !attempt.Kind.Valid() {
		return nil, fmt.Errorf("unknown reminder type %q", attempt.Kind)
	}
	if !attempt.Status.Valid() {
		return nil, fmt.Errorf("unknown delivery status %q", attempt.Status)
	}

	sentAt := r.now().UTC()
	entry := &entity.ReminderLog{
		ID:                uuid.NewString(),
		SubscriptionID:    attempt.SubscriptionID,
		UserID:            attempt.UserID,
		ReminderType:      attempt.Kind,
		DaysBeforeRenewal: attempt.DaysBeforeRenewal,
		RenewalDateAtSend: entity.CalendarDate(attempt.RenewalDate),
		EmailStatus:       attempt.Status,
		SentAt:            sentAt,
	}
	if attempt.ErrorMessage != "" {
		msg := attempt.ErrorMessage
		entry.ErrorMessage = &msg
	}
	if attempt.Status == constant.StatusSent {
		key := entity.DedupKey(attempt.SubscriptionID, attempt.Kind, entity.Today(sentAt, r.loc))
		entry.DedupKey = &key
	}

	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if entry.DedupKey != nil && isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", appErrors.ErrDuplicateReminder, *entry.DedupKey)
		}
		return nil, fmt.Errorf("🔴 ERROR: failed to record %s reminder for subscription %s: %w", attempt.Kind, attempt.SubscriptionID, err)
	}
	return entry, nil
}

// WasSentToday reports whether a sent entry exists for the pair since the
// start of today in the configured location.
func (r *reminderLogRepository) WasSentToday(ctx context.Context, subscriptionID string, kind constant.ReminderType) (bool, error) {
	startOfDay := entity.StartOfDay(r.now(), r.loc).UTC()
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ReminderLog{}).
		Where("subscription_id = ? AND reminder_type = ? AND email_status = ? AND sent_at >= ?",
			subscriptionID, kind, constant.StatusSent, startOfDay).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("🔴 ERROR: failed to check sent reminders for subscription %s: %w", subscriptionID, err)
	}
	return count > 0, nil
}

// ClaimDispatch inserts the key unless it already exists.
func (r *reminderLogRepository) ClaimDispatch(ctx context.Context, key string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.ReminderClaim{Key: key, ClaimedAt: r.now().UTC()})
	if res.Error != nil {
		return false, fmt.Errorf("🔴 ERROR: failed to claim %s: %w", key, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ReleaseClaim deletes the key. Releasing a key that is not held is a no-op.
func (r *reminderLogRepository) ReleaseClaim(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Where("dedup_key = ?", key).Delete(&entity.ReminderClaim{}).Error; err != nil {
		return fmt.Errorf("🔴 ERROR: failed to release claim %s: %w", key, err)
	}
	return nil
}

// PurgeOlderThan deletes log entries and claims older than days ago.
// The returned count covers log entries only.
func (r *reminderLogRepository) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 0 {
		return 0, fmt.Errorf("retention must not be negative, got %d days", days)
	}
	cutoff := r.now().UTC().AddDate(0, 0, -days)

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("sent_at < ?", cutoff).Delete(&entity.ReminderLog{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Where("claimed_at < ?", cutoff).Delete(&entity.ReminderClaim{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("🔴 ERROR: failed to purge reminder logs older than %d days: %w", days, err)
	}
	return removed, nil
}

// History lists a subscription's log entries, newest first.
func (r *reminderLogRepository) History(ctx context.Context, subscriptionID string, limit int) ([]*entity.ReminderLog, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	var entries []*entity.ReminderLog
	err := r.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("sent_at desc").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to load reminder history for subscription %s: %w", subscriptionID, err)
	}
	return entries, nil
}

// DeliveryStats counts entries by outcome since the given time.
func (r *reminderLogRepository) DeliveryStats(ctx context.Context, since time.Time) (*repository.DeliveryStats, error) {
	var rows []struct {
		EmailStatus constant.DeliveryStatus
		Count       int64
	}
	err := r.db.WithContext(ctx).Model(&entity.ReminderLog{}).
		Select("email_status, COUNT(*) AS count").
		Where("sent_at >= ?", since.UTC()).
		Group("email_status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to compute delivery stats: %w", err)
	}

	stats := &repository.DeliveryStats{}
	for _, row := range rows {
		stats.Total += row.Count
		switch row.EmailStatus {
		case constant.StatusSent:
			stats.Sent += row.Count
		case constant.StatusFailed, constant.StatusBounced:
			stats.Failed += row.Count
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = math.Round(float64(stats.Sent)/float64(stats.Total)*10000) / 100
	}
	return stats, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
