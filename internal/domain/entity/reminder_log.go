package entity

import (
	"fmt"
	"time"

	"subtrack/internal/domain/constant"
)

// ReminderLog is an immutable record of one notification attempt.
type ReminderLog struct {
	ID                string                  `gorm:"column:id;primaryKey;size:64"`
	SubscriptionID    string                  `gorm:"column:subscription_id;not null;index;index:idx_reminder_logs_lookup,priority:1"`
	UserID            string                  `gorm:"column:user_id;not null;index"`
	ReminderType      constant.ReminderType   `gorm:"column:reminder_type;size:16;not null;index:idx_reminder_logs_lookup,priority:2"`
	DaysBeforeRenewal int                     `gorm:"column:days_before_renewal;not null"`
	RenewalDateAtSend time.Time               `gorm:"column:renewal_date_at_send;not null"`
	EmailStatus       constant.DeliveryStatus `gorm:"column:email_status;size:16;not null"`
	ErrorMessage      *string                 `gorm:"column:error_message"`
	SentAt            time.Time               `gorm:"column:sent_at;not null;index;index:idx_reminder_logs_lookup,priority:3,sort:desc"`
	// DedupKey is only set on sent entries; the unique index makes a second
	// sent entry for the same subscription, window and day impossible.
	DedupKey *string `gorm:"column:dedup_key;uniqueIndex"`
}

// TableName specifies the table name for the ReminderLog entity.
func (ReminderLog) TableName() string {
	return "reminder_logs"
}

// ReminderClaim reserves a dedup key for the pass that is about to send.
type ReminderClaim struct {
	Key       string    `gorm:"column:dedup_key;primaryKey;size:128"`
	ClaimedAt time.Time `gorm:"column:claimed_at;not null;index"`
}

// TableName specifies the table name for the ReminderClaim entity.
func (ReminderClaim) TableName() string {
	return "reminder_claims"
}

// DedupKey builds the (subscription, window, calendar day) key.
func DedupKey(subscriptionID string, kind constant.ReminderType, day time.Time) string {
	return fmt.Sprintf("%s|%s|%s", subscriptionID, kind, day.Format("2006-01-02"))
}
