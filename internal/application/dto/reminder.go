package dto

import (
	"time"

	"subtrack/internal/domain/entity"
)

// RunStatistics summarizes one reminder pass. It is not persisted.
type RunStatistics struct {
	TotalChecked      int `json:"total_checked"`
	RemindersSent     int `json:"reminders_sent"`
	DuplicatesSkipped int `json:"duplicates_skipped"`
	Failed            int `json:"failed"`
	OverdueFound      int `json:"overdue_found"`
	// LogWriteFailures counts reminders that went out but whose sent entry
	// could not be stored. Each one risks a duplicate on a later day's pass.
	LogWriteFailures int `json:"log_write_failures"`
	Batches          int `json:"batches"`
}

// EmailMessage is one outbound email handed to a mail transport.
type EmailMessage struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// ReminderLogResponse is the DTO for one entry of a subscription's reminder history.
type ReminderLogResponse struct {
	ID                string    `json:"id"`
	ReminderType      string    `json:"reminder_type"`
	DaysBeforeRenewal int       `json:"days_before_renewal"`
	RenewalDate       string    `json:"renewal_date"`
	EmailStatus       string    `json:"email_status"`
	ErrorMessage      string    `json:"error_message,omitempty"`
	SentAt            time.Time `json:"sent_at"`
}

// ToReminderLogResponseList converts log entries to response DTOs.
func ToReminderLogResponseList(entries []*entity.ReminderLog) []ReminderLogResponse {
	list := make([]ReminderLogResponse, len(entries))
	for i, e := range entries {
		list[i] = ReminderLogResponse{
			ID:                e.ID,
			ReminderType:      e.ReminderType.String(),
			DaysBeforeRenewal: e.DaysBeforeRenewal,
			RenewalDate:       e.RenewalDateAtSend.Format(DateLayout),
			EmailStatus:       e.EmailStatus.String(),
			SentAt:            e.SentAt,
		}
		if e.ErrorMessage != nil {
			list[i].ErrorMessage = *e.ErrorMessage
		}
	}
	return list
}
