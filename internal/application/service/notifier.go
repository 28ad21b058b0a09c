package service

import (
	"context"
	"fmt"
	"time"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
	"subtrack/internal/pkg/logger"
)

// MailTransport delivers one email. Any error means the message was not accepted.
type MailTransport interface {
	Send(ctx context.Context, msg dto.EmailMessage) error
}

// Notifier formats and dispatches a single reminder. Failures are returned as
// *errors.DeliveryError; the notifier never retries.
type Notifier interface {
	Notify(ctx context.Context, contact string, sub *entity.Subscription, daysUntilRenewal int, kind constant.ReminderType) error
}

// Alerter notifies an operator about conditions that need a human.
type Alerter interface {
	Alert(ctx context.Context, message string) error
}

// JobLocker provides cross-process mutual exclusion for scheduled jobs.
// ok is false when another holder owns the lock.
type JobLocker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (unlock func(context.Context) error, ok bool, err error)
}

type logAlerter struct {
	log logger.Logger
}

// NewLogAlerter returns an Alerter that writes alerts to the error log. It is
// used when no operator channel is configured.
func NewLogAlerter(log logger.Logger) Alerter {
	return &logAlerter{log: log}
}

func (a *logAlerter) Alert(_ context.Context, message string) error {
	a.log.Error(fmt.Sprintf("ALERT: %s", message), nil)
	return nil
}
