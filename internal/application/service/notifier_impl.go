package service

import (
	"context"
	"fmt"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"
)

type emailNotifier struct {
	composer  *MessageComposer
	transport MailTransport
	log       logger.Logger
}

// NewNotifier creates a Notifier that renders reminders with composer and
// hands them to transport.
func NewNotifier(composer *MessageComposer, transport MailTransport, log logger.Logger) Notifier {
	return &emailNotifier{
		composer:  composer,
		transport: transport,
		log:       log,
	}
}

func (n *emailNotifier) Notify(ctx context.Context, contact string, sub *entity.Subscription, daysUntilRenewal int, kind constant.ReminderType) error {
	email, err := n.composer.Compose(sub, daysUntilRenewal)
	if err != nil {
		return &appErrors.DeliveryError{Recipient: contact, Err: fmt.Errorf("render: %w", err)}
	}

	msg := dto.EmailMessage{
		To:      contact,
		Subject: email.Subject,
		Text:    email.Text,
		HTML:    email.HTML,
	}
	if err := n.transport.Send(ctx, msg); err != nil {
		return &appErrors.DeliveryError{Recipient: contact, Err: err}
	}

	n.log.Debug(fmt.Sprintf("Sent %s reminder for subscription %s to %s (urgency %s)",
		kind, sub.ID, logger.RedactEmail(contact), email.Urgency))
	return nil
}
