// Package mail holds the outbound mail transports.
package mail

import (
	"context"
	"fmt"

	"subtrack/internal/application/dto"
	"subtrack/internal/pkg/logger"
)

// LogSender writes messages to the log instead of sending them. It is the
// default transport for local runs.
type LogSender struct {
	log logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the recipient and subject of msg.
func (s *LogSender) Send(ctx context.Context, msg dto.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("[MAIL] dry run to %s: %s", logger.RedactEmail(msg.To), msg.Subject))
	return nil
}
