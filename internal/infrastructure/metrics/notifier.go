// Package metrics adds Prometheus instrumentation to reminder delivery.
package metrics

import (
	"context"
	"time"

	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome label values.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

type notifier interface {
	Notify(ctx context.Context, contact string, sub *entity.Subscription, daysUntilRenewal int, kind constant.ReminderType) error
}

// Notifier is a decorator that counts and times reminder deliveries.
type Notifier struct {
	next         notifier
	sendCounter  *prometheus.CounterVec
	sendDuration *prometheus.HistogramVec
}

// NewNotifier wraps next and registers its collectors with reg.
func NewNotifier(next notifier, reg prometheus.Registerer) *Notifier {
	sendCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtrack_reminders_total",
			Help: "Reminder deliveries by window and outcome.",
		},
		[]string{"window", "outcome"},
	)

	sendDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "subtrack_reminder_send_duration_seconds",
			Help:    "Time spent rendering and handing a reminder to the mail transport.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"window", "outcome"},
	)

	reg.MustRegister(sendCounter, sendDuration)

	return &Notifier{
		next:         next,
		sendCounter:  sendCounter,
		sendDuration: sendDuration,
	}
}

// Notify delegates to the wrapped notifier and records the result.
func (n *Notifier) Notify(ctx context.Context, contact string, sub *entity.Subscription, daysUntilRenewal int, kind constant.ReminderType) error {
	start := time.Now()
	err := n.next.Notify(ctx, contact, sub, daysUntilRenewal, kind)

	outcome := OutcomeSent
	if err != nil {
		outcome = OutcomeFailed
	}
	n.sendCounter.WithLabelValues(kind.String(), outcome).Inc()
	n.sendDuration.WithLabelValues(kind.String(), outcome).Observe(time.Since(start).Seconds())

	return err
}
