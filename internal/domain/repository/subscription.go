package repository

import (
	"context"
	"time"

	"subtrack/internal/domain/entity"
)

// SubscriptionRepository defines the owner-scoped subscription store plus the
// date-range queries the reminder pass needs.
type SubscriptionRepository interface {
	FindByID(ctx context.Context, userID, id string) (*entity.Subscription, error)
	// FindByUserID lists the owner's subscriptions ordered by renewal date.
	FindByUserID(ctx context.Context, userID string) ([]*entity.Subscription, error)
	Create(ctx context.Context, sub *entity.Subscription) error
	Update(ctx context.Context, sub *entity.Subscription) error
	Delete(ctx context.Context, userID, id string) error

	// FindUpcoming returns subscriptions renewing within [today, today+lookaheadDays],
	// each joined with its owner's contact.
	FindUpcoming(ctx context.Context, today time.Time, lookaheadDays int) ([]entity.UpcomingRenewal, error)
	// FindOverdue returns subscriptions whose renewal date is before today.
	FindOverdue(ctx context.Context, today time.Time) ([]entity.UpcomingRenewal, error)
}
