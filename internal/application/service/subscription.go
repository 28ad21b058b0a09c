package service

import (
	"context"

	"subtrack/internal/application/dto"
)

// SubscriptionService defines the owner-scoped subscription operations.
// A subscription that belongs to someone else is reported as not found.
type SubscriptionService interface {
	Create(ctx context.Context, userID string, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	Get(ctx context.Context, userID, id string) (*dto.SubscriptionResponse, error)
	// List returns the owner's subscriptions ordered by renewal date.
	List(ctx context.Context, userID string) ([]dto.SubscriptionResponse, error)
	Update(ctx context.Context, userID, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (*dto.SubscriptionStats, error)
	// ReminderHistory lists the reminders recorded for one subscription, newest first.
	ReminderHistory(ctx context.Context, userID, id string, limit int) ([]dto.ReminderLogResponse, error)
}
