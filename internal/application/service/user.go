package service

import (
	"context"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/entity"
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	// GetOrCreateUser finds the caller or registers them on first use. A changed
	// email replaces the stored one.
	GetOrCreateUser(ctx context.Context, identity dto.Identity) (*entity.User, error)
	// GetUser finds a user by ID. Returns ErrUserNotFound if missing.
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	// DeleteUser deletes the user and their subscriptions.
	DeleteUser(ctx context.Context, userID string) error
}
