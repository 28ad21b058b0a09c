package repository

import (
	"context"

	"subtrack/internal/domain/entity"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// FindByID retrieves a user by the id issued by the upstream authenticator.
	FindByID(ctx context.Context, id string) (*entity.User, error)
	// Create creates a new user.
	Create(ctx context.Context, user *entity.User) error
	// Update updates an existing user.
	Update(ctx context.Context, user *entity.User) error
	// Delete deletes a user and everything they own.
	Delete(ctx context.Context, id string) error
}
