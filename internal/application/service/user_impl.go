package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors" // Alias to avoid collision
	"subtrack/internal/pkg/logger"

	"gorm.io/gorm"
)

type userService struct {
	userRepo repository.UserRepository
	log      logger.Logger
}

// NewUserService creates a new instance of UserService implementation.
func NewUserService(userRepo repository.UserRepository, log logger.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log,
	}
}

// GetOrCreateUser finds the caller or registers them on first use.
func (s *userService) GetOrCreateUser(ctx context.Context, identity dto.Identity) (*entity.User, error) {
	userID := strings.TrimSpace(identity.UserID)
	if userID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(identity.Email))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid email", appErrors.ErrUnauthorized)
	}
	// Only the bare address is stored; it becomes the envelope recipient.
	email := strings.ToLower(addr.Address)

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Info(fmt.Sprintf("User %s not found, creating new user.", userID))
			newUser := &entity.User{ID: userID, Email: email}
			if createErr := s.userRepo.Create(ctx, newUser); createErr != nil {
				s.log.Error("Failed to create user", createErr)
				return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, createErr)
			}
			return newUser, nil
		}
		s.log.Error(fmt.Sprintf("Failed to find user %s", userID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}

	if user.Email != email {
		user.Email = email
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.log.Error(fmt.Sprintf("Failed to update email for user %s", userID), err)
			return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
		}
		s.log.Info(fmt.Sprintf("Updated contact for user %s to %s", userID, logger.RedactEmail(email)))
	}
	return user, nil
}

// GetUser finds a user by ID. Returns error if not found.
func (s *userService) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		s.log.Error(fmt.Sprintf("Failed to get user %s", userID), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return user, nil
}

// DeleteUser deletes the user and their subscriptions.
func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErrors.ErrUserNotFound
		}
		s.log.Error(fmt.Sprintf("Failed to delete user %s", userID), err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	s.log.Info(fmt.Sprintf("Deleted user %s and their subscriptions.", userID))
	return nil
}
