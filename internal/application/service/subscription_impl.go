package service

import (
	"context"
	"errors"
	"fmt"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type subscriptionService struct {
	subRepo repository.SubscriptionRepository
	logRepo repository.ReminderLogRepository
	log     logger.Logger
}

// NewSubscriptionService creates a new instance of SubscriptionService implementation.
func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	logRepo repository.ReminderLogRepository,
	log logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		subRepo: subRepo,
		logRepo: logRepo,
		log:     log,
	}
}

func (s *subscriptionService) Create(ctx context.Context, userID string, req dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	renewal, err := dto.ParseDate(req.RenewalDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidSubscription, err)
	}
	sub := &entity.Subscription{
		UserID:             userID,
		Name:               req.Name,
		LogoID:             req.LogoID,
		WebsiteURL:         req.WebsiteURL,
		RenewalDate:        renewal,
		Cost:               req.Cost,
		ReminderOffsetDays: entity.DefaultReminderOffsetDays,
	}
	if req.ReminderOffsetDays != nil {
		sub.ReminderOffsetDays = *req.ReminderOffsetDays
	}

	if err := s.subRepo.Create(ctx, sub); err != nil {
		return nil, s.translate(err)
	}
	s.log.Info(fmt.Sprintf("Created subscription %s for user %s", sub.ID, userID))
	resp := dto.ToSubscriptionResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) Get(ctx context.Context, userID, id string) (*dto.SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, s.translate(err)
	}
	resp := dto.ToSubscriptionResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) List(ctx context.Context, userID string) ([]dto.SubscriptionResponse, error) {
	subs, err := s.subRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.translate(err)
	}
	return dto.ToSubscriptionResponseList(subs), nil
}

func (s *subscriptionService) Update(ctx context.Context, userID, id string, req dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	sub, err := s.subRepo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, s.translate(err)
	}

	if req.Name != nil {
		sub.Name = *req.Name
	}
	if req.RenewalDate != nil {
		renewal, err := dto.ParseDate(*req.RenewalDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", appErrors.ErrInvalidSubscription, err)
		}
		sub.RenewalDate = renewal
	}
	if req.Cost != nil {
		sub.Cost = *req.Cost
	}
	if req.ReminderOffsetDays != nil {
		sub.ReminderOffsetDays = *req.ReminderOffsetDays
	}
	if req.LogoID != nil {
		sub.LogoID = *req.LogoID
	}
	if req.WebsiteURL != nil {
		sub.WebsiteURL = *req.WebsiteURL
	}

	if err := s.subRepo.Update(ctx, sub); err != nil {
		return nil, s.translate(err)
	}
	s.log.Info(fmt.Sprintf("Updated subscription %s for user %s", id, userID))
	resp := dto.ToSubscriptionResponse(sub)
	return &resp, nil
}

func (s *subscriptionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.subRepo.Delete(ctx, userID, id); err != nil {
		return s.translate(err)
	}
	s.log.Info(fmt.Sprintf("Deleted subscription %s for user %s", id, userID))
	return nil
}

// Stats totals the owner's costs and finds the earliest and latest renewal.
func (s *subscriptionService) Stats(ctx context.Context, userID string) (*dto.SubscriptionStats, error) {
	subs, err := s.subRepo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, s.translate(err)
	}

	stats := &dto.SubscriptionStats{
		TotalSubscriptions: len(subs),
		TotalCost:          decimal.Zero,
		AverageCost:        decimal.Zero,
	}
	if len(subs) == 0 {
		return stats, nil
	}

	next, last := subs[0].RenewalDate, subs[0].RenewalDate
	for _, sub := range subs {
		stats.TotalCost = stats.TotalCost.Add(sub.Cost)
		if sub.RenewalDate.Before(next) {
			next = sub.RenewalDate
		}
		if sub.RenewalDate.After(last) {
			last = sub.RenewalDate
		}
	}
	stats.AverageCost = stats.TotalCost.Div(decimal.NewFromInt(int64(len(subs)))).Round(2)
	stats.NextRenewalDate = next.Format(dto.DateLayout)
	stats.LastRenewalDate = last.Format(dto.DateLayout)
	return stats, nil
}

func (s *subscriptionService) ReminderHistory(ctx context.Context, userID, id string, limit int) ([]dto.ReminderLogResponse, error) {
	if _, err := s.subRepo.FindByID(ctx, userID, id); err != nil {
		return nil, s.translate(err)
	}
	entries, err := s.logRepo.History(ctx, id, limit)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to load reminder history for subscription %s", id), err)
		return nil, fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
	return dto.ToReminderLogResponseList(entries), nil
}

// translate maps repository errors onto application errors.
func (s *subscriptionService) translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return appErrors.ErrSubscriptionNotFound
	case errors.Is(err, appErrors.ErrInvalidSubscription):
		return err
	default:
		s.log.Error("Subscription repository operation failed", err)
		return fmt.Errorf("%w: %v", appErrors.ErrDatabaseOperation, err)
	}
}
