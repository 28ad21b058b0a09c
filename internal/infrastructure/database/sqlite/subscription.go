package sqlite

import (
	"context"
	"fmt"
	"time"

	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type subscriptionRepository struct {
	db  *gorm.DB
	log logger.Logger
}

// NewSubscriptionRepository creates a new instance of SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB, log logger.Logger) repository.SubscriptionRepository {
	return &subscriptionRepository{db: db, log: log}
}

// renewalRow is a subscription joined with its owner's email.
type renewalRow struct {
	entity.Subscription `gorm:"embedded"`
	OwnerEmail          string `gorm:"column:owner_email"`
}

// FindByID retrieves one of the owner's subscriptions.
func (r *subscriptionRepository) FindByID(ctx context.Context, userID, id string) (*entity.Subscription, error) {
	var sub entity.Subscription
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to find subscription %s: %w", id, err)
	}
	return &sub, nil
}

// FindByUserID lists the owner's subscriptions, soonest renewal first.
func (r *subscriptionRepository) FindByUserID(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	var subs []*entity.Subscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("renewal_date asc").Order("name asc").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to find subscriptions by user_id %s: %w", userID, err)
	}
	return subs, nil
}

// Create validates and inserts a subscription, assigning an id when missing.
func (r *subscriptionRepository) Create(ctx context.Context, sub *entity.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidSubscription, err)
	}
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("🔴 ERROR: failed to create subscription for user %s: %w", sub.UserID, err)
	}
	return nil
}

// Update validates and saves every field of a subscription.
func (r *subscriptionRepository) Update(ctx context.Context, sub *entity.Subscription) error {
	sub.Normalize()
	if err := sub.Validate(); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrInvalidSubscription, err)
	}
	res := r.db.WithContext(ctx).Model(&entity.Subscription{}).
		Where("id = ? AND user_id = ?", sub.ID, sub.UserID).
		Select("name", "logo_id", "website_url", "renewal_date", "cost", "reminder_offset_days", "updated_at").
		Updates(map[string]interface{}{
			"name":                 sub.Name,
			"logo_id":              sub.LogoID,
			"website_url":          sub.WebsiteURL,
			"renewal_date":         sub.RenewalDate,
			"cost":                 sub.Cost,
			"reminder_offset_days": sub.ReminderOffsetDays,
			"updated_at":           time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("🔴 ERROR: failed to update subscription %s: %w", sub.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", sub.ID, gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete deletes one of the owner's subscriptions. Its reminder logs stay for audit.
func (r *subscriptionRepository) Delete(ctx context.Context, userID, id string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&entity.Subscription{})
	if res.Error != nil {
		return fmt.Errorf("🔴 ERROR: failed to delete subscription %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("subscription %s: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

// FindUpcoming returns subscriptions renewing within [today, today+lookaheadDays]
// together with the owner's email. Rows that fail validation are skipped.
func (r *subscriptionRepository) FindUpcoming(ctx context.Context, today time.Time, lookaheadDays int) ([]entity.UpcomingRenewal, error) {
	from := entity.CalendarDate(today)
	to := from.AddDate(0, 0, lookaheadDays)
	return r.findRenewals(ctx, "subscriptions.renewal_date >= ? AND subscriptions.renewal_date <= ?", from, to)
}

// FindOverdue returns subscriptions whose renewal date is before today.
func (r *subscriptionRepository) FindOverdue(ctx context.Context, today time.Time) ([]entity.UpcomingRenewal, error) {
	return r.findRenewals(ctx, "subscriptions.renewal_date < ?", entity.CalendarDate(today))
}

func (r *subscriptionRepository) findRenewals(ctx context.Context, query string, args ...interface{}) ([]entity.UpcomingRenewal, error) {
	var rows []renewalRow
	err := r.db.WithContext(ctx).
		Table("subscriptions").
		Select("subscriptions.*, COALESCE(users.email, '') AS owner_email").
		Joins("LEFT JOIN users ON users.id = subscriptions.user_id").
		Where(query, args...).
		Order("subscriptions.renewal_date asc").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("🔴 ERROR: failed to query renewals: %w", err)
	}

	renewals := make([]entity.UpcomingRenewal, 0, len(rows))
	for _, row := range rows {
		renewal, err := entity.NewUpcomingRenewal(row.Subscription, row.OwnerEmail)
		if err != nil {
			r.log.Warn(fmt.Sprintf("Skipping subscription %s: %v", row.ID, err))
			continue
		}
		renewals = append(renewals, renewal)
	}
	return renewals, nil
}
