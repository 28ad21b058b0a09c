package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
)

const (
	DefaultLogoID             = "other"
	DefaultReminderOffsetDays = 7
)

// Subscription is a recurring charge tracked for its owner.
type Subscription struct {
	ID          string          `gorm:"column:id;primaryKey;size:64"`
	UserID      string          `gorm:"column:user_id;index;index:idx_subscriptions_user_renewal,priority:1;not null"`
	Name        string          `gorm:"column:name;not null"`
	LogoID      string          `gorm:"column:logo_id"`
	WebsiteURL  string          `gorm:"column:website_url"`
	RenewalDate time.Time       `gorm:"column:renewal_date;index;index:idx_subscriptions_user_renewal,priority:2;not null"`
	Cost        decimal.Decimal `gorm:"column:cost;type:decimal(12,2);not null"`
	// ReminderOffsetDays is stored and returned to the owner but the reminder
	// windows are fixed at 7/3/1/0 days and do not consult it.
	ReminderOffsetDays int       `gorm:"column:reminder_offset_days"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for the Subscription entity.
func (Subscription) TableName() string {
	return "subscriptions"
}

// Normalize trims free-text fields, fills defaults and truncates the renewal
// date to its calendar day.
func (s *Subscription) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.LogoID = strings.TrimSpace(s.LogoID)
	if s.LogoID == "" {
		s.LogoID = DefaultLogoID
	}
	s.WebsiteURL = strings.TrimSpace(s.WebsiteURL)
	if !s.RenewalDate.IsZero() {
		s.RenewalDate = CalendarDate(s.RenewalDate)
	}
}

// Validate reports every rule the record violates.
func (s *Subscription) Validate() error {
	var result *multierror.Error
	if s.UserID == "" {
		result = multierror.Append(result, errors.New("owner is required"))
	}
	if strings.TrimSpace(s.Name) == "" {
		result = multierror.Append(result, errors.New("name is required"))
	}
	if s.RenewalDate.IsZero() {
		result = multierror.Append(result, errors.New("renewal_date is required"))
	}
	if s.Cost.IsNegative() {
		result = multierror.Append(result, fmt.Errorf("cost must be non-negative, got %s", s.Cost))
	}
	if s.ReminderOffsetDays < 0 {
		result = multierror.Append(result, fmt.Errorf("reminder_offset_days must be non-negative, got %d", s.ReminderOffsetDays))
	}
	return result.ErrorOrNil()
}

// UpcomingRenewal is a subscription joined with the contact of its owner,
// which is what the reminder pass needs to notify.
type UpcomingRenewal struct {
	Subscription Subscription
	OwnerContact string
}

// NewUpcomingRenewal validates the pair before it reaches the reminder pass.
func NewUpcomingRenewal(sub Subscription, ownerContact string) (UpcomingRenewal, error) {
	if sub.ID == "" {
		return UpcomingRenewal{}, errors.New("subscription id is required")
	}
	if err := sub.Validate(); err != nil {
		return UpcomingRenewal{}, err
	}
	if strings.TrimSpace(ownerContact) == "" {
		return UpcomingRenewal{}, fmt.Errorf("subscription %s has no owner contact", sub.ID)
	}
	return UpcomingRenewal{Subscription: sub, OwnerContact: ownerContact}, nil
}
