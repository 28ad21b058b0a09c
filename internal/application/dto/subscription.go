package dto

import (
	"fmt"
	"time"

	"subtrack/internal/domain/entity"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("renewal_date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// CreateSubscriptionRequest is the DTO for creating a subscription.
type CreateSubscriptionRequest struct {
	Name               string          `json:"name"`
	RenewalDate        string          `json:"renewal_date"`
	Cost               decimal.Decimal `json:"cost"`
	ReminderOffsetDays *int            `json:"reminder_offset_days,omitempty"`
	LogoID             string          `json:"logo_id,omitempty"`
	WebsiteURL         string          `json:"website_url,omitempty"`
}

// UpdateSubscriptionRequest is the DTO for a partial update. Nil fields are left unchanged.
type UpdateSubscriptionRequest struct {
	Name               *string          `json:"name,omitempty"`
	RenewalDate        *string          `json:"renewal_date,omitempty"`
	Cost               *decimal.Decimal `json:"cost,omitempty"`
	ReminderOffsetDays *int             `json:"reminder_offset_days,omitempty"`
	LogoID             *string          `json:"logo_id,omitempty"`
	WebsiteURL         *string          `json:"website_url,omitempty"`
}

// SubscriptionResponse is the DTO for returning a subscription to its owner.
type SubscriptionResponse struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	LogoID             string          `json:"logo_id"`
	WebsiteURL         string          `json:"website_url"`
	RenewalDate        string          `json:"renewal_date"`
	Cost               decimal.Decimal `json:"cost"`
	ReminderOffsetDays int             `json:"reminder_offset_days"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ToSubscriptionResponse converts an entity.Subscription to a SubscriptionResponse DTO.
func ToSubscriptionResponse(s *entity.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID,
		Name:               s.Name,
		LogoID:             s.LogoID,
		WebsiteURL:         s.WebsiteURL,
		RenewalDate:        s.RenewalDate.Format(DateLayout),
		Cost:               s.Cost,
		ReminderOffsetDays: s.ReminderOffsetDays,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ToSubscriptionResponseList converts a slice of subscriptions to response DTOs.
func ToSubscriptionResponseList(subs []*entity.Subscription) []SubscriptionResponse {
	list := make([]SubscriptionResponse, len(subs))
	for i, s := range subs {
		list[i] = ToSubscriptionResponse(s)
	}
	return list
}

// SubscriptionStats summarizes an owner's subscriptions.
type SubscriptionStats struct {
	TotalSubscriptions int             `json:"total_subscriptions"`
	TotalCost          decimal.Decimal `json:"total_cost"`
	AverageCost        decimal.Decimal `json:"average_cost"`
	NextRenewalDate    string          `json:"next_renewal_date,omitempty"`
	LastRenewalDate    string          `json:"last_renewal_date,omitempty"`
}
