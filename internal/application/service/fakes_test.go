package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"subtrack/internal/application/dto"
	"subtrack/internal/domain/constant"
	"subtrack/internal/domain/entity"
	"subtrack/internal/domain/repository"
	appErrors "subtrack/internal/pkg/errors"

	"github.com/shopspring/decimal"
)

var testToday = time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)

func renewalIn(days int, id string) entity.UpcomingRenewal {
	return entity.UpcomingRenewal{
		Subscription: entity.Subscription{
			ID:          id,
			UserID:      "owner-" + id,
			Name:        "Service " + id,
			RenewalDate: testToday.AddDate(0, 0, days),
			Cost:        decimal.RequireFromString("9.99"),
		},
		OwnerContact: id + "@example.com",
	}
}

type fakeSubscriptionRepo struct {
	repository.SubscriptionRepository
	upcoming     []entity.UpcomingRenewal
	overdue      []entity.UpcomingRenewal
	err          error
	gotLookahead int
}

func (f *fakeSubscriptionRepo) FindUpcoming(_ context.Context, _ time.Time, lookaheadDays int) ([]entity.UpcomingRenewal, error) {
	f.gotLookahead = lookaheadDays
	return f.upcoming, f.err
}

func (f *fakeSubscriptionRepo) FindOverdue(context.Context, time.Time) ([]entity.UpcomingRenewal, error) {
	return f.overdue, f.err
}

type fakeLogRepo struct {
	mu        sync.Mutex
	entries   []entity.ReminderLog
	claims    map[string]bool
	sentKeys  map[string]bool
	today     time.Time
	recordErr error
	claimErr  error
	purged    int
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{claims: map[string]bool{}, sentKeys: map[string]bool{}, today: testToday}
}

func (f *fakeLogRepo) RecordAttempt(_ context.Context, a repository.Attempt) (*entity.ReminderLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.recordErr != nil && a.Status == constant.StatusSent {
		return nil, f.recordErr
	}
	entry := entity.ReminderLog{
		ID:                fmt.Sprintf("log-%d", len(f.entries)+1),
		SubscriptionID:    a.SubscriptionID,
		UserID:            a.UserID,
		ReminderType:      a.Kind,
		DaysBeforeRenewal: a.DaysBeforeRenewal,
		RenewalDateAtSend: a.RenewalDate,
		EmailStatus:       a.Status,
		SentAt:            f.today,
	}
	if a.ErrorMessage != "" {
		msg := a.ErrorMessage
		entry.ErrorMessage = &msg
	}
	if a.Status == constant.StatusSent {
		key := entity.DedupKey(a.SubscriptionID, a.Kind, f.today)
		if f.sentKeys[key] {
			return nil, appErrors.ErrDuplicateReminder
		}
		f.sentKeys[key] = true
		entry.DedupKey = &key
	}
	f.entries = append(f.entries, entry)
	return &entry, nil
}

func (f *fakeLogRepo) WasSentToday(_ context.Context, subscriptionID string, kind constant.ReminderType) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sentKeys[entity.DedupKey(subscriptionID, kind, f.today)], nil
}

func (f *fakeLogRepo) ClaimDispatch(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeLogRepo) ReleaseClaim(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, key)
	return nil
}

func (f *fakeLogRepo) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	f.purged = days
	return 3, nil
}

func (f *fakeLogRepo) History(context.Context, string, int) ([]*entity.ReminderLog, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeLogRepo) DeliveryStats(context.Context, time.Time) (*repository.DeliveryStats, error) {
	return &repository.DeliveryStats{Total: 4, Sent: 3, Failed: 1, SuccessRate: 75}, nil
}

func (f *fakeLogRepo) byStatus(status constant.DeliveryStatus) []entity.ReminderLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.ReminderLog
	for _, e := range f.entries {
		if e.EmailStatus == status {
			out = append(out, e)
		}
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	calls    []string
	failFor  map[string]error
	delay    time.Duration
	block    bool
	inFlight int
	maxSeen  int
}

func (f *fakeNotifier) Notify(ctx context.Context, contact string, sub *entity.Subscription, _ int, _ constant.ReminderType) error {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.block {
		<-ctx.Done()
		return &appErrors.DeliveryError{Recipient: contact, Err: ctx.Err()}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sub.ID)
	if err, ok := f.failFor[sub.ID]; ok {
		return &appErrors.DeliveryError{Recipient: contact, Err: err}
	}
	return nil
}

type fakeAlerter struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeAlerter) Alert(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

type fakeTransport struct {
	sent []dto.EmailMessage
	err  error
}

func (f *fakeTransport) Send(_ context.Context, msg dto.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}
