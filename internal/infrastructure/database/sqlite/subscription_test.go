package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"subtrack/internal/domain/entity"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestSubscriptionRepository_CreateAppliesDefaults(t *testing.T) {
	conn := newTestConnection(t)
	seedUser(t, conn, "u1", "owner@example.com")
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()

	sub := newSubscription("u1", " Netflix ", time.Date(2024, time.May, 3, 18, 30, 0, 0, time.UTC), "15.49")
	require.NoError(t, repo.Create(ctx, sub))
	assert.NotEmpty(t, sub.ID)

	got, err := repo.FindByID(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", got.Name)
	assert.Equal(t, entity.DefaultLogoID, got.LogoID)
	assert.Equal(t, "", got.WebsiteURL)
	assert.True(t, got.RenewalDate.Equal(day(2024, time.May, 3)))
	assert.Equal(t, "15.49", got.Cost.StringFixed(2))
}

func TestSubscriptionRepository_CreateRejectsInvalidRecord(t *testing.T) {
	conn := newTestConnection(t)
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())

	err := repo.Create(context.Background(), newSubscription("u1", "", day(2024, time.May, 3), "-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidSubscription))
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "cost must be non-negative")
}

func TestSubscriptionRepository_ScopedToOwner(t *testing.T) {
	conn := newTestConnection(t)
	seedUser(t, conn, "u1", "one@example.com")
	seedUser(t, conn, "u2", "two@example.com")
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()

	sub := newSubscription("u1", "Spotify", day(2024, time.May, 3), "9.99")
	require.NoError(t, repo.Create(ctx, sub))

	_, err := repo.FindByID(ctx, "u2", sub.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	err = repo.Delete(ctx, "u2", sub.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	other := *sub
	other.UserID = "u2"
	other.Name = "Hijacked"
	err = repo.Update(ctx, &other)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	got, err := repo.FindByID(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spotify", got.Name)
}

func TestSubscriptionRepository_UpdateAndDelete(t *testing.T) {
	conn := newTestConnection(t)
	seedUser(t, conn, "u1", "one@example.com")
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()

	sub := newSubscription("u1", "Spotify", day(2024, time.May, 3), "9.99")
	require.NoError(t, repo.Create(ctx, sub))

	sub.Name = "Spotify Family"
	sub.RenewalDate = day(2024, time.June, 3)
	require.NoError(t, repo.Update(ctx, sub))

	got, err := repo.FindByID(ctx, "u1", sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Spotify Family", got.Name)
	assert.True(t, got.RenewalDate.Equal(day(2024, time.June, 3)))

	require.NoError(t, repo.Delete(ctx, "u1", sub.ID))
	_, err = repo.FindByID(ctx, "u1", sub.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestSubscriptionRepository_FindByUserIDOrdersByRenewal(t *testing.T) {
	conn := newTestConnection(t)
	seedUser(t, conn, "u1", "one@example.com")
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newSubscription("u1", "Later", day(2024, time.July, 1), "1")))
	require.NoError(t, repo.Create(ctx, newSubscription("u1", "Sooner", day(2024, time.June, 1), "1")))
	require.NoError(t, repo.Create(ctx, newSubscription("u2", "Other", day(2024, time.May, 1), "1")))

	subs, err := repo.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "Sooner", subs[0].Name)
	assert.Equal(t, "Later", subs[1].Name)
}

func TestSubscriptionRepository_FindUpcoming(t *testing.T) {
	conn := newTestConnection(t)
	seedUser(t, conn, "u1", "owner@example.com")
	repo := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()
	today := day(2024, time.March, 10)

	for name, renewal := range map[string]time.Time{
		"yesterday": day(2024, time.March, 9),
		"today":     day(2024, time.March, 10),
		"in a week": day(2024, time.March, 17),
		"last day":  day(2024, time.April, 9),
		"beyond":    day(2024, time.April, 10),
	} {
		require.NoError(t, repo.Create(ctx, newSubscription("u1", name, renewal, "9.99")))
	}
	// Owner without a user row cannot be notified.
	require.NoError(t, repo.Create(ctx, newSubscription("ghost", "orphan", day(2024, time.March, 12), "1")))

	upcoming, err := repo.FindUpcoming(ctx, today, 30)
	require.NoError(t, err)

	names := make([]string, 0, len(upcoming))
	for _, u := range upcoming {
		names = append(names, u.Subscription.Name)
		assert.Equal(t, "owner@example.com", u.OwnerContact)
	}
	assert.Equal(t, []string{"today", "in a week", "last day"}, names)

	overdue, err := repo.FindOverdue(ctx, today)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "yesterday", overdue[0].Subscription.Name)
}

func TestUserRepository_DeleteRemovesSubscriptions(t *testing.T) {
	conn := newTestConnection(t)
	users := NewUserRepository(conn.DB())
	subs := NewSubscriptionRepository(conn.DB(), logger.Discard())
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &entity.User{ID: "u1", Email: "one@example.com"}))
	require.NoError(t, subs.Create(ctx, newSubscription("u1", "Spotify", day(2024, time.May, 3), "9.99")))

	require.NoError(t, users.Delete(ctx, "u1"))

	_, err := users.FindByID(ctx, "u1")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	remaining, err := subs.FindByUserID(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)

	assert.True(t, errors.Is(users.Delete(ctx, "u1"), gorm.ErrRecordNotFound))
}
