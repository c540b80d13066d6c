package check

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passcheck/internal/checker/models"
	id "passcheck/pkg/domain"
)

func newCheck(userID id.UserID, subID id.SubscriptionID, createdAt time.Time) *models.PasswordCheck {
	sub := subID
	return &models.PasswordCheck{
		ID:             id.NewCheckID(),
		UserID:         userID,
		SubscriptionID: &sub,
		Score:          90,
		Level:          models.LevelVeryStrong,
		CreatedAt:      createdAt,
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	from := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("Get for missing id returns nil", func(t *testing.T) {
		store := New()
		got, err := store.Get(ctx, id.NewCheckID())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("Insert then Get returns a copy", func(t *testing.T) {
		store := New()
		check := newCheck(id.NewUserID(), id.NewSubscriptionID(), now)
		require.NoError(t, store.Insert(ctx, check))

		got, err := store.Get(ctx, check.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, check.Score, got.Score)

		// Mutating the returned record must not touch stored state.
		got.Score = 0
		again, err := store.Get(ctx, check.ID)
		require.NoError(t, err)
		assert.Equal(t, 90, again.Score)
	})

	t.Run("CountInWindow respects boundaries and ownership", func(t *testing.T) {
		store := New()
		userID := id.NewUserID()
		subID := id.NewSubscriptionID()
		otherSub := id.NewSubscriptionID()

		require.NoError(t, store.Insert(ctx, newCheck(userID, subID, from)))                   // inclusive lower bound
		require.NoError(t, store.Insert(ctx, newCheck(userID, subID, to.Add(-time.Second))))   // inside
		require.NoError(t, store.Insert(ctx, newCheck(userID, subID, to)))                     // exclusive upper bound
		require.NoError(t, store.Insert(ctx, newCheck(userID, subID, from.Add(-time.Second)))) // yesterday
		require.NoError(t, store.Insert(ctx, newCheck(userID, otherSub, now)))                 // other subscription

		count, err := store.CountInWindow(ctx, subID, from, to)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("DetachSubscription clears references but keeps records", func(t *testing.T) {
		store := New()
		userID := id.NewUserID()
		subID := id.NewSubscriptionID()
		check := newCheck(userID, subID, now)
		require.NoError(t, store.Insert(ctx, check))

		detached, err := store.DetachSubscription(ctx, subID)
		require.NoError(t, err)
		assert.Equal(t, 1, detached)

		got, err := store.Get(ctx, check.ID)
		require.NoError(t, err)
		require.NotNil(t, got, "detach must not delete the record")
		assert.Nil(t, got.SubscriptionID)

		count, err := store.CountInWindow(ctx, subID, from, to)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "detached records no longer count against the subscription")
	})

	t.Run("DeleteByUser removes only that user's records", func(t *testing.T) {
		store := New()
		victim := id.NewUserID()
		bystander := id.NewUserID()
		subID := id.NewSubscriptionID()

		kept := newCheck(bystander, subID, now)
		require.NoError(t, store.Insert(ctx, newCheck(victim, subID, now)))
		require.NoError(t, store.Insert(ctx, newCheck(victim, subID, now)))
		require.NoError(t, store.Insert(ctx, kept))

		deleted, err := store.DeleteByUser(ctx, victim)
		require.NoError(t, err)
		assert.Equal(t, 2, deleted)

		got, err := store.Get(ctx, kept.ID)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})
}

func TestInMemoryStoreConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	store := New()
	userID := id.NewUserID()
	subID := id.NewSubscriptionID()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	from, to := now.Truncate(24*time.Hour), now.Truncate(24*time.Hour).Add(24*time.Hour)

	const goroutines = 50
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Insert(ctx, newCheck(userID, subID, now))
		}()
	}
	wg.Wait()

	count, err := store.CountInWindow(ctx, subID, from, to)
	require.NoError(t, err)
	assert.Equal(t, goroutines, count)
}
