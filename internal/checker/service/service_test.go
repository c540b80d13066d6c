package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passcheck/internal/checker/ledger"
	"passcheck/internal/checker/models"
	"passcheck/internal/checker/store/check"
	submodels "passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
)

type stubResolver struct {
	sub *submodels.ActiveSubscription
	err error
}

func (r *stubResolver) ActiveForUser(_ context.Context, _ id.UserID) (*submodels.ActiveSubscription, error) {
	return r.sub, r.err
}

func activeSubscription(userID id.UserID, maxPerDay int) *submodels.ActiveSubscription {
	planID := id.NewPlanID()
	return &submodels.ActiveSubscription{
		Subscription: submodels.Subscription{
			ID:        id.NewSubscriptionID(),
			UserID:    userID,
			PlanID:    planID,
			StartDate: submodels.DateOnly(time.Now().UTC()),
			Status:    submodels.StatusActive,
		},
		Plan: submodels.Plan{
			ID:              planID,
			Name:            "Basic",
			PriceCents:      999,
			MaxChecksPerDay: maxPerDay,
			Active:          true,
		},
	}
}

func newService(t *testing.T, store *check.InMemoryStore, resolver *stubResolver) *Service {
	t.Helper()

	ldg, err := ledger.New(store)
	require.NoError(t, err)

	svc, err := New(ldg, resolver)
	require.NoError(t, err)
	return svc
}

func TestNewValidation(t *testing.T) {
	store := check.New()
	ldg, err := ledger.New(store)
	require.NoError(t, err)

	_, err = New(nil, &stubResolver{})
	require.Error(t, err)

	_, err = New(ldg, nil)
	require.Error(t, err)
}

func TestCheckAnonymous(t *testing.T) {
	store := check.New()
	svc := newService(t, store, &stubResolver{})

	result, err := svc.Check(context.Background(), "Abcdef123!", nil)
	require.NoError(t, err)

	assert.Equal(t, 90, result.Score)
	assert.Equal(t, models.LevelVeryStrong, result.Level)
	assert.True(t, result.IsValid)
	assert.Nil(t, result.RemainingChecks)
	assert.Nil(t, result.MaxChecksPerDay)
}

func TestCheckNoActiveSubscription(t *testing.T) {
	svc := newService(t, check.New(), &stubResolver{sub: nil})
	userID := id.NewUserID()

	_, err := svc.Check(context.Background(), "Abcdef123!", &userID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestCheckResolverFailure(t *testing.T) {
	svc := newService(t, check.New(), &stubResolver{err: fmt.Errorf("connection refused")})
	userID := id.NewUserID()

	_, err := svc.Check(context.Background(), "Abcdef123!", &userID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}

func TestCheckChargesQuota(t *testing.T) {
	userID := id.NewUserID()
	sub := activeSubscription(userID, 3)
	store := check.New()
	svc := newService(t, store, &stubResolver{sub: sub})

	for want := 2; want >= 0; want-- {
		result, err := svc.Check(context.Background(), "Abcdef123!", &userID)
		require.NoError(t, err)

		require.NotNil(t, result.RemainingChecks)
		require.NotNil(t, result.MaxChecksPerDay)
		assert.Equal(t, want, *result.RemainingChecks)
		assert.Equal(t, 3, *result.MaxChecksPerDay)
	}

	from, to := ledger.Window(time.Now().UTC())
	used, err := store.CountInWindow(context.Background(), sub.Subscription.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, used)
}

func TestCheckQuotaExhausted(t *testing.T) {
	userID := id.NewUserID()
	sub := activeSubscription(userID, 1)
	store := check.New()
	svc := newService(t, store, &stubResolver{sub: sub})

	_, err := svc.Check(context.Background(), "Abcdef123!", &userID)
	require.NoError(t, err)

	_, err = svc.Check(context.Background(), "Abcdef123!", &userID)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLimitExceeded))
	assert.Contains(t, err.Error(), "all 1 checks used")

	// the refused attempt must leave no trace
	from, to := ledger.Window(time.Now().UTC())
	used, err := store.CountInWindow(context.Background(), sub.Subscription.ID, from, to)
	require.NoError(t, err)
	assert.Equal(t, 1, used)
}

func TestCheckRecordsScoreAndLevel(t *testing.T) {
	userID := id.NewUserID()
	sub := activeSubscription(userID, 5)
	store := check.New()
	svc := newService(t, store, &stubResolver{sub: sub})

	_, err := svc.Check(context.Background(), "abcdefgh", &userID)
	require.NoError(t, err)

	from, to := ledger.Window(time.Now().UTC())
	used, err := store.CountInWindow(context.Background(), sub.Subscription.ID, from, to)
	require.NoError(t, err)
	require.Equal(t, 1, used)
}

func TestCheckConcurrentLastSlot(t *testing.T) {
	userID := id.NewUserID()
	sub := activeSubscription(userID, 1)
	store := check.New()
	svc := newService(t, store, &stubResolver{sub: sub})

	const workers = 16
	var succeeded, refused atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := svc.Check(context.Background(), "Abcdef123!", &userID)
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeLimitExceeded):
				refused.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), succeeded.Load())
	assert.Equal(t, int64(workers-1), refused.Load())
}
