package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	"passcheck/pkg/platform/sentinel"
)

func newPlan(name string, maxPerDay int) *models.Plan {
	return &models.Plan{
		ID:              id.NewPlanID(),
		Name:            name,
		PriceCents:      499,
		MaxChecksPerDay: maxPerDay,
		Active:          true,
	}
}

func TestGetMissing(t *testing.T) {
	store := New()

	got, err := store.Get(context.Background(), id.NewPlanID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInsertAndGet(t *testing.T) {
	store := New()
	plan := newPlan("Basic", 10)

	require.NoError(t, store.Insert(context.Background(), plan))

	got, err := store.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *plan, *got)

	// mutating the returned copy must not touch the stored plan
	got.Name = "changed"
	again, err := store.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "Basic", again.Name)
}

func TestInsertDuplicateName(t *testing.T) {
	store := New()

	require.NoError(t, store.Insert(context.Background(), newPlan("Basic", 10)))

	err := store.Insert(context.Background(), newPlan("Basic", 20))
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestExistsByName(t *testing.T) {
	store := New()
	plan := newPlan("Basic", 10)
	require.NoError(t, store.Insert(context.Background(), plan))

	exists, err := store.ExistsByName(context.Background(), "Basic", id.PlanID{})
	require.NoError(t, err)
	assert.True(t, exists)

	// the plan itself is carved out when renaming
	exists, err = store.ExistsByName(context.Background(), "Basic", plan.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ExistsByName(context.Background(), "Premium", id.PlanID{})
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdate(t *testing.T) {
	store := New()
	plan := newPlan("Basic", 10)
	require.NoError(t, store.Insert(context.Background(), plan))

	plan.MaxChecksPerDay = 25
	require.NoError(t, store.Update(context.Background(), plan))

	got, err := store.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.MaxChecksPerDay)
}

func TestUpdateMissing(t *testing.T) {
	store := New()

	err := store.Update(context.Background(), newPlan("Basic", 10))
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUpdateNameCollision(t *testing.T) {
	store := New()
	require.NoError(t, store.Insert(context.Background(), newPlan("Basic", 10)))
	premium := newPlan("Premium", 100)
	require.NoError(t, store.Insert(context.Background(), premium))

	premium.Name = "Basic"
	err := store.Update(context.Background(), premium)
	require.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestDelete(t *testing.T) {
	store := New()
	plan := newPlan("Basic", 10)
	require.NoError(t, store.Insert(context.Background(), plan))

	require.NoError(t, store.Delete(context.Background(), plan.ID))

	got, err := store.Get(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	err = store.Delete(context.Background(), plan.ID)
	require.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestList(t *testing.T) {
	store := New()
	require.NoError(t, store.Insert(context.Background(), newPlan("Basic", 10)))
	require.NoError(t, store.Insert(context.Background(), newPlan("Premium", 100)))

	plans, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}
