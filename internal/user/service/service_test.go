package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"passcheck/internal/user/models"
	userstore "passcheck/internal/user/store/user"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
)

func newService(t *testing.T, opts ...Option) (*Service, *userstore.InMemoryStore) {
	t.Helper()

	store := userstore.New()
	svc, err := New(store, opts...)
	require.NoError(t, err)
	return svc, store
}

func TestRegister(t *testing.T) {
	svc, store := newService(t)

	user, err := svc.Register(context.Background(), "dev@example.com", "Dev", "hunter2!")
	require.NoError(t, err)

	assert.Equal(t, "dev@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, models.StatusActive, user.Status)
	assert.False(t, user.ID.IsNil())
	assert.NotEqual(t, "hunter2!", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2!")))

	stored, err := store.Get(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "dev@example.com", "Dev", "hunter2!")
	require.NoError(t, err)

	// case differences do not bypass uniqueness
	_, err = svc.Register(context.Background(), "DEV@example.com", "Dev Two", "hunter2!")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestRegisterDerivesNameWhenBlank(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.Register(context.Background(), "jane.doe@example.com", "", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Register(context.Background(), "not-an-email", "Dev", "hunter2!")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = svc.Register(context.Background(), "dev@example.com", "Dev", "")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newService(t)

	registered, err := svc.Register(context.Background(), "dev@example.com", "Dev", "hunter2!")
	require.NoError(t, err)

	user, err := svc.Authenticate(context.Background(), "dev@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	_, err = svc.Authenticate(context.Background(), "dev@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = svc.Authenticate(context.Background(), "nobody@example.com", "hunter2!")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

type spyRemover struct {
	deleted []id.UserID
}

func (r *spyRemover) DeleteByUser(_ context.Context, userID id.UserID) (int, error) {
	r.deleted = append(r.deleted, userID)
	return 1, nil
}

func TestDeleteCascades(t *testing.T) {
	subs := &spyRemover{}
	checks := &spyRemover{}
	svc, store := newService(t, WithSubscriptionRemover(subs), WithCheckRemover(checks))

	user, err := svc.Register(context.Background(), "dev@example.com", "Dev", "hunter2!")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), user.ID))

	assert.Equal(t, []id.UserID{user.ID}, subs.deleted)
	assert.Equal(t, []id.UserID{user.ID}, checks.deleted)

	stored, err := store.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDeleteMissing(t *testing.T) {
	svc, _ := newService(t)

	err := svc.Delete(context.Background(), id.NewUserID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestGetAndList(t *testing.T) {
	svc, _ := newService(t)

	user, err := svc.Register(context.Background(), "dev@example.com", "Dev", "hunter2!")
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, got.Email)

	_, err = svc.Get(context.Background(), id.NewUserID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	users, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
