package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passcheck/internal/auth/store/revocation"
	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
)

type stubVerifier struct {
	user *models.User
	err  error
}

func (v *stubVerifier) Authenticate(_ context.Context, _, _ string) (*models.User, error) {
	return v.user, v.err
}

func testUser() *models.User {
	return &models.User{
		ID:     id.NewUserID(),
		Email:  "dev@example.com",
		Name:   "Dev",
		Role:   models.RoleUser,
		Status: models.StatusActive,
	}
}

func newAuthService(t *testing.T, verifier CredentialVerifier) *Service {
	t.Helper()

	svc, err := New(verifier, NewTokenMaker("test-signing-key", time.Hour), revocation.NewInMemory())
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	user := testUser()
	svc := newAuthService(t, &stubVerifier{user: user})

	token, got, err := svc.Login(context.Background(), user.Email, "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)

	identity, err := svc.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "USER", identity.Role)
}

func TestLoginBadCredentials(t *testing.T) {
	svc := newAuthService(t, &stubVerifier{err: dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")})

	_, _, err := svc.Login(context.Background(), "dev@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestLogoutRevokesToken(t *testing.T) {
	user := testUser()
	svc := newAuthService(t, &stubVerifier{user: user})

	token, _, err := svc.Login(context.Background(), user.Email, "secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	// logging out twice is fine
	require.NoError(t, svc.Logout(context.Background(), token))
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newAuthService(t, &stubVerifier{user: testUser()})

	_, err := svc.Verify(context.Background(), "not.a.token")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	user := testUser()
	other := NewTokenMaker("different-key", time.Hour)
	token, err := other.Generate(user.ID.String(), "USER", time.Now())
	require.NoError(t, err)

	svc := newAuthService(t, &stubVerifier{user: user})

	_, err = svc.Verify(context.Background(), token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestValidateExpiredToken(t *testing.T) {
	maker := NewTokenMaker("test-signing-key", time.Minute)

	token, err := maker.Generate(id.NewUserID().String(), "USER", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = maker.Validate(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	assert.Contains(t, err.Error(), "expired")
}

func TestClaimsCarryDistinctIDs(t *testing.T) {
	maker := NewTokenMaker("test-signing-key", time.Hour)
	userID := id.NewUserID().String()

	first, err := maker.Generate(userID, "ADMIN", time.Now())
	require.NoError(t, err)
	second, err := maker.Generate(userID, "ADMIN", time.Now())
	require.NoError(t, err)

	a, err := maker.Validate(first)
	require.NoError(t, err)
	b, err := maker.Validate(second)
	require.NoError(t, err)

	assert.Equal(t, "ADMIN", a.Role)
	assert.NotEqual(t, a.ID, b.ID, "each token gets its own jti")
}
