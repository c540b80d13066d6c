//go:build integration

package revocation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passcheck/internal/auth/store/revocation"
	"passcheck/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *revocation.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = revocation.NewRedis(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestRevokeAndCheck() {
	ctx := context.Background()

	revoked, err := s.store.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.False(revoked)

	s.Require().NoError(s.store.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = s.store.IsRevoked(ctx, "jti-1")
	s.Require().NoError(err)
	s.True(revoked)
}

func (s *RedisStoreSuite) TestRevocationExpires() {
	ctx := context.Background()

	s.Require().NoError(s.store.Revoke(ctx, "jti-short", 500*time.Millisecond))

	revoked, err := s.store.IsRevoked(ctx, "jti-short")
	s.Require().NoError(err)
	s.True(revoked)

	time.Sleep(time.Second)

	revoked, err = s.store.IsRevoked(ctx, "jti-short")
	s.Require().NoError(err)
	s.False(revoked)
}
