// Package service implements account management: registration, credential
// verification and account deletion with its cascade.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"passcheck/internal/cache"
	"passcheck/internal/platform/audit"
	"passcheck/internal/user/models"
	"passcheck/internal/user/ports"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/email"
	"passcheck/pkg/platform/sentinel"
	"passcheck/pkg/requestcontext"
)

// SubscriptionRemover and CheckRemover are the cascade hooks: deleting an
// account removes its subscriptions and check records.
type SubscriptionRemover interface {
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)
}

type CheckRemover interface {
	DeleteByUser(ctx context.Context, userID id.UserID) (int, error)
}

type Service struct {
	users          ports.UserStore
	subscriptions  SubscriptionRemover
	checks         CheckRemover
	cache          *cache.Cache
	logger         *slog.Logger
	auditPublisher audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithCache(c *cache.Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithSubscriptionRemover(subs SubscriptionRemover) Option {
	return func(s *Service) {
		s.subscriptions = subs
	}
}

func WithCheckRemover(checks CheckRemover) Option {
	return func(s *Service) {
		s.checks = checks
	}
}

func New(users ports.UserStore, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, fmt.Errorf("user store is required")
	}

	svc := &Service{users: users}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates an account with a bcrypt password hash. The first rules a
// password must satisfy are deliberately minimal; evaluating strength is the
// checker's job, not a registration gate.
func (s *Service) Register(ctx context.Context, emailAddr, name, password string) (*models.User, error) {
	if _, err := mail.ParseAddress(emailAddr); err != nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if password == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "password is required")
	}
	if name == "" {
		name = email.DeriveName(emailAddr)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	user := &models.User{
		ID:           id.NewUserID(),
		Email:        emailAddr,
		Name:         name,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		Status:       models.StatusActive,
		CreatedAt:    requestcontext.Now(ctx).UTC(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "insert user")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, "user.registered", user.ID.String(),
		"email", emailAddr,
	)
	return user, nil
}

// Authenticate verifies credentials. The same unauthorized error covers an
// unknown email and a wrong password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}
	if user == nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	if user.Status != models.StatusActive {
		return nil, dErrors.New(dErrors.CodeForbidden, "account is disabled")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")
	}
	return user, nil
}

func (s *Service) Get(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := s.cachedGet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return user, nil
}

func (s *Service) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list users")
	}
	return users, nil
}

// Delete removes the account and everything it owns: subscriptions and check
// records go with it. Mirrors the ON DELETE CASCADE behavior of the postgres
// schema for the in-memory stores.
func (s *Service) Delete(ctx context.Context, userID id.UserID) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "load user")
	}
	if user == nil {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}

	if s.checks != nil {
		if _, err := s.checks.DeleteByUser(ctx, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete user checks")
		}
	}
	if s.subscriptions != nil {
		if _, err := s.subscriptions.DeleteByUser(ctx, userID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "delete user subscriptions")
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete user")
	}

	if s.cache != nil {
		s.cache.Remove(cache.NewKey(cache.KindUser, userID.String()))
	}
	audit.Log(ctx, s.logger, s.auditPublisher, "user.deleted", userID.String(),
		"email", user.Email,
	)
	return nil
}

func (s *Service) cachedGet(ctx context.Context, userID id.UserID) (*models.User, error) {
	load := func(ctx context.Context) (*models.User, error) {
		user, err := s.users.Get(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load user")
		}
		return user, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	key := cache.NewKey(cache.KindUser, userID.String())
	return cache.GetOrSet(ctx, s.cache, key, 0, load)
}
