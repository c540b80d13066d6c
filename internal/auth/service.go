package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"passcheck/internal/platform/audit"
	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/requestcontext"
)

// CredentialVerifier checks an email/password pair, normally the user
// service.
type CredentialVerifier interface {
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
}

// RevocationStore is the token revocation list.
type RevocationStore interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Identity is the verified caller extracted from a token.
type Identity struct {
	UserID id.UserID
	Role   string
}

type Service struct {
	credentials    CredentialVerifier
	tokens         *TokenMaker
	revocations    RevocationStore
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

func New(credentials CredentialVerifier, tokens *TokenMaker, revocations RevocationStore, opts ...Option) (*Service, error) {
	if credentials == nil {
		return nil, fmt.Errorf("credential verifier is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token maker is required")
	}
	if revocations == nil {
		return nil, fmt.Errorf("revocation store is required")
	}

	svc := &Service{
		credentials: credentials,
		tokens:      tokens,
		revocations: revocations,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.credentials.Authenticate(ctx, email, password)
	if err != nil {
		return "", nil, err
	}

	token, err := s.tokens.Generate(user.ID.String(), user.Role.String(), requestcontext.Now(ctx))
	if err != nil {
		return "", nil, err
	}

	audit.Log(ctx, s.logger, s.auditPublisher, "auth.login", user.ID.String(),
		"email", user.Email,
	)
	return token, user, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
// Revoking an already revoked token succeeds.
func (s *Service) Logout(ctx context.Context, tokenString string) error {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return err
	}

	ttl := s.tokens.TTL()
	if claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.revocations.Revoke(ctx, claims.ID, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoke token")
	}

	audit.Log(ctx, s.logger, s.auditPublisher, "auth.logout", claims.UserID)
	return nil
}

// Verify validates a token against the signature, expiry and the revocation
// list, and returns the caller's identity.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check token revocation")
	}
	if revoked {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token has been revoked")
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &Identity{UserID: userID, Role: claims.Role}, nil
}
