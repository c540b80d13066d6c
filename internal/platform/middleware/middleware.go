// Package middleware provides the HTTP middleware stack: request
// correlation, identity extraction and role gating.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"passcheck/internal/auth"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

const requestIDHeader = "X-Request-ID"

// Verifier validates an access token and returns the caller's identity.
type Verifier interface {
	Verify(ctx context.Context, tokenString string) (*auth.Identity, error)
}

// RequestID attaches a correlation ID to the request context, honoring one
// supplied by the caller.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Recovery turns panics into 500 responses instead of dropped connections.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if logger != nil {
						logger.ErrorContext(r.Context(), "panic recovered",
							"request_id", requestcontext.RequestID(r.Context()),
							"path", r.URL.Path,
							"panic", rec,
						)
					}
					httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Logger emits one structured line per request.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			logger.InfoContext(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(r.Context()),
			)
		})
	}
}

// Authenticate extracts an optional bearer identity into the request
// context. Requests without an Authorization header pass through anonymous;
// requests with an invalid or revoked token are rejected rather than silently
// downgraded.
func Authenticate(verifier Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if logger != nil {
					logger.WarnContext(r.Context(), "rejected token",
						"request_id", requestcontext.RequestID(r.Context()),
						"error", err.Error(),
					)
				}
				httputil.WriteError(w, err)
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), identity.UserID)
			ctx = requestcontext.WithRole(ctx, identity.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.UserID(r.Context()).IsNil() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests not carrying the ADMIN role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requestcontext.UserID(r.Context()).IsNil() {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
			return
		}
		if requestcontext.Role(r.Context()) != "ADMIN" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
