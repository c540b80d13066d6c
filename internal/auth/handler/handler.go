// Package handler exposes the register, login and logout endpoints.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"passcheck/internal/user/models"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

// AuthService defines the token operations the handler uses.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	Logout(ctx context.Context, tokenString string) error
}

// Registrar creates accounts, normally the user service.
type Registrar interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
}

type Handler struct {
	logger   *slog.Logger
	auth     AuthService
	accounts Registrar
}

func New(auth AuthService, accounts Registrar, logger *slog.Logger) *Handler {
	return &Handler{
		logger:   logger,
		auth:     auth,
		accounts: accounts,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Post("/logout", h.handleLogout)
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	user, err := h.accounts.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		h.writeError(w, r, err, "register")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err, "login")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		User:        user,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.writeError(w, r, err, "logout")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(r.Context(), "request failed",
			"op", op,
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err.Error(),
		)
	}
	httputil.WriteError(w, err)
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
