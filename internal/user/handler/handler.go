// Package handler exposes the account administration endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passcheck/internal/user/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

// Service defines the account operations the handler uses.
type Service interface {
	Get(ctx context.Context, userID id.UserID) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Delete(ctx context.Context, userID id.UserID) error
}

type Handler struct {
	logger *slog.Logger
	users  Service
}

func New(users Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		users:  users,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Get("/{userID}", h.handleGet)
		r.Delete("/{userID}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "list users")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err, "get user")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		h.writeError(w, r, err, "delete user")
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
