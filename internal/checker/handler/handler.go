// Package handler exposes the password check endpoint.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passcheck/internal/checker/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

// Service defines the check operations the handler depends on.
type Service interface {
	Check(ctx context.Context, password string, userID *id.UserID) (models.Result, error)
}

type checkRequest struct {
	Password string `json:"password"`
}

type Handler struct {
	logger  *slog.Logger
	checker Service
}

func New(checker Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		checker: checker,
	}
}

// Register mounts the check routes. Authentication is optional on this
// surface: anonymous callers get the evaluation without quota accounting.
func (h *Handler) Register(r chi.Router) {
	r.Post("/api/password/check", h.handleCheck)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(ctx, "invalid check request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var userID *id.UserID
	if uid := requestcontext.UserID(ctx); !uid.IsNil() {
		userID = &uid
	}

	result, err := h.checker.Check(ctx, req.Password, userID)
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(ctx, "password check failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
