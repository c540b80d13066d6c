// Package handler exposes the admin stats endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"passcheck/internal/admin/models"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

// Service produces the dashboard snapshot.
type Service interface {
	Overview(ctx context.Context) (*models.Overview, error)
}

type Handler struct {
	logger *slog.Logger
	stats  Service
}

func New(stats Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger: logger,
		stats:  stats,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/api/admin/stats", h.handleStats)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := h.stats.Overview(r.Context())
	if err != nil {
		if dErrors.CodeOf(err) == dErrors.CodeInternal {
			h.logger.ErrorContext(r.Context(), "request failed",
				"op", "admin stats",
				"request_id", requestcontext.RequestID(r.Context()),
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, overview)
}
