// Package handler exposes the subscription and plan management endpoints.
// These are admin surfaces; the router mounts them behind the admin
// middleware.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"passcheck/internal/subscription/models"
	id "passcheck/pkg/domain"
	dErrors "passcheck/pkg/domain-errors"
	"passcheck/pkg/platform/httputil"
	"passcheck/pkg/requestcontext"
)

// SubscriptionService defines the subscription operations the handler uses.
type SubscriptionService interface {
	Get(ctx context.Context, subID id.SubscriptionID) (*models.Subscription, error)
	List(ctx context.Context) ([]*models.Subscription, error)
	Create(ctx context.Context, userID id.UserID, planID id.PlanID, startDate time.Time) (*models.Subscription, error)
	Update(ctx context.Context, subID id.SubscriptionID, status models.Status, endDate *time.Time) (*models.Subscription, error)
	Deactivate(ctx context.Context, subID id.SubscriptionID) error
	Delete(ctx context.Context, subID id.SubscriptionID) error
}

// PlanService defines the plan catalog operations the handler uses.
type PlanService interface {
	Get(ctx context.Context, planID id.PlanID) (*models.Plan, error)
	List(ctx context.Context) ([]*models.Plan, error)
	Create(ctx context.Context, name string, priceCents int64, maxChecksPerDay int) (*models.Plan, error)
	Update(ctx context.Context, planID id.PlanID, name string, priceCents int64, maxChecksPerDay int, active bool) (*models.Plan, error)
	Delete(ctx context.Context, planID id.PlanID) error
}

type Handler struct {
	logger        *slog.Logger
	subscriptions SubscriptionService
	plans         PlanService
}

func New(subscriptions SubscriptionService, plans PlanService, logger *slog.Logger) *Handler {
	return &Handler{
		logger:        logger,
		subscriptions: subscriptions,
		plans:         plans,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/api/plans", func(r chi.Router) {
		r.Get("/", h.handleListPlans)
		r.Post("/", h.handleCreatePlan)
		r.Get("/{planID}", h.handleGetPlan)
		r.Put("/{planID}", h.handleUpdatePlan)
		r.Delete("/{planID}", h.handleDeletePlan)
	})
	r.Route("/api/subscriptions", func(r chi.Router) {
		r.Get("/", h.handleListSubscriptions)
		r.Post("/", h.handleCreateSubscription)
		r.Get("/{subscriptionID}", h.handleGetSubscription)
		r.Put("/{subscriptionID}", h.handleUpdateSubscription)
		r.Post("/{subscriptionID}/deactivate", h.handleDeactivateSubscription)
		r.Delete("/{subscriptionID}", h.handleDeleteSubscription)
	})
}

type createPlanRequest struct {
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	MaxChecksPerDay int    `json:"max_checks_per_day"`
}

type updatePlanRequest struct {
	Name            string `json:"name"`
	PriceCents      int64  `json:"price_cents"`
	MaxChecksPerDay int    `json:"max_checks_per_day"`
	Active          bool   `json:"active"`
}

type createSubscriptionRequest struct {
	UserID    string `json:"user_id"`
	PlanID    string `json:"plan_id"`
	StartDate string `json:"start_date,omitempty"`
}

type updateSubscriptionRequest struct {
	Status  string  `json:"status"`
	EndDate *string `json:"end_date"`
}

func (h *Handler) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "list plans")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plans)
}

func (h *Handler) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id"))
		return
	}

	plan, err := h.plans.Get(r.Context(), planID)
	if err != nil {
		h.writeError(w, r, err, "get plan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	plan, err := h.plans.Create(r.Context(), req.Name, req.PriceCents, req.MaxChecksPerDay)
	if err != nil {
		h.writeError(w, r, err, "create plan")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, plan)
}

func (h *Handler) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id"))
		return
	}

	var req updatePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	plan, err := h.plans.Update(r.Context(), planID, req.Name, req.PriceCents, req.MaxChecksPerDay, req.Active)
	if err != nil {
		h.writeError(w, r, err, "update plan")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, plan)
}

func (h *Handler) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	planID, err := id.ParsePlanID(chi.URLParam(r, "planID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id"))
		return
	}

	if err := h.plans.Delete(r.Context(), planID); err != nil {
		h.writeError(w, r, err, "delete plan")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subscriptions.List(r.Context())
	if err != nil {
		h.writeError(w, r, err, "list subscriptions")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subs)
}

func (h *Handler) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "subscriptionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subscription id"))
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), subID)
	if err != nil {
		h.writeError(w, r, err, "get subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req createSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user id"))
		return
	}
	planID, err := id.ParsePlanID(req.PlanID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid plan id"))
		return
	}

	startDate := requestcontext.Now(r.Context())
	if req.StartDate != "" {
		startDate, err = time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid start date, expected YYYY-MM-DD"))
			return
		}
	}

	sub, err := h.subscriptions.Create(r.Context(), userID, planID, startDate)
	if err != nil {
		h.writeError(w, r, err, "create subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Handler) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "subscriptionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subscription id"))
		return
	}

	var req updateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	var endDate *time.Time
	if req.EndDate != nil {
		parsed, err := time.Parse(time.DateOnly, *req.EndDate)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid end date, expected YYYY-MM-DD"))
			return
		}
		endDate = &parsed
	}

	sub, err := h.subscriptions.Update(r.Context(), subID, models.Status(req.Status), endDate)
	if err != nil {
		h.writeError(w, r, err, "update subscription")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sub)
}

func (h *Handler) handleDeactivateSubscription(w http.ResponseWriter, r *http.Request) {
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "subscriptionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subscription id"))
		return
	}

	if err := h.subscriptions.Deactivate(r.Context(), subID); err != nil {
		h.writeError(w, r, err, "deactivate subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	subID, err := id.ParseSubscriptionID(chi.URLParam(r, "subscriptionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subscription id"))
		return
	}

	if err := h.subscriptions.Delete(r.Context(), subID); err != nil {
		h.writeError(w, r, err, "delete subscription")
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
