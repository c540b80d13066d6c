package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "passcheck/internal/admin/handler"
	adminservice "passcheck/internal/admin/service"
	"passcheck/internal/auth"
	authhandler "passcheck/internal/auth/handler"
	"passcheck/internal/auth/store/revocation"
	"passcheck/internal/cache"
	checkerhandler "passcheck/internal/checker/handler"
	"passcheck/internal/checker/ledger"
	checkermetrics "passcheck/internal/checker/metrics"
	checkerports "passcheck/internal/checker/ports"
	checkerservice "passcheck/internal/checker/service"
	checkstore "passcheck/internal/checker/store/check"
	"passcheck/internal/platform/audit"
	"passcheck/internal/platform/config"
	"passcheck/internal/platform/httpserver"
	"passcheck/internal/platform/logger"
	"passcheck/internal/platform/middleware"
	"passcheck/internal/platform/postgres"
	"passcheck/internal/platform/redis"
	subhandler "passcheck/internal/subscription/handler"
	subports "passcheck/internal/subscription/ports"
	subservice "passcheck/internal/subscription/service"
	planstore "passcheck/internal/subscription/store/plan"
	substore "passcheck/internal/subscription/store/subscription"
	userhandler "passcheck/internal/user/handler"
	userports "passcheck/internal/user/ports"
	userservice "passcheck/internal/user/service"
	userstore "passcheck/internal/user/store/user"
	"passcheck/pkg/platform/httputil"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a database is configured, in-memory otherwise.
	// The memory stores mirror the postgres constraints, so the service layer
	// behaves identically either way.
	var (
		users  userports.UserStore
		plans  subports.PlanStore
		subs   subports.SubscriptionStore
		checks checkerports.CheckStore

		counters struct {
			users, plans, subs adminservice.Counter
			checks             adminservice.CheckCounter
		}
		checkRemover userservice.CheckRemover
		detacher     subservice.CheckDetacher
	)

	if cfg.DatabaseURL != "" {
		pool, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			return err
		}

		us := userstore.NewPostgres(pool)
		ps := planstore.NewPostgres(pool)
		ss := substore.NewPostgres(pool)
		cs := checkstore.NewPostgres(pool)
		users, plans, subs, checks = us, ps, ss, cs
		counters.users, counters.plans, counters.subs, counters.checks = us, ps, ss, cs
		checkRemover, detacher = cs, cs
		log.Info("using postgres stores")
	} else {
		us := userstore.New()
		ps := planstore.New()
		ss := substore.New()
		cs := checkstore.New()
		users, plans, subs, checks = us, ps, ss, cs
		counters.users, counters.plans, counters.subs, counters.checks = us, ps, ss, cs
		checkRemover, detacher = cs, cs
		log.Warn("no database configured, using in-memory stores")
	}

	// Token revocation: redis-backed when configured, process-local otherwise.
	var revocations auth.RevocationStore
	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocations = revocation.NewRedis(redisClient.Client)
		log.Info("using redis revocation store")
	} else {
		revocations = revocation.NewInMemory()
	}

	var auditPublisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, audit.DefaultTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
		auditPublisher = publisher
		log.Info("audit events publishing to kafka", "brokers", cfg.KafkaBrokers)
	}

	readCache := cache.New(config.CacheTTL)

	subscriptions, err := subservice.New(subs, plans, readCache,
		subservice.WithLogger(log),
		subservice.WithAuditPublisher(auditPublisher),
		subservice.WithCheckDetacher(detacher),
	)
	if err != nil {
		return err
	}
	planSvc, err := subservice.NewPlans(plans, subs, readCache,
		subservice.WithPlanLogger(log),
		subservice.WithPlanAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	quota, err := ledger.New(checks, ledger.WithLogger(log))
	if err != nil {
		return err
	}
	checker, err := checkerservice.New(quota, subscriptions,
		checkerservice.WithLogger(log),
		checkerservice.WithMetrics(checkermetrics.New()),
		checkerservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	accounts, err := userservice.New(users,
		userservice.WithLogger(log),
		userservice.WithAuditPublisher(auditPublisher),
		userservice.WithCache(readCache),
		userservice.WithSubscriptionRemover(subscriptions),
		userservice.WithCheckRemover(checkRemover),
	)
	if err != nil {
		return err
	}

	tokens := auth.NewTokenMaker(cfg.JWTSigningKey, cfg.TokenTTL)
	authSvc, err := auth.New(accounts, tokens, revocations,
		auth.WithLogger(log),
		auth.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return err
	}

	stats, err := adminservice.New(counters.users, counters.plans, counters.subs, counters.checks)
	if err != nil {
		return err
	}

	router := newRouter(log, authSvc, checker, subscriptions, planSvc, accounts, stats)

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(
	log *slog.Logger,
	authSvc *auth.Service,
	checker *checkerservice.Service,
	subscriptions *subservice.Service,
	plans *subservice.PlanService,
	accounts *userservice.Service,
	stats *adminservice.Service,
) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Authenticate(authSvc, log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	authhandler.New(authSvc, accounts, log).Register(r)
	checkerhandler.New(checker, log).Register(r)

	// Administration surfaces: accounts, plans, subscriptions and the
	// dashboard all require the ADMIN role.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		userhandler.New(accounts, log).Register(r)
		subhandler.New(subscriptions, plans, log).Register(r)
		adminhandler.New(stats, log).Register(r)
	})

	return r
}
