package server

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"schooladmin/internal/domain/auth"
	"schooladmin/internal/domain/notifications"
	"schooladmin/internal/domain/payroll"
	"schooladmin/internal/domain/roster"
	"schooladmin/internal/platform/config"
	"schooladmin/internal/platform/db"
	"schooladmin/internal/platform/email"
	"schooladmin/internal/platform/metrics"
	"schooladmin/internal/transport/http/api"
	authhandler "schooladmin/internal/transport/http/handlers/auth"
	notificationshandler "schooladmin/internal/transport/http/handlers/notifications"
	payrollhandler "schooladmin/internal/transport/http/handlers/payroll"
	rosterhandler "schooladmin/internal/transport/http/handlers/roster"
	"schooladmin/internal/transport/http/middleware"
)

func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, "migrations"); err != nil {
			log.Fatalf("migrations failed: %v", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	}

	collector := metrics.New()
	mailer := email.New(cfg)

	notificationsSvc := notifications.New(notifications.NewStore(pool), mailer, cfg.EmailFrom, cfg.SchoolName)
	payrollSvc := payroll.NewService(payroll.NewStore(pool), notificationsSvc)
	rosterSvc := roster.NewService(roster.NewStore(pool), payrollSvc)

	policy := auth.Policy{
		MaxAttempts:     cfg.MaxLoginAttempts,
		LockoutDuration: cfg.LockoutDuration,
		OTPValidity:     cfg.OTPValidity,
		SessionTimeout:  cfg.SessionTimeout,
	}
	authSvc := auth.NewService(auth.NewStore(pool), policy, mailer, cfg.JWTSecret, cfg.EmailFrom, cfg.SchoolName)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMin, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	authLimit := max(cfg.RateLimitPerMin/4, 1)

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(authSvc, collector)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthRateLimit(authLimit, time.Minute))
			authHandler.RegisterRoutes(r)
		})

		payrollhandler.NewHandler(payrollSvc, collector).RegisterRoutes(r)
		rosterhandler.NewHandler(rosterSvc).RegisterRoutes(r)
		notificationshandler.NewHandler(notificationsSvc).RegisterRoutes(r)
	})

	slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
	if err := http.ListenAndServe(cfg.Addr, router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
