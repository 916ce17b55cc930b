package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/timecard/internal/config"
	"github.com/crucial707/timecard/internal/db"
	"github.com/crucial707/timecard/internal/handlers"
	"github.com/crucial707/timecard/internal/middleware"
	"github.com/crucial707/timecard/internal/notify"
	"github.com/crucial707/timecard/internal/repo"
	"github.com/crucial707/timecard/internal/scheduler"
)

func main() {

	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBMaxOpenConns,
		cfg.DBMaxIdleConns,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(db.URL(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass)); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Background sweep for timesheets left open past the cutoff.
	go scheduler.Run(
		repo.NewTimesheetRepo(database),
		time.Duration(cfg.OpenTimesheetMaxAgeHours)*time.Hour,
	)

	r := newRouter(database, cfg)

	addr := ":" + cfg.Port
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		slog.Info("starting server with TLS", "addr", addr)
		log.Fatal(http.ListenAndServeTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile, r))
	}
	slog.Info("starting server", "addr", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

// setupLogger installs the process-wide slog handler. "json" for structured
// output, anything else for text.
func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}

// newRouter builds the full API router. Shared with the integration tests so
// they exercise the same middleware chain as production.
func newRouter(database *sql.DB, cfg config.Config) chi.Router {
	userRepo := repo.NewUserRepo(database)
	timesheetRepo := repo.NewTimesheetRepo(database)
	changeLogRepo := repo.NewChangeLogRepo(database)
	jobsiteRepo := repo.NewJobsiteRepo(database)
	costCodeRepo := repo.NewCostCodeRepo(database)

	var notifier handlers.Notifier
	if cfg.NotifyURL != "" {
		notifier = notify.NewRelay(cfg.NotifyURL, cfg.AppLinkBase)
	}

	authHandler := &handlers.AuthHandler{
		UserRepo: userRepo,
		Secret:   []byte(cfg.JWTSecret),
		Expire:   time.Duration(cfg.JWTExpireHours) * time.Hour,
	}
	timesheetHandler := &handlers.TimesheetHandler{Repo: timesheetRepo, Notify: notifier}
	changeLogHandler := &handlers.ChangeLogHandler{Repo: changeLogRepo}
	jobsiteHandler := &handlers.JobsiteHandler{Repo: jobsiteRepo}
	costCodeHandler := &handlers.CostCodeHandler{Repo: costCodeRepo}
	userHandler := &handlers.UserHandler{Repo: userRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	// Health and metrics (no auth)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := database.Ping(); err != nil {
			http.Error(w, "db unreachable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth (rate limited)
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	// Protected API
	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Get("/timesheets/{id}/details", timesheetHandler.GetDetails)
		r.Post("/timesheets/{id}/revision", timesheetHandler.SubmitRevision)
		r.Get("/changelogs", changeLogHandler.List)
		r.Get("/jobsites", jobsiteHandler.Summary)
		r.Get("/costcodes", costCodeHandler.ListByJobsite)
		r.Get("/users", userHandler.ListUsers)
		r.Get("/users/{id}", userHandler.GetUser)
	})

	return r
}
