// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/wardsuite/clinic-desk/internal/audit"
	auditpostgres "github.com/wardsuite/clinic-desk/internal/audit/postgres"
	"github.com/wardsuite/clinic-desk/internal/auth"
	authpostgres "github.com/wardsuite/clinic-desk/internal/auth/postgres"
	"github.com/wardsuite/clinic-desk/internal/authz"
	"github.com/wardsuite/clinic-desk/internal/config"
	"github.com/wardsuite/clinic-desk/internal/pkg/ctxlog"
	"github.com/wardsuite/clinic-desk/internal/pkg/httputil"
	"github.com/wardsuite/clinic-desk/internal/pkg/metrics"
	"github.com/wardsuite/clinic-desk/internal/pkg/postgres"
	"github.com/wardsuite/clinic-desk/internal/pkg/ratelimit"
	pkgredis "github.com/wardsuite/clinic-desk/internal/pkg/redis"
	"github.com/wardsuite/clinic-desk/internal/records"
	recordspostgres "github.com/wardsuite/clinic-desk/internal/records/postgres"
	"github.com/wardsuite/clinic-desk/internal/session"
	"github.com/wardsuite/clinic-desk/internal/version"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	redisClient   *goredis.Client
	sessionStore  session.Store
	server        *http.Server
	metricsServer *http.Server
	metricsCancel context.CancelFunc
	auditTrail    *audit.Trail
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	metricsCtx, metricsCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		db:            db,
		metricsCancel: metricsCancel,
	}

	if err := app.setupSessionStore(connectCtx); err != nil {
		db.Close()
		metricsCancel()
		return nil, err
	}

	go app.collectDBMetrics(metricsCtx)

	router, err := app.setupRouter(metricsCtx)
	if err != nil {
		app.closeStores()
		metricsCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"session_backend", a.config.Session.Backend,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.metricsCancel()

	// Stop the audit trail first so buffered entries get flushed while the
	// database is still up.
	if a.auditTrail != nil {
		a.auditTrail.Stop()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.closeStores()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// setupSessionStore selects the session store backend from config.
func (a *App) setupSessionStore(ctx context.Context) error {
	switch a.config.Session.Backend {
	case "redis":
		client, err := pkgredis.Connect(ctx, pkgredis.Config{
			Addr:     a.config.Session.Redis.Addr,
			Password: a.config.Session.Redis.Password,
			DB:       a.config.Session.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = client
		a.sessionStore = session.NewRedisStore(client)
	default:
		a.sessionStore = session.NewMemoryStore()
	}
	return nil
}

func (a *App) closeStores() {
	if store, ok := a.sessionStore.(*session.MemoryStore); ok {
		store.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("close redis client", "error", err)
		}
	}
	a.db.Close()
}

func (a *App) collectDBMetrics(ctx context.Context) {
	// Collect immediately on start
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		http.ServeFile(w, r, "api/openapi/openapi.yaml")
	})

	r.Get("/docs", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>ClinicDesk API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
	})

	// Audit trail: best-effort, may be disabled entirely.
	var recorder audit.Recorder
	if a.config.Audit.Enabled {
		trail := audit.NewTrail(audit.TrailConfig{
			QueueSize:     a.config.Audit.QueueSize,
			BatchSize:     a.config.Audit.BatchSize,
			FlushInterval: a.config.Audit.FlushInterval,
		}, auditpostgres.NewRepository(a.db))
		trail.Start(ctx)
		a.auditTrail = trail
		recorder = trail
	}

	var limiter *ratelimit.Keyed
	if a.config.Auth.LoginRatePerMinute > 0 {
		limiter = ratelimit.NewKeyed(
			rate.Limit(a.config.Auth.LoginRatePerMinute/60.0),
			a.config.Auth.LoginBurst,
		)
	}

	authRepo := authpostgres.NewRepository(a.db)
	authService := auth.NewService(authRepo, limiter, recorder, a.config.Auth.BcryptCost)

	sessionManager := session.NewManager(a.sessionStore, a.config.Session.TTL)
	tokenIssuer := auth.NewTokenIssuer(a.config.Auth.TokenSecret, a.config.Auth.TokenTTL)

	authHandler := auth.NewHandler(authService, sessionManager, tokenIssuer, auth.CookieSettings{
		Secure: a.config.Cookie.Secure,
		Domain: a.config.Cookie.Domain,
	})

	enforcer := authz.NewEnforcer(recorder)

	recordsRepo := recordspostgres.NewRepository(a.db)
	recordsHandler := records.NewHandler(recordsRepo)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware(sessionManager, tokenIssuer))

		authHandler.RegisterRoutes(r)
		recordsHandler.RegisterRoutes(r, enforcer)
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
