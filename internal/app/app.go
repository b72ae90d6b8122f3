package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"dscleaner/internal/config"
	apierrors "dscleaner/internal/errors"
	"dscleaner/internal/infrastructure"
	customMiddleware "dscleaner/internal/middleware"
	"dscleaner/internal/report"
	"dscleaner/internal/services"
	"dscleaner/internal/session"
	handlers "dscleaner/internal/transport/http"
	"dscleaner/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.BusinessMetrics
	ErrorHandler   *apierrors.ErrorHandler
	Sessions       *session.Store
	Sweeper        *session.Sweeper
	Reporter       report.Reporter
	DatasetService *services.DatasetService
	HealthService  *services.HealthService
}

// NewApplication loads configuration, initializes the process-wide logger and
// builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an already loaded configuration
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("report_mode", cfg.Report.Mode))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
	}

	if err := app.initializeServices(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()
	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	a.Sessions = session.NewStore(a.Config.Session.TTL, a.Logger)
	if err := infrastructure.RegisterSessionGauge(a.OTelProviders.Meter, a.Sessions.Len); err != nil {
		return fmt.Errorf("failed to register session gauge: %w", err)
	}

	sweeper, err := session.NewSweeper(a.Sessions, a.Config.Session.SweepSchedule, a.Logger)
	if err != nil {
		return err
	}
	a.Sweeper = sweeper

	reporter, err := report.New(report.Mode(a.Config.Report.Mode), report.Options{
		PreviewRows: a.Config.Report.PreviewRows,
	})
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}
	a.Reporter = reporter

	a.DatasetService = services.NewDatasetService(reporter, a.Logger,
		services.WithMetrics(metrics),
		services.WithTracer(a.OTelProviders.Tracer),
		services.WithSplitConfig(a.Config.Split),
	)
	a.HealthService = services.NewHealthService(a.Sessions, reporter, a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("reporter", reporter.Name()),
		slog.Duration("session_ttl", a.Config.Session.TTL))
	return nil
}

// setupRouter builds the chi router.
// Middleware order: RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}
	r.Use(otelMiddleware.Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowCredentials: true,
			Logger:           a.Logger,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
			a.ErrorHandler,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	validator := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, validator, a.Logger, a.ErrorHandler, a.Config.Server.MaxUploadBytes)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	sessionMiddleware := session.Middleware(a.Sessions, session.CookieOptions{
		Name:   a.Config.Session.CookieName,
		Secure: a.Config.Session.SecureCookie,
	})
	timeout := customMiddleware.Timeout(a.Config.Server.OperationTimeout, a.Logger, a.ErrorHandler)

	r.Get("/", handlers.ServeMainApp(a.Config.Server.MaxUploadBytes, a.Logger))
	r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))

	r.Route("/api", func(r chi.Router) {
		healthHandler.Register(r)

		r.Group(func(r chi.Router) {
			r.Use(timeout)
			r.Use(sessionMiddleware)
			r.Mount("/", datasetHandler.Routes())
		})
	})

	// paths served by earlier releases of the web UI
	r.Group(func(r chi.Router) {
		r.Use(timeout)
		r.Use(sessionMiddleware)
		r.Get("/profile_report", datasetHandler.Report)
		r.Get("/download", datasetHandler.Download)
		r.Get("/download/{dataset}", datasetHandler.DownloadSplit)
	})

	a.Router = r
	return nil
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(a.Logger.Handler(), slog.LevelWarn),
	}
}

// Serve runs the session sweeper and the HTTP server on ln until ctx is
// cancelled or the server fails, then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	a.Sweeper.Start()

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "HTTP server listening",
			slog.String("address", ln.Addr().String()),
			slog.String("version", contracts.Version))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	var errs []error
	if err := a.Server.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}
	if err := a.Sweeper.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("session sweeper shutdown error: %w", err))
	}
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run listens on the configured port and serves until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}
