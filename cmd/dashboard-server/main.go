package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medidesk/medidesk/internal/config"
	"github.com/medidesk/medidesk/internal/domain/appointments"
	"github.com/medidesk/medidesk/internal/domain/doctors"
	"github.com/medidesk/medidesk/internal/domain/inpatients"
	"github.com/medidesk/medidesk/internal/domain/notifications"
	"github.com/medidesk/medidesk/internal/domain/patients"
	"github.com/medidesk/medidesk/internal/domain/payments"
	"github.com/medidesk/medidesk/internal/domain/rooms"
	"github.com/medidesk/medidesk/internal/domain/users"
	"github.com/medidesk/medidesk/internal/platform/api"
	"github.com/medidesk/medidesk/internal/platform/db"
	"github.com/medidesk/medidesk/internal/platform/middleware"
	"github.com/medidesk/medidesk/internal/platform/query"
	"github.com/medidesk/medidesk/internal/platform/session"
	"github.com/medidesk/medidesk/internal/platform/websocket"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dashboard-server",
		Short: "Hospital administration dashboard backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage dashboard sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete expired sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := session.NewPGStore(pool).DeleteExpired(ctx)
			if err != nil {
				return fmt.Errorf("purge sessions: %w", err)
			}
			fmt.Printf("Deleted %d expired session(s).\n", n)
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}
	logger.Info().Msg("connected to database")

	// Upstream API client
	client := api.NewClient(cfg.UpstreamBaseURL,
		api.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		api.WithRateLimit(cfg.UpstreamRPS, cfg.UpstreamBurst),
		api.WithLogger(logger),
	)

	// Query cache shared by every resource view
	cache := query.New(cfg.ListStaleTTL, cfg.LookupStaleTTL, query.WithLogger(logger))

	// Invalidation hub
	hub := websocket.NewHub(logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.NewHTTPMetrics(prometheus.DefaultRegisterer).Middleware())
	e.Use(middleware.RequestTimeout(cfg.UpstreamTimeout + 5*time.Second))

	// Session endpoints stay public; everything under /views requires one.
	store := session.NewPGStore(pool)
	sessionHandler := session.NewHandler(store, cfg.SessionTTL, cfg.DefaultLanguage, cfg.IsProduction())
	sessionHandler.RegisterRoutes(e.Group(""))

	views := e.Group("")
	views.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
	views.Use(session.Middleware(store, logger))

	// Resource views
	doctorsHandler, err := doctors.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire doctors")
	}
	doctorsHandler.RegisterRoutes(views)

	patientsHandler, err := patients.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire patients")
	}
	patientsHandler.RegisterRoutes(views)

	roomsHandler, err := rooms.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire rooms")
	}
	roomsHandler.RegisterRoutes(views)

	inpatientsHandler, err := inpatients.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire inpatients")
	}
	inpatientsHandler.RegisterRoutes(views)

	appointmentsHandler, err := appointments.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire appointments")
	}
	appointmentsHandler.RegisterRoutes(views)

	paymentsHandler, err := payments.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire payments")
	}
	paymentsHandler.RegisterRoutes(views)

	usersHandler, err := users.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire users")
	}
	usersHandler.RegisterRoutes(views)

	notificationsHandler, err := notifications.NewHandler(client, cache, hub, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("wire notifications")
	}
	notificationsHandler.RegisterRoutes(views)

	// Live invalidation socket, guarded by the same session check
	websocket.NewHandler(hub).RegisterRoutes(views)

	// UI settings consumed by the dashboard shell
	views.GET("/uiconfig", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"searchDebounceMs": cfg.SearchDebounce.Milliseconds(),
			"defaultPageSize":  10,
			"defaultLanguage":  cfg.DefaultLanguage,
		})
	})

	// Operational endpoints
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Expired session sweep
	gcCtx, gcCancel := context.WithCancel(ctx)
	defer gcCancel()
	go session.GC(gcCtx, store, time.Hour, logger)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
