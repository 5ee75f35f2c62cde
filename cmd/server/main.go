package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/rs/zerolog"

	"github.com/civicdesk/civicdesk-api/internal/config"
	"github.com/civicdesk/civicdesk-api/internal/handlers"
	"github.com/civicdesk/civicdesk-api/internal/middleware"
	"github.com/civicdesk/civicdesk-api/internal/migration"
	"github.com/civicdesk/civicdesk-api/internal/notification"
	"github.com/civicdesk/civicdesk-api/internal/push"
	"github.com/civicdesk/civicdesk-api/internal/repository"
	"github.com/civicdesk/civicdesk-api/internal/routes"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config        *config.Config
	db            *sql.DB
	logger        zerolog.Logger
	notifications notification.Service
	registry      *push.Registry
}

func main() {
	// Set up structured, level-based logging.
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	logger := zerolog.New(consoleWriter).With().Timestamp().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.SetFlags(0)
	log.SetOutput(logger)

	// Load configuration.
	cfg := config.Load()

	// Initialize database connection.
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping database")
	}

	// Run database migrations.
	migration.RunMigrations(cfg.DatabaseURL, logger)

	// Initialize the notification service, with the staff alert mailer when
	// SMTP is configured.
	notificationRepo := repository.NewNotificationRepository(db)
	var notifiers []notification.Notifier
	if cfg.Email.SMTPHost != "" {
		mailer, err := notification.NewEmailNotifier(cfg.Email, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure alert mailer")
		}
		notifiers = append(notifiers, mailer)
	}
	notificationService := notification.NewService(notificationRepo, logger, notifiers...)

	// The connection registry and heartbeat scheduler live for the whole
	// process and are injected into the handlers that need them.
	registry := push.NewRegistry(cfg.Push.MaxConnectionsPerUser, logger)
	heartbeat := push.NewHeartbeat(registry, cfg.Push.HeartbeatInterval, logger)
	heartbeat.Start()
	defer heartbeat.Stop()

	app := &application{
		config:        cfg,
		db:            db,
		logger:        logger,
		notifications: notificationService,
		registry:      registry,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter(logger)
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins([]string{"http://localhost:3000"}),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler, logger)

	logger.Info().Msg("Application terminated.")
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter(logger zerolog.Logger) http.Handler {
	// Repositories
	complaintRepo := repository.NewComplaintRepository(app.db)
	attachmentRepo := repository.NewAttachmentRepository(app.db)
	settingRepo := repository.NewSettingRepository(app.db)

	// Handlers
	authHandler := handlers.NewAuthHandler(app.db, app.config, logger)
	complaintHandler := handlers.NewComplaintHandler(complaintRepo, app.notifications, logger)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentRepo, complaintRepo, app.config.Upload, logger)
	notificationHandler := handlers.NewNotificationHandler(app.notifications, app.config.Push.FeedLimit, logger)
	streamHandler := handlers.NewStreamHandler(app.registry, app.notifications, app.config.Push, logger)
	settingHandler := handlers.NewSettingHandler(settingRepo, logger)
	exportHandler := handlers.NewExportHandler(complaintRepo, logger)

	return routes.NewRouter(authHandler, complaintHandler, attachmentHandler, notificationHandler, streamHandler, settingHandler, exportHandler)
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler, logger zerolog.Logger) {
	// Open push streams only end when their request contexts are cancelled,
	// so every request context hangs off baseCtx and shutdown cancels it
	// before draining the server.
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	server := &http.Server{
		Addr:    ":" + app.config.ServerPort,
		Handler: handler,
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		logger.Error().Err(err).Msg("Server error occurred")
	}

	// End the push sessions, then gracefully shut down the HTTP server.
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		logger.Info().Msg("HTTP server shutdown complete.")
	}
}
