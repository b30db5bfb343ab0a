// Storefront proxy - BFF for a headless WooCommerce storefront.
// Serves the built SPA, proxies the WordPress REST API with server-held
// credentials, and handles contact, order-notification and design-upload
// side channels.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorilla "github.com/gorilla/handlers"

	"storefront-proxy/internal/config"
	"storefront-proxy/internal/handler"
	"storefront-proxy/internal/mail"
	"storefront-proxy/internal/middleware"
	"storefront-proxy/internal/proxy"
	"storefront-proxy/internal/store"
	"storefront-proxy/internal/wordpress"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx, logger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg.EnsureDataDir(logger)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("upstream", cfg.WordPress.APIURL),
		slog.String("env_file", cfg.EnvFile),
		slog.Bool("mail_configured", cfg.MailConfigured()),
	)

	// Message store and mail dispatcher
	messages := store.New(cfg.MessagesPath(), logger)
	mailer := mail.New(cfg.SMTP, logger)

	// Direct WordPress client for media uploads and credential checks
	wpClient, err := wordpress.New(wordpress.Config{
		APIURL:         cfg.WordPress.APIURL,
		ConsumerKey:    cfg.WooCommerce.ConsumerKey,
		ConsumerSecret: cfg.WooCommerce.ConsumerSecret,
	})
	if err != nil {
		return fmt.Errorf("creating WordPress client: %w", err)
	}

	// Generic /api/* forwarder with per-path credential selection
	apiProxy := proxy.New(proxy.Config{
		UpstreamURL: cfg.WordPress.APIURL,
		Auth:        proxy.NewAuthResolver(cfg),
		Logger:      logger,
	})

	// Create handler and routes
	h := handler.New(messages, mailer, wpClient, apiProxy, cfg, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// CORS for the admin UI and local frontend development
	cors := gorilla.CORS(
		gorilla.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorilla.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Request-ID"}),
	)

	// Apply middleware chain: recovery → request id → logging → CORS
	// Recovery must be outermost to catch panics from the inner layers;
	// RequestID must wrap Logging so the id is on the context it logs.
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
	)(cors(mux))

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("static_dir", cfg.StaticDir),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
