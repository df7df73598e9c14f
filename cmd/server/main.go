// Package main provides the entry point for the quiz generation server. It
// loads configuration, sets up observability, wires the generation service and
// serves the HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hirequiz/internal/config"
	"hirequiz/internal/handlers"
	"hirequiz/internal/observability"
	"hirequiz/internal/services"
	contextutils "hirequiz/internal/utils"
)

// Application encapsulates the running server and its service dependencies.
type Application struct {
	server  *http.Server
	service *services.AIQuizService
	logger  *observability.Logger
}

// NewApplication wires the generation pipeline and the HTTP surface.
func NewApplication(cfg *config.Config, logger *observability.Logger) (*Application, error) {
	client := services.NewHTTPCompletionClient(cfg, logger)

	service, err := services.NewAIQuizService(cfg, client, logger)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to create quiz generation service")
	}

	router := handlers.NewRouter(cfg, service, logger)

	return &Application{
		server: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		service: service,
		logger:  logger,
	}, nil
}

// Run serves until the context is cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown drains in-flight generations, then stops the HTTP server.
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.service.Shutdown(ctx); err != nil {
		a.logger.Warn(ctx, "Generation service shutdown incomplete", map[string]interface{}{"error": err.Error()})
	}
	return a.server.Shutdown(ctx)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "hirequiz")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if shutdownable, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
			if err := shutdownable.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	logger.Info(ctx, "Starting quiz generation service", map[string]interface{}{
		"port":          cfg.Server.Port,
		"logLevel":      cfg.Server.LogLevel,
		"default_model": cfg.Generation.DefaultModel,
		"locale":        cfg.Generation.Locale,
	})

	app, err := NewApplication(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(ctx); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully", nil)
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err, nil)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully", nil)
}
