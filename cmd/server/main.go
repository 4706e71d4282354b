// Command server runs the translator HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"translatorapp/internal/config"
	"translatorapp/internal/di"
	"translatorapp/internal/handlers"
	"translatorapp/internal/observability"
	"translatorapp/internal/version"

	"go.opentelemetry.io/otel/sdk/trace"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "")
	if err != nil {
		os.Stderr.WriteString("failed to set up observability: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting translator backend", map[string]interface{}{
		"version": version.Version,
		"commit":  version.Commit,
		"port":    cfg.Server.Port,
	})

	container := di.NewServiceContainer(cfg, logger)
	if err := container.Initialize(ctx); err != nil {
		logger.Error(ctx, "Failed to initialize services", err)
		os.Exit(1)
	}
	container.StartBackground(ctx)

	router := handlers.NewRouter(cfg, container.GetDocumentService(), container.GetSessionService(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "HTTP server failed", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown failed", err)
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "Service shutdown failed", err)
	}
	if sdkTP, ok := tp.(*trace.TracerProvider); ok && sdkTP != nil {
		if err := sdkTP.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Tracer provider shutdown failed", err)
		}
	}
	if mp != nil {
		if err := mp.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "Meter provider shutdown failed", err)
		}
	}
}
