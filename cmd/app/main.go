package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slaughterhouse/cmd"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func main() {
	configs, err := cmd.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, configs, logger)
	if err != nil {
		log.Fatalf("Error building application: %v", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			logger.Error("Failed to release resources", "error", err)
		}
	}()

	jobManager, err := app.CreateJobManager()
	if err != nil {
		log.Fatalf("Error creating jobs: %v", err)
	}
	if err := jobManager.StartAll(); err != nil {
		log.Fatalf("Error starting jobs: %v", err)
	}
	defer jobManager.StopAll()

	if err := startWebServer(ctx, app, configs.HTTPPort, logger); err != nil {
		logger.Error("Web server stopped", "error", err)
	}
}

func startWebServer(ctx context.Context, app *cmd.CompositionRoot, port string, logger *slog.Logger) error {
	server, err := app.CreateHTTPServer(ctx)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	server.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		if err := e.Start(fmt.Sprintf("0.0.0.0:%s", port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
