// Package app wires the development backend: the REST API, the background
// processor and the optional metrics endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foxzi/disparo/internal/config"
	"github.com/foxzi/disparo/internal/devserver"
	"github.com/foxzi/disparo/internal/metrics"
)

// App is the development backend application
type App struct {
	config        *config.Config
	store         *devserver.Store
	apiServer     *devserver.Server
	processor     *devserver.Processor
	metricsServer *metrics.Server
	logger        *slog.Logger
}

// New creates the application and opens its storage
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := devserver.NewStore(cfg.DevServer.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	m := metrics.New()

	apiServer := devserver.NewServer(store, devserver.Config{
		ListenAddr: cfg.DevServer.ListenAddr,
		Token:      cfg.DevServer.Token,
		Quota:      cfg.Quota.DailyLimit,
	}, m, logger)

	processor := devserver.NewProcessor(store, devserver.ProcessorConfig{
		Interval:  cfg.DevServer.ProcessInterval,
		SendBatch: cfg.DevServer.SendBatch,
		Quota:     cfg.Quota.DailyLimit,
	}, m, logger)

	a := &App{
		config:    cfg,
		store:     store,
		apiServer: apiServer,
		processor: processor,
		logger:    logger,
	}
	if cfg.Metrics.Enabled {
		a.metricsServer = metrics.NewServer(m, cfg.Metrics.ListenAddr, cfg.Metrics.Path, logger)
	}
	return a, nil
}

// Handler returns the API handler, for tests
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run starts every component and blocks until ctx is done, a termination
// signal arrives or a server fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.processor.Start(ctx)

	errCh := make(chan error, 2)

	go func() {
		if err := a.apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("api server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		a.logger.Error("server error", "error", runErr)
		cancel()
	}

	if err := a.Shutdown(context.Background()); err != nil {
		return err
	}
	return runErr
}

// Shutdown stops the processor, the servers and the storage, in that order
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	a.processor.Stop()

	if err := a.apiServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown error", "error", err)
	}

	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if err := a.store.Close(); err != nil {
		return fmt.Errorf("storage close: %w", err)
	}

	a.logger.Info("shutdown complete")
	return nil
}

// NewLogger creates a logger writing to w based on configuration
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(cfg.Level),
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a configured level name to a slog level. Unknown names
// mean info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// OpenLogger creates the process logger. Logs go to logging.file when set,
// otherwise to stderr; when quiet is set and no file is configured they are
// discarded. The returned close function releases the file.
func OpenLogger(cfg config.LoggingConfig, quiet bool) (*slog.Logger, func() error, error) {
	if cfg.File == "" {
		if quiet {
			return slog.New(slog.DiscardHandler), func() error { return nil }, nil
		}
		return NewLogger(cfg, os.Stderr), func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLogger(cfg, f), f.Close, nil
}
