package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"radar/internal/app"
	"radar/internal/platform/config"
	"radar/internal/platform/httpserver"
	"radar/internal/platform/logger"
	"radar/internal/platform/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.SeedAdmin(ctx); err != nil {
		return err
	}

	if cfg.Lookup.RetentionMode == config.RetentionScheduled {
		go runRetentionSchedule(ctx, a.Lookup, cfg.Lookup.RetentionInterval, log)
	}

	srv := httpserver.New(cfg.Server.Addr, newRouter(a, metrics.NewHTTP(prometheus.DefaultRegisterer)), cfg.Server.WriteTimeout)
	errCh := make(chan error, 1)
	go func() {
		log.Info("radar listening",
			"addr", cfg.Server.Addr,
			"env", cfg.Environment,
			"retention_mode", cfg.Lookup.RetentionMode,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

type retentionSweeper interface {
	SweepRetention(ctx context.Context) (int64, error)
}

// runRetentionSchedule sweeps once at startup and then on every tick until ctx
// is cancelled.
func runRetentionSchedule(ctx context.Context, svc retentionSweeper, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		deleted, err := svc.SweepRetention(ctx)
		if err != nil && ctx.Err() == nil {
			log.ErrorContext(ctx, "scheduled retention sweep failed", "error", err)
		} else if deleted > 0 {
			log.InfoContext(ctx, "scheduled retention sweep", "deleted", deleted)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
