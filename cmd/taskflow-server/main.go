// Package main provides the taskflow HTTP server: the tracker's JSON API,
// health and Prometheus-format metrics, with a background archival
// sweeper.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskflow/taskflow/internal/adapters/httpapi"
	"github.com/taskflow/taskflow/internal/config"
	"github.com/taskflow/taskflow/pkg/taskflow"
)

func main() {
	if err := run(); err != nil {
		slog.Error("taskflow-server: exiting", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := taskflow.Open(ctx, cfg, taskflow.WithLogger(logger))
	if err != nil {
		return err
	}
	defer rt.Close()

	sweeper := rt.Sweeper()
	sweeper.Start(ctx)
	defer sweeper.Stop()

	logger.Info("taskflow-server: starting", "storage", cfg.StorageDriver, "archive", cfg.ArchiveDriver)
	return httpapi.Serve(ctx, cfg.Addr, httpapi.NewHandler(rt, logger), logger)
}
