package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codebuildervaibhav/call-analyzer/internal/cleanup"
	"github.com/codebuildervaibhav/call-analyzer/internal/handlers"
	"github.com/codebuildervaibhav/call-analyzer/internal/queue"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	c, err := build(ctx, cfg, reg, os.Stdin)
	if err != nil {
		return err
	}
	defer c.Close()
	log := c.log

	if err := cleanup.EnsureTempDirExists(cfg.Storage.TempDir); err != nil {
		return err
	}
	workerPool := queue.NewWorkerPool(cfg.Workers.Count, cfg.Workers.QueueSize, c.analyzer, log)
	workerPool.Start()
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Workers.DrainTimeout())
		defer cancel()
		if err := workerPool.Shutdown(drainCtx); err != nil {
			log.Warn("worker pool did not drain", zap.Error(err))
		}
	}()

	cleanupScheduler := cleanup.NewScheduler(
		cfg.Storage.TempDir,
		cfg.Cleanup.IntervalMinutes,
		cfg.Cleanup.MaxAgeHours,
		log,
	)
	cleanupScheduler.OnSweep(func(cutoff time.Time) { workerPool.EvictFinished(cutoff) })
	cleanupScheduler.Start()
	defer cleanupScheduler.Stop()

	deps := handlers.Deps{
		Analyzer:       c.analyzer,
		Jobs:           workerPool,
		Logs:           c.logs,
		Gatherer:       reg,
		Logger:         log,
		MaxFileSizeMB:  cfg.Limits.MaxFileSizeMB,
		AllowedFormats: cfg.Limits.AllowedFormats,
		RequestLogging: true,
	}
	if c.db != nil {
		deps.History = c.db
	}
	app := handlers.NewApp(deps)

	go func() {
		<-ctx.Done()
		log.Info("shutting down gracefully")
		if err := app.Shutdown(); err != nil {
			log.Warn("shutdown", zap.Error(err))
		}
	}()

	log.Info("server starting", zap.String("addr", cfg.Addr()))
	return app.Listen(cfg.Addr())
}
