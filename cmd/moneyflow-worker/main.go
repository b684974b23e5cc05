package main

import (
	"context"
	"os"
	"time"

	"moneyflow/internal/cli"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
	"moneyflow/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentWorker)

	logger.Info("Starting moneyflow-worker")

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	res := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient == nil {
		os.Exit(1)
	}
	defer amqpClient.Close()

	// Snapshots are written here, never republished.
	backup := services.NewBackupService(res.Store, nil, cli.BackupConfig(cfg), services.NewChanges())
	backupWorker := worker.NewBackupWorker(amqpClient, backup)

	var scheduler *services.BackupScheduler
	if cfg.BackupInterval > 0 {
		scheduler = services.NewBackupScheduler(backup, cfg.BackupInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if scheduler != nil && scheduler.IsRunning() {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("Backup scheduler shutdown error", "error", err)
			}
		}
		handled, failed := backupWorker.Counts()
		logger.Info("Worker shutting down", "handled", handled, "failed", failed)
	})

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start backup scheduler", "error", err)
		}
	}

	if err := backupWorker.Run(ctx); err != nil {
		logger.Error("Backup request consumption failed", "error", err)
		os.Exit(1)
	}

	<-done
}
