package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"moneyflow/internal/cli"
	apphttp "moneyflow/internal/http"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.SlogLevel(), applog.ComponentApp)

	res := cli.OpenBackend(context.Background(), logger, cfg)
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", "error", err)
		}
	}()

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	changes := services.NewChanges()
	backup := services.NewBackupService(res.Store, cli.Publisher(amqpClient), cli.BackupConfig(cfg), changes)

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: services.NewTransactionService(res.Store, changes),
		Goals:        services.NewGoalService(res.Store),
		Notes:        services.NewNoteService(res.Store),
		Backup:       backup,
		Changes:      changes,
		Ping:         res.Ping,
		Currency:     cfg.Currency,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}

	// The worker writes snapshots when a broker is configured; otherwise the
	// server does it on its own schedule.
	var scheduler *services.BackupScheduler
	if amqpClient == nil && cfg.BackupInterval > 0 {
		scheduler = services.NewBackupScheduler(backup, cfg.BackupInterval)
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if scheduler != nil && scheduler.IsRunning() {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("Backup scheduler shutdown error", "error", err)
			}
		}
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	if scheduler != nil {
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start backup scheduler", "error", err)
		}
	}

	logger.Info("Starting moneyflow server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"currency", cfg.Currency,
		"demo_seeded", res.Seeded,
		"broker", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
