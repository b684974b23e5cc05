// Package cli holds the start-up steps shared by cmd/moneyflow,
// cmd/moneyflow-worker and cmd/mfctl.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneyflow/internal/amqp"
	"moneyflow/internal/backend"
	"moneyflow/internal/config"
	applog "moneyflow/internal/log"
	"moneyflow/internal/services"
)

// SetupLogger builds the component logger at the configured level and
// makes it the slog default.
func SetupLogger(level slog.Level, component string) *applog.Logger {
	logger := applog.New(applog.Config{Level: level, Component: component})
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development; a missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig() *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured store or exits.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.BackendResult {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to open backend", "error", err, "backend", bcfg.Type)
		os.Exit(1)
	}
	return res
}

// ConnectAMQP dials the broker when one is configured. A broker that is
// down is logged and treated as absent.
func ConnectAMQP(logger *applog.Logger, cfg *config.Config) *amqp.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Warn("Failed to connect to AMQP broker, continuing without it", "error", err)
		return nil
	}
	logger.Info("Connected to AMQP broker", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// Publisher converts a possibly nil client into a BackupPublisher, keeping
// the interface nil when there is no client.
func Publisher(client *amqp.Client) services.BackupPublisher {
	if client == nil {
		return nil
	}
	return client
}

// BackupConfig extracts the snapshot settings.
func BackupConfig(cfg *config.Config) services.BackupConfig {
	return services.BackupConfig{Dir: cfg.BackupDir, Keep: cfg.BackupKeep}
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// cleanup runs after cancellation, bounded by timeout, and done closes
// when it has returned.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if shutdownCtx.Err() != nil {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
