package backend

import (
	"context"
	"fmt"
	"log/slog"

	"moneyflow/internal/storage"
	"moneyflow/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	seeded := false
	if config.SeedDemoData {
		if seeded, err = repo.SeedDemo(ctx); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
	}

	f.logger.Info("Initialized SQLite backend",
		"db_path", config.SQLiteDBPath,
		"schema_version", repo.SchemaVersion(),
		"demo_seeded", seeded)

	return &BackendResult{
		Store:   repo,
		Cleanup: repo.Close,
		Ping:    repo.Ping,
		Seeded:  seeded,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) *BackendResult {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	result := &BackendResult{Ping: func(context.Context) error { return nil }}
	if config.SeedDemoData {
		result.Store = memory.NewFromFiles(dataDir)
		result.Seeded = true
	} else {
		result.Store = memory.New()
	}

	f.logger.Info("Initialized memory backend",
		"data_directory", dataDir,
		"demo_seeded", result.Seeded)
	return result
}
