// Package backend opens the configured store.
package backend

import (
	"context"
	"fmt"

	"moneyflow/internal/config"
	"moneyflow/internal/store"
)

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// BackendResult contains the store and what is needed to run it.
type BackendResult struct {
	Store   store.Store
	Cleanup CleanupFunc
	// Ping reports whether the store can serve requests.
	Ping func(ctx context.Context) error
	// Seeded is true when demo transactions were inserted on open.
	Seeded bool
}

// Close runs Cleanup when there is one.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// DataDirectory holds the optional memory seed file.
	DataDirectory string

	// SeedDemoData inserts the demo transactions into a fresh store.
	SeedDemoData bool
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:          BackendType(appConfig.DataBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		DataDirectory: appConfig.DataDir,
		SeedDemoData:  appConfig.SeedDemoData,
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if c.Type == SQLiteBackend && c.SQLiteDBPath == "" {
		return fmt.Errorf("SQLite database path is required for sqlite backend")
	}
	return nil
}
