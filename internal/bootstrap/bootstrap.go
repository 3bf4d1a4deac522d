// Package bootstrap holds the startup steps shared by the API server and habitctl.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"habitsAPI/internal/config"
	"habitsAPI/internal/logger"
	"habitsAPI/internal/storage"
	"habitsAPI/internal/storage/memory"
	"habitsAPI/internal/storage/migrations"
	"habitsAPI/internal/storage/postgres"
)

const connectTimeout = 10 * time.Second

// Setup loads the configuration and initializes the global logger from it.
func Setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, File: cfg.LogFile, JSON: cfg.LogJSON}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// Connect opens the Postgres pool named by the configuration.
func Connect(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.StorageDriver != config.DriverPostgres {
		return nil, fmt.Errorf("storage driver %q has no database", cfg.StorageDriver)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	return postgres.Connect(ctx, postgres.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

// OpenStore returns the configured storage backend, applying pending migrations
// first when MigrateOnStart is set.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	}

	pool, err := Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := migrations.MigrateUp(pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("database migrations applied")
	} else {
		status, err := migrations.CheckStatus(pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if !status.UpToDate() {
			logger.Warn("database schema is behind", "version", status.Version, "latest", status.Latest, "dirty", status.Dirty)
		}
	}

	return postgres.New(pool), nil
}
