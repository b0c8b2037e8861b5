package main

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// initDB abre o pool e espera o banco responder, tentando até ConnectAttempts vezes
func initDB(ctx context.Context, cfg DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse database config")
	}

	config.MaxConns = cfg.MaxConns
	config.MinConns = cfg.MinConns
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}

	attempts := cfg.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		if err := pool.Ping(ctx); err != nil {
			logger.Info("⏳ Waiting for database...", zap.Int("attempt", attempt), zap.Int("maxAttempts", attempts))
			return struct{}{}, err
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(time.Second)),
		backoff.WithMaxTries(uint(attempts)),
	)
	if err != nil {
		pool.Close()
		return nil, errors.Wrapf(err, "failed to connect to database after %d attempts", attempt)
	}

	logger.Info("✅ Connected to database with connection pool",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Name),
	)
	return pool, nil
}

// openRepository escolhe o armazenamento conforme STORAGE_DRIVER
func openRepository(ctx context.Context, cfg *Config, logger *zap.Logger) (Repository, error) {
	if cfg.StorageDriver == StorageDriverMemory {
		logger.Warn("⚠️ Using in-memory storage; data is lost on restart")
		return NewMemoryRepository(), nil
	}

	pool, err := initDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}

	repository := NewPostgresRepository(pool)
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx); err != nil {
			repository.Close()
			return nil, err
		}
		logger.Info("✅ Schema applied")
	}
	return repository, nil
}
