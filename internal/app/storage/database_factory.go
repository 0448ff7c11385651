package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
)

// DatabaseFactory creates database-backed storage components.
// All components created by this factory share one PostgreSQL connection pool.
type DatabaseFactory struct {
	pool *pgxpool.Pool
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	slog.Info("Creating database-backed storage factory")

	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}
	if err := applyPoolSettings(poolConfig, cfg.Database); err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	slog.Info("Database connection pool created successfully")
	return NewDatabaseFactoryFromPool(pool), nil
}

// NewDatabaseFactoryFromPool creates a factory around an existing pool. The
// factory takes ownership of the pool.
func NewDatabaseFactoryFromPool(pool *pgxpool.Pool) *DatabaseFactory {
	return &DatabaseFactory{pool: pool}
}

// CreateJobStore creates a database-backed job store.
func (d *DatabaseFactory) CreateJobStore(_ context.Context) (jobstore.Store, error) {
	slog.Debug("Creating database-backed job store")
	return jobstore.NewDBStore(d.pool), nil
}

// CreateContentStore creates a database-backed content store.
func (d *DatabaseFactory) CreateContentStore(_ context.Context) (content.Store, error) {
	slog.Debug("Creating database-backed content store")
	return content.NewDBStore(d.pool), nil
}

// Ping checks the database connection.
func (d *DatabaseFactory) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Cleanup closes the database connection pool.
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}

// applyPoolSettings configures the pool from the database settings
func applyPoolSettings(poolConfig *pgxpool.Config, db *config.DatabaseConfig) error {
	if db.MaxOpenConns > 0 {
		poolConfig.MaxConns = db.MaxOpenConns
	}
	if db.MaxIdleConns > 0 {
		poolConfig.MinConns = db.MaxIdleConns
	}
	if db.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(db.ConnMaxLifetime)
		if err != nil {
			return fmt.Errorf("failed to parse connMaxLifetime: %w", err)
		}
		poolConfig.MaxConnLifetime = lifetime
	}
	return nil
}
