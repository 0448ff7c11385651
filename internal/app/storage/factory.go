// Package storage builds the job store and the content store on one shared
// backend, selected by storage.type.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory hands out the stores of one backend and owns its resources
type Factory interface {
	// CreateJobStore returns the store of sync job records
	CreateJobStore(ctx context.Context) (jobstore.Store, error)

	// CreateContentStore returns the store of content items
	CreateContentStore(ctx context.Context) (content.Store, error)

	// Ping backs the readiness check
	Ping(ctx context.Context) error

	// Cleanup releases the backend, e.g. the connection pool. Stores created
	// by the factory must not be used afterwards.
	Cleanup()
}

var errNilConfig = errors.New("config cannot be nil")

var backends = map[config.StorageType]func(context.Context, *config.Config) (Factory, error){
	config.StorageTypeFile: func(_ context.Context, cfg *config.Config) (Factory, error) {
		return opened[*FileFactory](NewFileFactory(cfg))
	},
	config.StorageTypeDatabase: func(ctx context.Context, cfg *config.Config) (Factory, error) {
		return opened[*DatabaseFactory](NewDatabaseFactory(ctx, cfg))
	},
}

// NewStorageFactory opens the backend named by the configuration
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, errNilConfig
	}
	open, ok := backends[cfg.GetStorageType()]
	if !ok {
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
	return open(ctx, cfg)
}

// opened keeps a failed constructor from yielding a non-nil Factory
func opened[F Factory](f F, err error) (Factory, error) {
	if err != nil {
		return nil, err
	}
	return f, nil
}
