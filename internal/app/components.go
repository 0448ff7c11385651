package app

import (
	"github.com/redis/go-redis/v9"

	"github.com/stacklok/content-sync-server/internal/app/storage"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
	"github.com/stacklok/content-sync-server/internal/sync/coordinator"
	"github.com/stacklok/content-sync-server/internal/sync/scheduler"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// SyncCoordinator runs the task runners, recovery and the periodic sweep
	SyncCoordinator coordinator.Coordinator

	// Scheduler owns the job state machine
	Scheduler scheduler.Scheduler

	// Jobs and Contents share the storage backend of StorageFactory
	Jobs     jobstore.Store
	Contents content.Store

	StorageFactory storage.Factory

	// Redis is set when the redis runner or lock is configured
	Redis redis.UniversalClient
}
