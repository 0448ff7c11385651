// Package jobstore persists the sync job record of every content item.
package jobstore

import (
	"context"

	"github.com/stacklok/content-sync-server/internal/status"
)

// Store provides access to the per-item sync job records.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks github.com/stacklok/content-sync-server/internal/jobstore Store
type Store interface {
	// Initialize prepares the store. It is called once at application startup.
	Initialize(ctx context.Context) error
	// Get returns the job of an item. Items never scheduled yield an empty job
	// (status.JobStatusNone) rather than an error.
	Get(ctx context.Context, itemID string) (*status.SyncJob, error)
	// List returns every job keyed by item id.
	List(ctx context.Context) (map[string]*status.SyncJob, error)
	// ListByStatus returns the jobs in any of the given statuses.
	ListByStatus(ctx context.Context, statuses ...status.JobStatus) ([]*status.SyncJob, error)
	// Update overwrites the job of job.ItemID.
	Update(ctx context.Context, job *status.SyncJob) error
	// UpdateAtomically fetches the job of an item (an empty one if absent),
	// applies testAndUpdateFn and stores the result if the function reports a
	// change, all as a single atomic action. The boolean result of
	// testAndUpdateFn is returned.
	UpdateAtomically(
		ctx context.Context,
		itemID string,
		testAndUpdateFn func(job *status.SyncJob) bool,
	) (bool, error)
	// Delete removes the job of an item. Used when the item is purged.
	Delete(ctx context.Context, itemID string) error
}
