package jobstore

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/stacklok/content-sync-server/internal/status"
)

type fileStore struct {
	persistence status.JobPersistence

	mu   sync.RWMutex
	jobs map[string]*status.SyncJob
}

// NewFileStore creates a job store that caches jobs in memory and writes
// every change through to the given persistence.
func NewFileStore(persistence status.JobPersistence) Store {
	return &fileStore{
		persistence: persistence,
		jobs:        make(map[string]*status.SyncJob),
	}
}

func (f *fileStore) Initialize(ctx context.Context) error {
	jobs, err := f.persistence.LoadAllJobs(ctx)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = jobs

	slog.Info("Loaded sync jobs", "count", len(jobs))
	return nil
}

func (f *fileStore) Get(_ context.Context, itemID string) (*status.SyncJob, error) {
	if err := status.ValidateItemID(itemID); err != nil {
		return nil, err
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	job, exists := f.jobs[itemID]
	if !exists {
		return &status.SyncJob{ItemID: itemID}, nil
	}
	return job.Copy(), nil
}

func (f *fileStore) List(_ context.Context) (map[string]*status.SyncJob, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make(map[string]*status.SyncJob, len(f.jobs))
	for id, job := range f.jobs {
		result[id] = job.Copy()
	}
	return result, nil
}

func (f *fileStore) ListByStatus(_ context.Context, statuses ...status.JobStatus) ([]*status.SyncJob, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	var result []*status.SyncJob
	for _, job := range f.jobs {
		if slices.Contains(statuses, job.Status) {
			result = append(result, job.Copy())
		}
	}
	slices.SortFunc(result, compareEnqueued)
	return result, nil
}

func (f *fileStore) Update(ctx context.Context, job *status.SyncJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.save(ctx, job.Copy())
}

func (f *fileStore) UpdateAtomically(
	ctx context.Context,
	itemID string,
	testAndUpdateFn func(job *status.SyncJob) bool,
) (bool, error) {
	if err := status.ValidateItemID(itemID); err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	job, exists := f.jobs[itemID]
	if !exists {
		job = &status.SyncJob{ItemID: itemID}
	}
	// work on a copy so a failed save leaves the cache untouched
	job = job.Copy()

	shouldUpdate := testAndUpdateFn(job)
	if !shouldUpdate {
		return false, nil
	}
	job.ItemID = itemID
	if err := f.save(ctx, job); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fileStore) Delete(ctx context.Context, itemID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.persistence.DeleteJob(ctx, itemID); err != nil {
		return err
	}
	delete(f.jobs, itemID)
	return nil
}

// save must be called with mu held
func (f *fileStore) save(ctx context.Context, job *status.SyncJob) error {
	job.UpdatedAt = time.Now().UTC()
	if err := f.persistence.SaveJob(ctx, job); err != nil {
		return err
	}
	f.jobs[job.ItemID] = job
	return nil
}

// compareEnqueued orders jobs by enqueue time, oldest first, then by item id
func compareEnqueued(a, b *status.SyncJob) int {
	switch {
	case a.EnqueuedAt == nil && b.EnqueuedAt != nil:
		return 1
	case a.EnqueuedAt != nil && b.EnqueuedAt == nil:
		return -1
	case a.EnqueuedAt != nil && b.EnqueuedAt != nil && !a.EnqueuedAt.Equal(*b.EnqueuedAt):
		return a.EnqueuedAt.Compare(*b.EnqueuedAt)
	}
	switch {
	case a.ItemID < b.ItemID:
		return -1
	case a.ItemID > b.ItemID:
		return 1
	}
	return 0
}
