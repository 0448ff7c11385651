// Package scheduler queues, locks and retries the sync job of every content item.
//
// A job moves pending → processing → success | error. Every failed attempt
// counts; once MaxRetries consecutive attempts failed the job stays in error. Cancellation is possible from any
// state, and a remote deletion moves the job through deleting to deleted or
// delete_error. At most one job per item is pending or processing; a per-item
// lock guards the processing step across workers.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
	"github.com/stacklok/content-sync-server/internal/lock"
	"github.com/stacklok/content-sync-server/internal/status"
	pkgsync "github.com/stacklok/content-sync-server/internal/sync"
	"github.com/stacklok/content-sync-server/internal/taskrunner"
	"github.com/stacklok/content-sync-server/internal/telemetry"
)

const (
	// MaxRetries is how many consecutive failed attempts a job gets
	MaxRetries = 3
	// DefaultPriority is the priority of single-item syncs. Lower runs sooner.
	DefaultPriority = 10
	// DeletionPriority runs deletions ahead of syncs
	DeletionPriority = 5
	// BulkPriorityBase and BulkPrioritySpread spread bulk syncs over 10..49
	BulkPriorityBase   = 10
	BulkPrioritySpread = 40
	// LockTTL bounds how long a crashed worker blocks an item
	LockTTL = 60 * time.Second
	// StaleSyncTimeout is the age after which a processing job is considered dead
	StaleSyncTimeout = 5 * time.Minute

	// TaskSync and TaskDelete name the tasks submitted to the runners
	TaskSync   = "sync"
	TaskDelete = "delete"
)

// BulkResult summarizes a bulk enqueue
type BulkResult struct {
	Total    int `json:"total"`
	Enqueued int `json:"enqueued"`
	Skipped  int `json:"skipped"`
}

// RetryResult summarizes a retry of failed jobs
type RetryResult struct {
	Total   int `json:"total"`
	Retried int `json:"retried"`
	Skipped int `json:"skipped"`
}

// Scheduler manages the sync jobs of content items
//
//go:generate mockgen -destination=mocks/mock_scheduler.go -package=mocks github.com/stacklok/content-sync-server/internal/sync/scheduler Scheduler
type Scheduler interface {
	// Enqueue schedules a sync of the item. It returns false when the job was
	// not scheduled: no runner, unknown item, already queued or out of retries.
	Enqueue(ctx context.Context, itemID string, priority int) (bool, error)
	// Cancel drops the outstanding sync of an item and marks the job cancelled
	Cancel(ctx context.Context, itemID string) error
	// EnqueueDeletion cancels outstanding work and schedules the removal of the published copy
	EnqueueDeletion(ctx context.Context, itemID string) (bool, error)
	// Purge cancels outstanding work and forgets the item and its job
	Purge(ctx context.Context, itemID string) error
	// BulkEnqueue schedules every matching published item
	BulkEnqueue(ctx context.Context, filter content.Filter) (*BulkResult, error)
	// GetStatus returns the job of an item
	GetStatus(ctx context.Context, itemID string) (*status.SyncJob, error)
	// ListStatuses returns the status of every known job
	ListStatuses(ctx context.Context) (map[string]status.JobStatus, error)
	// RetryFailed re-enqueues every failed job that has retries left
	RetryFailed(ctx context.Context) (*RetryResult, error)
	// AutoRetry re-enqueues failed jobs that may succeed without operator action
	AutoRetry(ctx context.Context) (*RetryResult, error)

	// ProcessSync is the handler of sync tasks
	ProcessSync(ctx context.Context, itemID string)
	// ProcessDeletion is the handler of delete tasks
	ProcessDeletion(ctx context.Context, itemID string)

	// SweepStale fails processing jobs whose worker stopped reporting
	SweepStale(ctx context.Context) (int, error)
	// Recover resolves jobs left behind by a previous process
	Recover(ctx context.Context) (int, error)
	// Reschedule resubmits pending and deleting jobs that no runner holds a task for
	Reschedule(ctx context.Context) (int, error)
}

type defaultScheduler struct {
	jobs     jobstore.Store
	contents content.Store
	locker   lock.Locker
	manager  pkgsync.Manager

	// preferred honours priority; fallback is used when it is absent
	preferred taskrunner.Runner
	fallback  taskrunner.Runner

	metrics *telemetry.SyncMetrics
	now     func() time.Time
}

// Option configures the scheduler
type Option func(*defaultScheduler)

// WithRunner sets the preferred task runner
func WithRunner(r taskrunner.Runner) Option {
	return func(s *defaultScheduler) {
		s.preferred = r
	}
}

// WithFallbackRunner sets the runner used when no preferred runner is configured
func WithFallbackRunner(r taskrunner.Runner) Option {
	return func(s *defaultScheduler) {
		s.fallback = r
	}
}

// WithMetrics sets the metrics the job outcomes are recorded to
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(s *defaultScheduler) {
		s.metrics = m
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *defaultScheduler) {
		s.now = now
	}
}

// New creates a scheduler and registers its handlers on the configured runners
func New(
	jobs jobstore.Store,
	contents content.Store,
	locker lock.Locker,
	manager pkgsync.Manager,
	opts ...Option,
) Scheduler {
	s := &defaultScheduler{
		jobs:     jobs,
		contents: contents,
		locker:   locker,
		manager:  manager,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, r := range s.runners() {
		r.Register(TaskSync, s.ProcessSync)
		r.Register(TaskDelete, s.ProcessDeletion)
	}
	return s
}

func (s *defaultScheduler) runners() []taskrunner.Runner {
	var rs []taskrunner.Runner
	if s.preferred != nil {
		rs = append(rs, s.preferred)
	}
	if s.fallback != nil {
		rs = append(rs, s.fallback)
	}
	return rs
}

// runner returns the runner new tasks go to, nil when none is configured
func (s *defaultScheduler) runner() taskrunner.Runner {
	if s.preferred != nil {
		return s.preferred
	}
	return s.fallback
}

func (s *defaultScheduler) Enqueue(ctx context.Context, itemID string, priority int) (bool, error) {
	runner := s.runner()
	if runner == nil {
		slog.Warn("No task runner available, sync not scheduled", "item_id", itemID)
		return false, nil
	}

	exists, err := s.contents.Exists(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to look up item %s: %w", itemID, err)
	}
	if !exists {
		slog.Info("Item no longer exists, sync not scheduled", "item_id", itemID)
		return false, nil
	}

	s.expireIfStale(ctx, itemID)

	var (
		previous *status.SyncJob
		reason   string
	)
	accepted, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		switch {
		case job.Status.InFlight():
			reason = "already " + string(job.Status)
			return false
		case job.RetryCount >= MaxRetries:
			reason = "retries exhausted"
			return false
		}

		previous = job.Copy()
		// failures are counted when they happen; only a failed job keeps its count
		if job.Status != status.JobStatusError {
			job.RetryCount = 0
		}
		now := s.now().UTC()
		job.Status = status.JobStatusPending
		job.EnqueuedAt = &now
		job.SyncStartedAt = nil
		job.Message = ""
		return true
	})
	if err != nil {
		return false, fmt.Errorf("failed to update job of item %s: %w", itemID, err)
	}
	if !accepted {
		slog.Debug("Sync not scheduled", "item_id", itemID, "reason", reason)
		return false, nil
	}

	if err := runner.Submit(ctx, taskrunner.Task{Name: TaskSync, ItemID: itemID}, priority); err != nil {
		s.restore(ctx, itemID, status.JobStatusPending, previous)
		return false, fmt.Errorf("failed to submit sync of item %s: %w", itemID, err)
	}

	slog.Info("Sync scheduled", "item_id", itemID, "priority", priority)
	return true, nil
}

// restore puts back the job state replaced by an enqueue whose submit failed
func (s *defaultScheduler) restore(ctx context.Context, itemID string, set status.JobStatus, previous *status.SyncJob) {
	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		if job.Status != set {
			return false
		}
		*job = *previous.Copy()
		return true
	}); err != nil {
		slog.Error("Failed to restore job after submit failure", "item_id", itemID, "error", err)
	}
}

func (s *defaultScheduler) Cancel(ctx context.Context, itemID string) error {
	task := taskrunner.Task{Name: TaskSync, ItemID: itemID}
	for _, r := range s.runners() {
		if _, err := r.UnscheduleAll(ctx, task); err != nil {
			slog.Warn("Failed to unschedule sync", "item_id", itemID, "error", err)
		}
	}
	if err := s.locker.ForceRelease(ctx, lock.ItemKey(itemID)); err != nil {
		slog.Warn("Failed to release item lock", "item_id", itemID, "error", err)
	}

	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		job.Status = status.JobStatusCancelled
		job.RetryCount = 0
		job.SyncStartedAt = nil
		return true
	}); err != nil {
		return fmt.Errorf("failed to cancel job of item %s: %w", itemID, err)
	}

	slog.Info("Sync cancelled", "item_id", itemID)
	return nil
}

func (s *defaultScheduler) EnqueueDeletion(ctx context.Context, itemID string) (bool, error) {
	runner := s.runner()
	if runner == nil {
		slog.Warn("No task runner available, deletion not scheduled", "item_id", itemID)
		return false, nil
	}

	prior, err := s.jobs.Get(ctx, itemID)
	if err != nil {
		return false, fmt.Errorf("failed to read job of item %s: %w", itemID, err)
	}
	failures := 0
	if prior.Status == status.JobStatusDeleteError {
		failures = prior.RetryCount
	}

	if err := s.Cancel(ctx, itemID); err != nil {
		return false, err
	}

	var previous *status.SyncJob
	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		previous = job.Copy()
		now := s.now().UTC()
		job.Status = status.JobStatusDeleting
		job.RetryCount = failures
		job.EnqueuedAt = &now
		job.ClearFailure()
		job.Message = ""
		return true
	}); err != nil {
		return false, fmt.Errorf("failed to update job of item %s: %w", itemID, err)
	}

	if err := runner.Submit(ctx, taskrunner.Task{Name: TaskDelete, ItemID: itemID}, DeletionPriority); err != nil {
		s.restore(ctx, itemID, status.JobStatusDeleting, previous)
		return false, fmt.Errorf("failed to submit deletion of item %s: %w", itemID, err)
	}

	slog.Info("Deletion scheduled", "item_id", itemID)
	return true, nil
}

func (s *defaultScheduler) Purge(ctx context.Context, itemID string) error {
	if err := s.Cancel(ctx, itemID); err != nil {
		return err
	}
	for _, r := range s.runners() {
		if _, err := r.UnscheduleAll(ctx, taskrunner.Task{Name: TaskDelete, ItemID: itemID}); err != nil {
			slog.Warn("Failed to unschedule deletion", "item_id", itemID, "error", err)
		}
	}
	if err := s.jobs.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete job of item %s: %w", itemID, err)
	}
	if err := s.contents.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("failed to delete item %s: %w", itemID, err)
	}
	slog.Info("Item purged", "item_id", itemID)
	return nil
}

func (s *defaultScheduler) BulkEnqueue(ctx context.Context, filter content.Filter) (*BulkResult, error) {
	if filter.Status == "" {
		filter.Status = content.StatusPublished
	}
	items, err := s.contents.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	result := &BulkResult{Total: len(items)}
	for i, item := range items {
		if job, ok := jobs[item.ID]; ok && job.Status.InFlight() {
			result.Skipped++
			continue
		}

		enqueued, err := s.Enqueue(ctx, item.ID, BulkPriorityBase+i%BulkPrioritySpread)
		if err != nil {
			slog.Warn("Bulk enqueue failed for item", "item_id", item.ID, "error", err)
		}
		if enqueued {
			result.Enqueued++
		} else {
			result.Skipped++
		}
	}

	slog.Info("Bulk sync scheduled", "total", result.Total, "enqueued", result.Enqueued, "skipped", result.Skipped)
	return result, nil
}

func (s *defaultScheduler) GetStatus(ctx context.Context, itemID string) (*status.SyncJob, error) {
	return s.jobs.Get(ctx, itemID)
}

func (s *defaultScheduler) ListStatuses(ctx context.Context) (map[string]status.JobStatus, error) {
	jobs, err := s.jobs.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]status.JobStatus, len(jobs))
	for id, job := range jobs {
		statuses[id] = job.Status
	}
	return statuses, nil
}

func (s *defaultScheduler) RetryFailed(ctx context.Context) (*RetryResult, error) {
	return s.retryFailed(ctx, func(*status.SyncJob) bool { return true })
}

func (s *defaultScheduler) AutoRetry(ctx context.Context) (*RetryResult, error) {
	now := s.now()
	return s.retryFailed(ctx, func(job *status.SyncJob) bool {
		if pkgsync.Kind(job.LastErrorKind).Fatal() {
			return false
		}
		return job.RetryNotBefore == nil || !now.Before(*job.RetryNotBefore)
	})
}

func (s *defaultScheduler) retryFailed(ctx context.Context, eligible func(*status.SyncJob) bool) (*RetryResult, error) {
	failed, err := s.jobs.ListByStatus(ctx, status.JobStatusError)
	if err != nil {
		return nil, fmt.Errorf("failed to list failed jobs: %w", err)
	}

	result := &RetryResult{Total: len(failed)}
	for _, job := range failed {
		if job.RetryCount >= MaxRetries || !eligible(job) {
			result.Skipped++
			continue
		}
		enqueued, err := s.Enqueue(ctx, job.ItemID, DefaultPriority)
		if err != nil {
			slog.Warn("Retry failed for item", "item_id", job.ItemID, "error", err)
		}
		if enqueued {
			result.Retried++
		} else {
			result.Skipped++
		}
	}
	return result, nil
}
