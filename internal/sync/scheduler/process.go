package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/stacklok/content-sync-server/internal/lock"
	"github.com/stacklok/content-sync-server/internal/status"
	pkgsync "github.com/stacklok/content-sync-server/internal/sync"
	"github.com/stacklok/content-sync-server/internal/taskrunner"
)

const (
	operationSync   = "sync"
	operationDelete = "delete"
)

func (s *defaultScheduler) ProcessSync(ctx context.Context, itemID string) {
	s.expireIfStale(ctx, itemID)

	exists, err := s.contents.Exists(ctx, itemID)
	if err != nil {
		slog.Error("Failed to look up item", "item_id", itemID, "error", err)
		return
	}
	if !exists {
		s.failMissing(ctx, itemID)
		return
	}

	// a job left pending here is picked up again by Reschedule
	token, acquired, err := s.locker.Acquire(ctx, lock.ItemKey(itemID), LockTTL)
	if err != nil || !acquired {
		slog.Info("Item is locked by another worker, skipping sync", "item_id", itemID, "error", err)
		return
	}
	defer s.release(ctx, itemID, token)

	var (
		reason    string
		exhausted bool
	)
	changed, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		switch {
		case job.Status != status.JobStatusPending:
			reason = "job is " + string(job.Status)
			return false
		case job.RetryCount >= MaxRetries:
			reason = "retries exhausted"
			exhausted = true
			job.Status = status.JobStatusError
			job.SyncStartedAt = nil
			job.LastError = reason
			job.LastErrorKind = string(pkgsync.KindValidation)
			job.RetryNotBefore = nil
			return true
		}
		now := s.now().UTC()
		job.Status = status.JobStatusProcessing
		job.SyncStartedAt = &now
		return true
	})
	if err != nil {
		slog.Error("Failed to mark job processing", "item_id", itemID, "error", err)
		return
	}
	if !changed || exhausted {
		slog.Info("Sync not started", "item_id", itemID, "reason", reason)
		if exhausted {
			s.metrics.RecordJobOutcome(ctx, operationSync, string(status.JobStatusError), string(pkgsync.KindValidation))
		}
		return
	}

	result, syncErr := s.runSync(ctx, itemID)
	s.finishSync(ctx, itemID, result, syncErr)
}

// runSync calls the orchestrator, turning a panic into an internal error
func (s *defaultScheduler) runSync(ctx context.Context, itemID string) (result *pkgsync.Result, syncErr *pkgsync.Error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sync panicked", "item_id", itemID, "panic", r, "stack", string(debug.Stack()))
			result = nil
			syncErr = &pkgsync.Error{Kind: pkgsync.KindInternal, Message: fmt.Sprintf("sync panicked: %v", r)}
		}
	}()
	return s.manager.Run(ctx, itemID)
}

func (s *defaultScheduler) finishSync(ctx context.Context, itemID string, result *pkgsync.Result, syncErr *pkgsync.Error) {
	var final status.JobStatus
	_, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		// cancelled or superseded by a deletion while running
		if job.Status != status.JobStatusProcessing {
			final = job.Status
			return false
		}
		job.SyncStartedAt = nil
		job.Message = ""
		if syncErr != nil {
			job.Status = status.JobStatusError
			job.RetryCount++
			job.LastError = syncErr.Message
			job.LastErrorKind = string(syncErr.Kind)
			job.RetryNotBefore = syncErr.RetryAt
		} else {
			job.Status = status.JobStatusSuccess
			job.RetryCount = 0
			job.ClearFailure()
			job.Message = resultMessage(result)
		}
		final = job.Status
		return true
	})
	if err != nil {
		slog.Error("Failed to store sync result", "item_id", itemID, "error", err)
	}

	kind := ""
	if syncErr != nil {
		kind = string(syncErr.Kind)
		slog.Error("Sync failed", "item_id", itemID, "error_kind", kind, "error", syncErr.Message)
	} else {
		slog.Info("Sync completed", "item_id", itemID, "outcome", result.Outcome, "status", final)
	}
	s.metrics.RecordJobOutcome(ctx, operationSync, string(final), kind)
}

func resultMessage(result *pkgsync.Result) string {
	if result == nil {
		return ""
	}
	switch result.Outcome {
	case pkgsync.OutcomePartial:
		if result.SyndicationErr != nil {
			return fmt.Sprintf("published to the repository; syndication failed (%s): %s",
				result.SyndicationErr.Kind, result.SyndicationErr.Message)
		}
		return "published to the repository; syndication failed"
	case pkgsync.OutcomeSkipped:
		return "publishing is disabled"
	}
	return ""
}

func (s *defaultScheduler) ProcessDeletion(ctx context.Context, itemID string) {
	exists, err := s.contents.Exists(ctx, itemID)
	if err != nil {
		slog.Error("Failed to look up item", "item_id", itemID, "error", err)
		return
	}
	if !exists {
		s.dropDeletion(ctx, itemID)
		return
	}

	token, acquired, err := s.locker.Acquire(ctx, lock.ItemKey(itemID), LockTTL)
	if err != nil || !acquired {
		slog.Info("Item is locked by another worker, skipping deletion", "item_id", itemID, "error", err)
		return
	}
	defer s.release(ctx, itemID, token)

	var (
		reason    string
		exhausted bool
	)
	changed, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		switch {
		case job.Status != status.JobStatusDeleting:
			reason = "deletion no longer requested"
			return false
		case job.RetryCount >= MaxRetries:
			reason = "retries exhausted"
			exhausted = true
			job.Status = status.JobStatusDeleteError
			job.SyncStartedAt = nil
			job.LastError = reason
			job.LastErrorKind = string(pkgsync.KindValidation)
			job.RetryNotBefore = nil
			return true
		}
		now := s.now().UTC()
		job.SyncStartedAt = &now
		return true
	})
	if err != nil {
		slog.Error("Failed to mark deletion started", "item_id", itemID, "error", err)
		return
	}
	if !changed || exhausted {
		slog.Info("Deletion not started", "item_id", itemID, "reason", reason)
		if exhausted {
			s.metrics.RecordJobOutcome(ctx, operationDelete, string(status.JobStatusDeleteError), string(pkgsync.KindValidation))
		}
		return
	}

	result, delErr := s.runDelete(ctx, itemID)

	var final status.JobStatus
	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		if job.Status != status.JobStatusDeleting {
			final = job.Status
			return false
		}
		job.SyncStartedAt = nil
		if delErr != nil {
			job.Status = status.JobStatusDeleteError
			job.RetryCount++
			job.LastError = delErr.Message
			job.LastErrorKind = string(delErr.Kind)
			job.RetryNotBefore = delErr.RetryAt
		} else {
			job.Status = status.JobStatusDeleted
			job.RetryCount = 0
			job.ClearFailure()
			if len(result.Failed) > 0 {
				job.Message = fmt.Sprintf("%d asset(s) could not be removed", len(result.Failed))
			}
		}
		final = job.Status
		return true
	}); err != nil {
		slog.Error("Failed to store deletion result", "item_id", itemID, "error", err)
	}

	kind := ""
	if delErr != nil {
		kind = string(delErr.Kind)
		slog.Error("Deletion failed", "item_id", itemID, "error_kind", kind, "error", delErr.Message)
	}
	s.metrics.RecordJobOutcome(ctx, operationDelete, string(final), kind)
}

func (s *defaultScheduler) runDelete(ctx context.Context, itemID string) (result *pkgsync.DeleteResult, delErr *pkgsync.Error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Deletion panicked", "item_id", itemID, "panic", r, "stack", string(debug.Stack()))
			result = nil
			delErr = &pkgsync.Error{Kind: pkgsync.KindInternal, Message: fmt.Sprintf("deletion panicked: %v", r)}
		}
	}()
	return s.manager.Delete(ctx, itemID)
}

func (s *defaultScheduler) release(ctx context.Context, itemID, token string) {
	// the task context may already be cancelled; the lock must still go
	if _, err := s.locker.Release(context.WithoutCancel(ctx), lock.ItemKey(itemID), token); err != nil {
		slog.Warn("Failed to release item lock", "item_id", itemID, "error", err)
	}
}

// failMissing ends a queued job whose item disappeared
func (s *defaultScheduler) failMissing(ctx context.Context, itemID string) {
	slog.Info("Item no longer exists, dropping sync", "item_id", itemID)
	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		if job.Status != status.JobStatusPending {
			return false
		}
		job.Status = status.JobStatusError
		job.LastError = "item no longer exists"
		job.LastErrorKind = string(pkgsync.KindValidation)
		return true
	}); err != nil {
		slog.Error("Failed to update job of missing item", "item_id", itemID, "error", err)
	}
}

// dropDeletion ends a deletion whose item disappeared. A purged item has no
// job left, so nothing is written for it.
func (s *defaultScheduler) dropDeletion(ctx context.Context, itemID string) {
	slog.Info("Item no longer exists, dropping deletion", "item_id", itemID)
	if _, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		if job.Status != status.JobStatusDeleting {
			return false
		}
		job.Status = status.JobStatusDeleteError
		job.SyncStartedAt = nil
		job.LastError = "item no longer exists"
		job.LastErrorKind = string(pkgsync.KindValidation)
		return true
	}); err != nil {
		slog.Error("Failed to update job of missing item", "item_id", itemID, "error", err)
	}
}

func (s *defaultScheduler) isStale(job *status.SyncJob) bool {
	if job.Status != status.JobStatusProcessing {
		return false
	}
	// a processing job without a start marker cannot be tracked
	return job.SyncStartedAt == nil || s.now().Sub(*job.SyncStartedAt) > StaleSyncTimeout
}

// expireIfStale fails the job of an item if its worker stopped reporting
func (s *defaultScheduler) expireIfStale(ctx context.Context, itemID string) bool {
	expired, err := s.jobs.UpdateAtomically(ctx, itemID, func(job *status.SyncJob) bool {
		if !s.isStale(job) {
			return false
		}
		job.Status = status.JobStatusError
		job.RetryCount++
		job.SyncStartedAt = nil
		job.LastError = fmt.Sprintf("sync did not finish within %s", StaleSyncTimeout)
		job.LastErrorKind = string(pkgsync.KindTransient)
		return true
	})
	if err != nil {
		slog.Error("Failed to check for stale sync", "item_id", itemID, "error", err)
		return false
	}
	if expired {
		slog.Warn("Stale sync expired", "item_id", itemID)
	}
	return expired
}

func (s *defaultScheduler) SweepStale(ctx context.Context) (int, error) {
	processing, err := s.jobs.ListByStatus(ctx, status.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to list processing jobs: %w", err)
	}

	expired := 0
	for _, job := range processing {
		if s.isStale(job) && s.expireIfStale(ctx, job.ItemID) {
			expired++
		}
	}
	return expired, nil
}

func (s *defaultScheduler) Recover(ctx context.Context) (int, error) {
	processing, err := s.jobs.ListByStatus(ctx, status.JobStatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to list interrupted jobs: %w", err)
	}

	recovered := 0
	for _, job := range processing {
		// the worker that ran it is gone
		if _, err := s.jobs.UpdateAtomically(ctx, job.ItemID, func(j *status.SyncJob) bool {
			if j.Status != status.JobStatusProcessing {
				return false
			}
			j.Status = status.JobStatusError
			j.RetryCount++
			j.SyncStartedAt = nil
			j.LastError = "sync interrupted by a restart"
			j.LastErrorKind = string(pkgsync.KindTransient)
			return true
		}); err != nil {
			slog.Error("Failed to recover interrupted sync", "item_id", job.ItemID, "error", err)
			continue
		}
		recovered++
	}

	resubmitted, err := s.Reschedule(ctx)
	recovered += resubmitted
	if recovered > 0 {
		slog.Info("Recovered unfinished jobs", "count", recovered)
	}
	return recovered, err
}

func (s *defaultScheduler) Reschedule(ctx context.Context) (int, error) {
	runner := s.runner()
	if runner == nil {
		return 0, nil
	}
	jobs, err := s.jobs.ListByStatus(ctx, status.JobStatusPending, status.JobStatusDeleting)
	if err != nil {
		return 0, fmt.Errorf("failed to list queued jobs: %w", err)
	}

	resubmitted := 0
	for _, job := range jobs {
		task := taskrunner.Task{Name: TaskSync, ItemID: job.ItemID}
		priority := DefaultPriority
		if job.Status == status.JobStatusDeleting {
			// a running deletion keeps its start marker until it finishes
			if job.SyncStartedAt != nil && s.now().Sub(*job.SyncStartedAt) <= StaleSyncTimeout {
				continue
			}
			task.Name = TaskDelete
			priority = DeletionPriority
		}
		if s.resubmit(ctx, runner, task, priority) {
			resubmitted++
		}
	}
	if resubmitted > 0 {
		slog.Info("Resubmitted queued jobs without a task", "count", resubmitted)
	}
	return resubmitted, nil
}

// resubmit submits a task unless the runner still holds it
func (s *defaultScheduler) resubmit(ctx context.Context, runner taskrunner.Runner, task taskrunner.Task, priority int) bool {
	held, err := runner.HasScheduled(ctx, task)
	if err != nil {
		slog.Warn("Failed to query task runner", "task", task.String(), "error", err)
		return false
	}
	if held {
		return false
	}
	if err := runner.Submit(ctx, task, priority); err != nil {
		slog.Error("Failed to resubmit task", "task", task.String(), "error", err)
		return false
	}
	return true
}
