package status

import (
	"slices"
	"time"
)

// JobStatus represents the lifecycle state of a content item's sync job
type JobStatus string

const (
	// JobStatusNone means the item has never been scheduled
	JobStatusNone JobStatus = ""

	// JobStatusPending means a sync task has been submitted and is waiting to run
	JobStatusPending JobStatus = "pending"

	// JobStatusProcessing means a worker holds the item lock and is publishing
	JobStatusProcessing JobStatus = "processing"

	// JobStatusSuccess means the last sync completed
	JobStatusSuccess JobStatus = "success"

	// JobStatusError means the last sync failed
	JobStatusError JobStatus = "error"

	// JobStatusCancelled means an operator cancelled the outstanding job
	JobStatusCancelled JobStatus = "cancelled"

	// JobStatusDeleting means a remote deletion has been scheduled or is running
	JobStatusDeleting JobStatus = "deleting"

	// JobStatusDeleted means the remote copies were removed
	JobStatusDeleted JobStatus = "deleted"

	// JobStatusDeleteError means the remote deletion failed
	JobStatusDeleteError JobStatus = "delete_error"
)

// AllStatuses lists every non-empty job status
var AllStatuses = []JobStatus{
	JobStatusPending,
	JobStatusProcessing,
	JobStatusSuccess,
	JobStatusError,
	JobStatusCancelled,
	JobStatusDeleting,
	JobStatusDeleted,
	JobStatusDeleteError,
}

// IsValid reports whether s is a known status (the empty status included)
func (s JobStatus) IsValid() bool {
	return s == JobStatusNone || slices.Contains(AllStatuses, s)
}

// InFlight reports whether a sync for the item is queued or running
func (s JobStatus) InFlight() bool {
	return s == JobStatusPending || s == JobStatusProcessing
}

// SyncJob is the persisted record of an item's publishing lifecycle
type SyncJob struct {
	// ItemID identifies the content item
	ItemID string `json:"itemId" yaml:"itemId"`

	// Status is the current lifecycle state
	Status JobStatus `json:"status" yaml:"status"`

	// EnqueuedAt is when the job last moved to pending
	EnqueuedAt *time.Time `json:"enqueuedAt,omitempty" yaml:"enqueuedAt,omitempty"`

	// RetryCount counts consecutive failed attempts since the last success or cancel
	RetryCount int `json:"retryCount" yaml:"retryCount"`

	// SyncStartedAt marks a running sync and feeds the stale-sync sweep
	SyncStartedAt *time.Time `json:"syncStartedAt,omitempty" yaml:"syncStartedAt,omitempty"`

	// LastError is the message of the most recent failure
	LastError string `json:"lastError,omitempty" yaml:"lastError,omitempty"`

	// LastErrorKind classifies the most recent failure (config, auth, rate_limit, ...)
	LastErrorKind string `json:"lastErrorKind,omitempty" yaml:"lastErrorKind,omitempty"`

	// RetryNotBefore is set when the remote asked us to back off
	RetryNotBefore *time.Time `json:"retryNotBefore,omitempty" yaml:"retryNotBefore,omitempty"`

	// Message carries additional information, such as a partial-success warning
	Message string `json:"message,omitempty" yaml:"message,omitempty"`

	// UpdatedAt is the time of the last state change
	UpdatedAt time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Copy returns a deep copy of the job
func (j *SyncJob) Copy() *SyncJob {
	if j == nil {
		return nil
	}
	c := *j
	c.EnqueuedAt = copyTime(j.EnqueuedAt)
	c.SyncStartedAt = copyTime(j.SyncStartedAt)
	c.RetryNotBefore = copyTime(j.RetryNotBefore)
	return &c
}

// ClearFailure drops the error details of a previous attempt
func (j *SyncJob) ClearFailure() {
	j.LastError = ""
	j.LastErrorKind = ""
	j.RetryNotBefore = nil
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
