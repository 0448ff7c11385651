// Package status provides sync job records and their file persistence.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_job_persistence.go -package=mocks -source=persistence.go JobPersistence

const (
	// JobFileName is the name of the per-item job file
	JobFileName = "job.json"
)

// ErrInvalidItemID is returned for item ids that cannot be used as a storage key
var ErrInvalidItemID = errors.New("invalid item id")

// JobPersistence defines the interface for sync job persistence
type JobPersistence interface {
	// SaveJob saves the job record of an item
	SaveJob(ctx context.Context, job *SyncJob) error

	// LoadJob loads the job record of an item.
	// Returns an empty SyncJob if none was saved yet.
	LoadJob(ctx context.Context, itemID string) (*SyncJob, error)

	// LoadAllJobs loads the job records of all items
	LoadAllJobs(ctx context.Context) (map[string]*SyncJob, error)

	// DeleteJob removes the job record of an item
	DeleteJob(ctx context.Context, itemID string) error
}

// fileJobPersistence implements JobPersistence using local filesystem
type fileJobPersistence struct {
	basePath string
}

// NewFileJobPersistence creates a new file-based job persistence.
// Every item gets its own directory below basePath.
func NewFileJobPersistence(basePath string) JobPersistence {
	return &fileJobPersistence{
		basePath: basePath,
	}
}

// ValidateItemID checks that an item id is usable as a single path element
func ValidateItemID(itemID string) error {
	if itemID == "" || strings.ContainsAny(itemID, `/\`) || !filepath.IsLocal(itemID) {
		return fmt.Errorf("%w: %q", ErrInvalidItemID, itemID)
	}
	return nil
}

// SaveJob writes the job to a JSON file through a temporary file and a rename
func (f *fileJobPersistence) SaveJob(_ context.Context, job *SyncJob) error {
	if err := ValidateItemID(job.ItemID); err != nil {
		return err
	}

	itemDir := filepath.Join(f.basePath, job.ItemID)
	if err := os.MkdirAll(itemDir, 0750); err != nil {
		return fmt.Errorf("failed to create job directory for item '%s': %w", job.ItemID, err)
	}

	filePath := filepath.Join(itemDir, JobFileName)

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal job for item '%s': %w", job.ItemID, err)
	}

	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary job file for item '%s': %w", job.ItemID, err)
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename job file for item '%s': %w", job.ItemID, err)
	}

	return nil
}

// LoadJob reads the job file of an item
func (f *fileJobPersistence) LoadJob(_ context.Context, itemID string) (*SyncJob, error) {
	if err := ValidateItemID(itemID); err != nil {
		return nil, err
	}

	filePath := filepath.Join(f.basePath, itemID, JobFileName)

	// #nosec G304 -- itemID is validated to be a single local path element
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &SyncJob{ItemID: itemID}, nil
		}
		return nil, fmt.Errorf("failed to read job file for item '%s': %w", itemID, err)
	}

	var job SyncJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job for item '%s': %w", itemID, err)
	}
	job.ItemID = itemID

	return &job, nil
}

// LoadAllJobs loads every readable job file; unreadable ones are skipped
func (f *fileJobPersistence) LoadAllJobs(ctx context.Context) (map[string]*SyncJob, error) {
	result := make(map[string]*SyncJob)

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return result, nil
		}
		return nil, fmt.Errorf("failed to read job directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		job, err := f.LoadJob(ctx, entry.Name())
		if err != nil {
			continue
		}
		if job.Status == JobStatusNone && job.UpdatedAt.IsZero() {
			// directory without a job file
			continue
		}

		result[entry.Name()] = job
	}

	return result, nil
}

// DeleteJob removes the item directory
func (f *fileJobPersistence) DeleteJob(_ context.Context, itemID string) error {
	if err := ValidateItemID(itemID); err != nil {
		return err
	}
	if err := os.RemoveAll(filepath.Join(f.basePath, itemID)); err != nil {
		return fmt.Errorf("failed to delete job for item '%s': %w", itemID, err)
	}
	return nil
}
