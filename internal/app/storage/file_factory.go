package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/jobstore"
	"github.com/stacklok/content-sync-server/internal/status"
)

const (
	jobsDirName  = "jobs"
	itemsDirName = "items"
)

// FileFactory creates file-based storage components below one data directory.
type FileFactory struct {
	dataDir string
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates a new file-based storage factory, ensuring the
// necessary directories exist.
func NewFileFactory(cfg *config.Config) (*FileFactory, error) {
	if cfg == nil {
		return nil, errNilConfig
	}

	dataDir := cfg.GetDataDir()
	for _, dir := range []string{filepath.Join(dataDir, jobsDirName), filepath.Join(dataDir, itemsDirName)} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir)

	return &FileFactory{dataDir: dataDir}, nil
}

// CreateJobStore creates a job store keeping one JSON file per item.
func (f *FileFactory) CreateJobStore(_ context.Context) (jobstore.Store, error) {
	slog.Debug("Creating file-based job store")
	return jobstore.NewFileStore(status.NewFileJobPersistence(filepath.Join(f.dataDir, jobsDirName))), nil
}

// CreateContentStore creates a content store keeping one YAML file per item.
func (f *FileFactory) CreateContentStore(_ context.Context) (content.Store, error) {
	slog.Debug("Creating file-based content store")
	return content.NewFileStore(filepath.Join(f.dataDir, itemsDirName)), nil
}

// Ping checks that the data directory is still present.
func (f *FileFactory) Ping(_ context.Context) error {
	info, err := os.Stat(f.dataDir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", f.dataDir)
	}
	return nil
}

// Cleanup is a no-op for file storage.
func (*FileFactory) Cleanup() {
	slog.Debug("Cleaning up file storage factory (no-op)")
}
