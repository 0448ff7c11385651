package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/status"
)

func TestNewFileFactory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     func(t *testing.T) *config.Config
		wantErr string
	}{
		{
			name: "creates the data directories",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return &config.Config{Storage: &config.StorageConfig{DataDir: t.TempDir()}}
			},
		},
		{
			name: "nested directories are created",
			cfg: func(t *testing.T) *config.Config {
				t.Helper()
				return &config.Config{Storage: &config.StorageConfig{
					DataDir: filepath.Join(t.TempDir(), "new", "nested", "dir"),
				}}
			},
		},
		{
			name:    "nil config returns error",
			cfg:     func(*testing.T) *config.Config { return nil },
			wantErr: "config cannot be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := tt.cfg(t)
			factory, err := NewFileFactory(cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, factory)
				return
			}
			require.NoError(t, err)

			for _, dir := range []string{jobsDirName, itemsDirName} {
				info, err := os.Stat(filepath.Join(cfg.Storage.DataDir, dir))
				require.NoError(t, err)
				assert.True(t, info.IsDir())
			}
			require.NoError(t, factory.Ping(context.Background()))
		})
	}
}

func TestNewFileFactory_ReadOnlyFilesystem(t *testing.T) {
	t.Parallel()

	if os.Getuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	parent := t.TempDir()
	require.NoError(t, os.Chmod(parent, 0500))
	t.Cleanup(func() { _ = os.Chmod(parent, 0750) })

	_, err := NewFileFactory(&config.Config{Storage: &config.StorageConfig{DataDir: filepath.Join(parent, "data")}})
	require.ErrorContains(t, err, "failed to create data directory")
}

func TestFileFactory_Stores(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dataDir := t.TempDir()
	factory, err := NewFileFactory(&config.Config{Storage: &config.StorageConfig{DataDir: dataDir}})
	require.NoError(t, err)
	t.Cleanup(factory.Cleanup)

	jobs, err := factory.CreateJobStore(ctx)
	require.NoError(t, err)
	require.NoError(t, jobs.Initialize(ctx))
	require.NoError(t, jobs.Update(ctx, &status.SyncJob{ItemID: "1", Status: status.JobStatusPending}))
	assert.FileExists(t, filepath.Join(dataDir, jobsDirName, "1", "job.json"))

	contents, err := factory.CreateContentStore(ctx)
	require.NoError(t, err)
	require.NoError(t, contents.Upsert(ctx, &content.Item{
		ID: "1", Title: "Hello", Status: content.StatusDraft, UpdatedAt: time.Now(),
	}))
	assert.FileExists(t, filepath.Join(dataDir, itemsDirName, "1.yaml"))
}

func TestFileFactory_PingMissingDirectory(t *testing.T) {
	t.Parallel()

	dataDir := filepath.Join(t.TempDir(), "data")
	factory, err := NewFileFactory(&config.Config{Storage: &config.StorageConfig{DataDir: dataDir}})
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(dataDir))
	require.Error(t, factory.Ping(context.Background()))
}
