package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/content-sync-server/internal/config"
)

func TestNewStorageFactory(t *testing.T) {
	t.Parallel()

	t.Run("file backend by default", func(t *testing.T) {
		t.Parallel()

		factory, err := NewStorageFactory(context.Background(), &config.Config{
			Storage: &config.StorageConfig{DataDir: t.TempDir()},
		})
		require.NoError(t, err)
		t.Cleanup(factory.Cleanup)
		assert.IsType(t, &FileFactory{}, factory)
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		factory, err := NewStorageFactory(context.Background(), nil)
		require.ErrorIs(t, err, errNilConfig)
		assert.Nil(t, factory)
	})

	t.Run("unknown type", func(t *testing.T) {
		t.Parallel()

		factory, err := NewStorageFactory(context.Background(), &config.Config{
			Storage: &config.StorageConfig{Type: "s3"},
		})
		require.ErrorContains(t, err, "unknown storage type: s3")
		assert.Nil(t, factory)
	})

	t.Run("failed backend yields a nil factory", func(t *testing.T) {
		t.Parallel()

		factory, err := NewStorageFactory(context.Background(), &config.Config{
			Storage: &config.StorageConfig{Type: config.StorageTypeDatabase},
		})
		require.Error(t, err)
		assert.True(t, factory == nil)
	})

	t.Run("unwritable data directory", func(t *testing.T) {
		t.Parallel()

		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		factory, err := NewStorageFactory(context.Background(), &config.Config{
			Storage: &config.StorageConfig{DataDir: blocker},
		})
		require.Error(t, err)
		assert.True(t, factory == nil)
	})
}
