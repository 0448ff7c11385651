package jobstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/content-sync-server/database"
	"github.com/stacklok/content-sync-server/internal/status"
	"github.com/stacklok/content-sync-server/internal/status/mocks"
)

func newStores(t *testing.T) map[string]func(t *testing.T) Store {
	t.Helper()
	return map[string]func(t *testing.T) Store{
		"file": func(t *testing.T) Store {
			t.Helper()
			return NewFileStore(status.NewFileJobPersistence(t.TempDir()))
		},
		"database": func(t *testing.T) Store {
			t.Helper()
			if testing.Short() {
				t.Skip("skipping database test in short mode")
			}
			connStr := database.SetupTestDB(t)
			pool, err := pgxpool.New(context.Background(), connStr)
			require.NoError(t, err)
			t.Cleanup(pool.Close)
			return NewDBStore(pool)
		},
	}
}

func ptr(t time.Time) *time.Time { return &t }

func TestStore_Contract(t *testing.T) {
	t.Parallel()

	for name, factory := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := factory(t)
			require.NoError(t, store.Initialize(ctx))

			// unknown items have an empty job
			job, err := store.Get(ctx, "1")
			require.NoError(t, err)
			assert.Equal(t, "1", job.ItemID)
			assert.Equal(t, status.JobStatusNone, job.Status)

			base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.Update(ctx, &status.SyncJob{
				ItemID: "1", Status: status.JobStatusPending, EnqueuedAt: ptr(base.Add(time.Minute)),
			}))
			require.NoError(t, store.Update(ctx, &status.SyncJob{
				ItemID: "2", Status: status.JobStatusError, EnqueuedAt: ptr(base),
				RetryCount: 2, LastError: "rate limited", LastErrorKind: "rate_limit",
				RetryNotBefore: ptr(base.Add(time.Hour)),
			}))
			require.NoError(t, store.Update(ctx, &status.SyncJob{
				ItemID: "3", Status: status.JobStatusSuccess, Message: "syndication failed",
			}))

			job, err = store.Get(ctx, "2")
			require.NoError(t, err)
			assert.Equal(t, status.JobStatusError, job.Status)
			assert.Equal(t, 2, job.RetryCount)
			assert.Equal(t, "rate_limit", job.LastErrorKind)
			require.NotNil(t, job.RetryNotBefore)
			assert.True(t, job.RetryNotBefore.Equal(base.Add(time.Hour)))
			assert.False(t, job.UpdatedAt.IsZero())

			all, err := store.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 3)
			assert.Equal(t, "syndication failed", all["3"].Message)

			pending, err := store.ListByStatus(ctx, status.JobStatusPending, status.JobStatusError)
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, "2", pending[0].ItemID, "oldest enqueue first")
			assert.Equal(t, "1", pending[1].ItemID)

			none, err := store.ListByStatus(ctx, status.JobStatusDeleting)
			require.NoError(t, err)
			assert.Empty(t, none)

			require.NoError(t, store.Delete(ctx, "3"))
			job, err = store.Get(ctx, "3")
			require.NoError(t, err)
			assert.Equal(t, status.JobStatusNone, job.Status)
			require.NoError(t, store.Delete(ctx, "3"))
		})
	}
}

func TestStore_UpdateAtomically(t *testing.T) {
	t.Parallel()

	for name, factory := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := factory(t)
			require.NoError(t, store.Initialize(ctx))

			updated, err := store.UpdateAtomically(ctx, "7", func(job *status.SyncJob) bool {
				assert.Equal(t, status.JobStatusNone, job.Status)
				job.Status = status.JobStatusPending
				return true
			})
			require.NoError(t, err)
			assert.True(t, updated)

			updated, err = store.UpdateAtomically(ctx, "7", func(job *status.SyncJob) bool {
				job.Status = status.JobStatusCancelled
				return false
			})
			require.NoError(t, err)
			assert.False(t, updated)

			job, err := store.Get(ctx, "7")
			require.NoError(t, err)
			assert.Equal(t, status.JobStatusPending, job.Status, "rejected change must not be stored")
		})
	}
}

func TestStore_UpdateAtomicallyIsExclusive(t *testing.T) {
	t.Parallel()

	for name, factory := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := factory(t)
			require.NoError(t, store.Initialize(ctx))

			const workers = 8
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				wins int
			)
			for i := range workers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					ok, err := store.UpdateAtomically(ctx, "9", func(job *status.SyncJob) bool {
						if job.Status.InFlight() {
							return false
						}
						job.Status = status.JobStatusPending
						job.Message = fmt.Sprintf("worker %d", i)
						return true
					})
					assert.NoError(t, err)
					if ok {
						mu.Lock()
						wins++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()
			assert.Equal(t, 1, wins)
		})
	}
}

func TestFileStore_ReloadsPersistedJobs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	first := NewFileStore(status.NewFileJobPersistence(dir))
	require.NoError(t, first.Initialize(ctx))
	require.NoError(t, first.Update(ctx, &status.SyncJob{ItemID: "5", Status: status.JobStatusProcessing}))

	second := NewFileStore(status.NewFileJobPersistence(dir))
	require.NoError(t, second.Initialize(ctx))
	job, err := second.Get(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, status.JobStatusProcessing, job.Status)
}

func TestFileStore_FailedSaveKeepsCache(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	persistence := mocks.NewMockJobPersistence(ctrl)
	persistence.EXPECT().LoadAllJobs(gomock.Any()).Return(map[string]*status.SyncJob{
		"5": {ItemID: "5", Status: status.JobStatusSuccess},
	}, nil)
	persistence.EXPECT().SaveJob(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	ctx := context.Background()
	store := NewFileStore(persistence)
	require.NoError(t, store.Initialize(ctx))

	_, err := store.UpdateAtomically(ctx, "5", func(job *status.SyncJob) bool {
		job.Status = status.JobStatusPending
		return true
	})
	require.Error(t, err)

	job, err := store.Get(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, status.JobStatusSuccess, job.Status)
}

func TestFileStore_RejectsInvalidItemIDs(t *testing.T) {
	t.Parallel()

	store := NewFileStore(status.NewFileJobPersistence(t.TempDir()))
	_, err := store.Get(context.Background(), "../escape")
	assert.ErrorIs(t, err, status.ErrInvalidItemID)

	_, err = store.UpdateAtomically(context.Background(), "", func(*status.SyncJob) bool { return true })
	assert.ErrorIs(t, err, status.ErrInvalidItemID)
}
