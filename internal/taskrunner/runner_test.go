package taskrunner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskSync = "sync"

// recorder collects the item ids handled, in order
type recorder struct {
	mu    sync.Mutex
	items []string
	done  chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 100)}
}

func (r *recorder) handle(_ context.Context, itemID string) {
	r.mu.Lock()
	r.items = append(r.items, itemID)
	r.mu.Unlock()
	r.done <- itemID
}

func (r *recorder) wait(t *testing.T, n int) []string {
	t.Helper()
	for range n {
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %d tasks", n)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.items...)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestPriorityRunners_RunLowestPriorityFirst(t *testing.T) {
	t.Parallel()

	factories := map[string]func(t *testing.T) Runner{
		"memory": func(*testing.T) Runner { return NewMemoryRunner(1) },
		"redis": func(t *testing.T) Runner {
			_, client := newTestRedis(t)
			return NewRedisRunner(client, "test", 1, WithPollTimeout(50*time.Millisecond))
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := newRecorder()
			runner := factory(t)
			runner.Register(taskSync, rec.handle)
			assert.True(t, runner.SupportsPriority())

			ctx := context.Background()
			// queue before starting so the order is decided by priority alone
			require.NoError(t, runner.Submit(ctx, Task{Name: taskSync, ItemID: "low"}, 40))
			require.NoError(t, runner.Submit(ctx, Task{Name: taskSync, ItemID: "urgent"}, 5))
			require.NoError(t, runner.Submit(ctx, Task{Name: taskSync, ItemID: "normal"}, 10))

			require.NoError(t, runner.Start(ctx))
			defer runner.Stop()

			assert.Equal(t, []string{"urgent", "normal", "low"}, rec.wait(t, 3))
		})
	}
}

func TestPriorityRunners_UnscheduleAndHasScheduled(t *testing.T) {
	t.Parallel()

	factories := map[string]func(t *testing.T) Runner{
		"memory": func(*testing.T) Runner { return NewMemoryRunner(2) },
		"redis": func(t *testing.T) Runner {
			_, client := newTestRedis(t)
			return NewRedisRunner(client, "test", 2)
		},
		"delayed": func(*testing.T) Runner { return NewDelayedRunner(time.Hour) },
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			runner := factory(t)
			runner.Register(taskSync, func(context.Context, string) {})
			ctx := context.Background()
			task := Task{Name: taskSync, ItemID: "42"}

			has, err := runner.HasScheduled(ctx, task)
			require.NoError(t, err)
			assert.False(t, has)

			require.NoError(t, runner.Submit(ctx, task, 10))
			require.NoError(t, runner.Submit(ctx, Task{Name: taskSync, ItemID: "43"}, 10))

			has, err = runner.HasScheduled(ctx, task)
			require.NoError(t, err)
			assert.True(t, has)

			removed, err := runner.UnscheduleAll(ctx, task)
			require.NoError(t, err)
			assert.Equal(t, 1, removed)

			has, err = runner.HasScheduled(ctx, task)
			require.NoError(t, err)
			assert.False(t, has)

			// the other item stays queued
			has, err = runner.HasScheduled(ctx, Task{Name: taskSync, ItemID: "43"})
			require.NoError(t, err)
			assert.True(t, has)

			// unscheduling again is fine
			removed, err = runner.UnscheduleAll(ctx, task)
			require.NoError(t, err)
			assert.Zero(t, removed)

			runner.Stop()
		})
	}
}

func TestRunners_RejectUnknownTask(t *testing.T) {
	t.Parallel()

	_, client := newTestRedis(t)
	for _, runner := range []Runner{NewMemoryRunner(1), NewRedisRunner(client, "test", 1), NewDelayedRunner(0)} {
		err := runner.Submit(context.Background(), Task{Name: "nope", ItemID: "1"}, 10)
		require.ErrorIs(t, err, ErrUnknownTask)
	}
}

func TestMemoryRunner_RecoversFromPanics(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	runner := NewMemoryRunner(1)
	runner.Register("explode", func(context.Context, string) { panic("boom") })
	runner.Register(taskSync, rec.handle)

	ctx := context.Background()
	require.NoError(t, runner.Submit(ctx, Task{Name: "explode", ItemID: "1"}, 1))
	require.NoError(t, runner.Submit(ctx, Task{Name: taskSync, ItemID: "2"}, 2))
	require.NoError(t, runner.Start(ctx))
	defer runner.Stop()

	assert.Equal(t, []string{"2"}, rec.wait(t, 1))
}

func TestMemoryRunner_SubmitAfterStop(t *testing.T) {
	t.Parallel()

	runner := NewMemoryRunner(1)
	runner.Register(taskSync, func(context.Context, string) {})
	require.NoError(t, runner.Start(context.Background()))
	runner.Stop()

	err := runner.Submit(context.Background(), Task{Name: taskSync, ItemID: "1"}, 10)
	require.ErrorIs(t, err, ErrStopped)
}

func TestMemoryRunner_RunsSubmittedWhileIdle(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	runner := NewMemoryRunner(3)
	runner.Register(taskSync, rec.handle)
	require.NoError(t, runner.Start(context.Background()))
	defer runner.Stop()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, runner.Submit(context.Background(), Task{Name: taskSync, ItemID: id}, 10))
	}
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, rec.wait(t, 4))
	assert.Zero(t, runner.Len())
}

func TestRedisRunner_ResubmitKeepsSingleEntry(t *testing.T) {
	t.Parallel()

	mr, client := newTestRedis(t)
	runner := NewRedisRunner(client, "blog", 1)
	runner.Register(taskSync, func(context.Context, string) {})

	ctx := context.Background()
	task := Task{Name: taskSync, ItemID: "9"}
	require.NoError(t, runner.Submit(ctx, task, 10))
	require.NoError(t, runner.Submit(ctx, task, 5))

	members, err := mr.ZMembers("blog:tasks")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestDelayedRunner_FiresOnce(t *testing.T) {
	t.Parallel()

	rec := newRecorder()
	runner := NewDelayedRunner(10 * time.Millisecond)
	runner.Register(taskSync, rec.handle)
	assert.False(t, runner.SupportsPriority())
	require.NoError(t, runner.Start(context.Background()))

	require.NoError(t, runner.Submit(context.Background(), Task{Name: taskSync, ItemID: "1"}, 99))
	assert.Equal(t, []string{"1"}, rec.wait(t, 1))

	has, err := runner.HasScheduled(context.Background(), Task{Name: taskSync, ItemID: "1"})
	require.NoError(t, err)
	assert.False(t, has)

	runner.Stop()
}

func TestDelayedRunner_StopCancelsPending(t *testing.T) {
	t.Parallel()

	called := make(chan struct{}, 1)
	runner := NewDelayedRunner(time.Hour)
	runner.Register(taskSync, func(context.Context, string) { called <- struct{}{} })
	require.NoError(t, runner.Start(context.Background()))
	require.NoError(t, runner.Submit(context.Background(), Task{Name: taskSync, ItemID: "1"}, 0))

	runner.Stop()

	select {
	case <-called:
		t.Fatal("handler ran after stop")
	default:
	}
	require.ErrorIs(t, runner.Submit(context.Background(), Task{Name: taskSync, ItemID: "2"}, 0), ErrStopped)
}
